package driver

import "errors"

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrNoPaymentConfig   = errors.New("no payment config covers the period")
	ErrInvalidMethod     = errors.New("unknown payment method")
	ErrPercentOutOfRange = errors.New("percent values must be between 0 and 100")
)
