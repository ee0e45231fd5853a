package adjustment

import "errors"

var (
	ErrNotFound        = errors.New("adjustment not found")
	ErrInvalidCategory = errors.New("unknown adjustment category")
	ErrNegativeAmount  = errors.New("adjustment amount must not be negative")
	ErrAlreadyReversed = errors.New("adjustment already reversed")
)
