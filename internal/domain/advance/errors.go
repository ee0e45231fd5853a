package advance

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("advance not found")
	ErrAmountBounds   = errors.New("advance amount must be positive and within the ceiling")
	ErrWeeksBounds    = errors.New("weeks to repay out of range")
	ErrNotActive      = errors.New("advance is not active")
	ErrAlreadySettled = errors.New("advance has settled repayments and cannot be cancelled")
)

// CeilingError reports an aggregate outstanding balance breach. No ledger row
// is written when this fires.
type CeilingError struct {
	EmployeeID  string
	Outstanding decimal.Decimal
	Requested   decimal.Decimal
	Ceiling     decimal.Decimal
}

func (e *CeilingError) Error() string {
	return fmt.Sprintf("advance ceiling exceeded: outstanding %s + requested %s > ceiling %s",
		e.Outstanding.StringFixed(2), e.Requested.StringFixed(2), e.Ceiling.StringFixed(2))
}
