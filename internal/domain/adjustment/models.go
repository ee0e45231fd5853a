package adjustment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is a closed set. Amounts are stored non-negative; the category
// alone decides whether an adjustment adds to or subtracts from pay.
type Category string

const (
	CategoryDeduction     Category = "DEDUCTION"
	CategoryReimbursement Category = "REIMBURSEMENT"
	CategoryBonus         Category = "BONUS"
	CategoryCorrection    Category = "CORRECTION"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryDeduction, CategoryReimbursement, CategoryBonus, CategoryCorrection:
		return true
	}
	return false
}

// Sign is +1 for categories that increase pay, -1 for deductions.
func (c Category) Sign() int {
	if c == CategoryDeduction {
		return -1
	}
	return 1
}

// Opposite returns the category a reversal entry is written under, so the
// original and its reversal net to zero.
func (c Category) Opposite() Category {
	if c == CategoryDeduction {
		return CategoryReimbursement
	}
	return CategoryDeduction
}

const (
	StatusActive   = "ACTIVE"
	StatusApproved = "APPROVED"
	StatusReversed = "REVERSED"
)

// Common free-form types the aggregator recognizes.
const (
	TypeOvertime     = "OVERTIME"
	TypeFuel         = "FUEL"
	TypeAdvanceRepay = "ADVANCE_REPAY"
)

// Adjustment rows are immutable. Corrections happen through Reverse, which
// writes a counter-entry under the opposite category; each leg counts in its
// own effective week.
type Adjustment struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employeeId"`
	Category      Category        `json:"category"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	EffectiveDate time.Time       `json:"effectiveDate"`
	WeekStart     time.Time       `json:"weekStartDate"`
	LoadNumber    string          `json:"loadNumber,omitempty"`
	Status        string          `json:"status"`
	ReversalOf    string          `json:"reversalOf,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Signed returns the amount with the category's sign applied.
func (a Adjustment) Signed() decimal.Decimal {
	if a.Category.Sign() < 0 {
		return a.Amount.Neg()
	}
	return a.Amount
}
