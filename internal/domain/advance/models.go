package advance

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind is the tagged variant for ledger rows sharing a parent advance.
// Grouping is by the explicit parent key, never by string parsing.
type EntryKind string

const (
	KindAdvance     EntryKind = "ADVANCE"
	KindRepayment   EntryKind = "REPAYMENT"
	KindAdjustment  EntryKind = "ADJUSTMENT"
	KindForgiveness EntryKind = "FORGIVENESS"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusDefaulted Status = "DEFAULTED"
	StatusForgiven  Status = "FORGIVEN"
	StatusCancelled Status = "CANCELLED"
)

// Entry is one signed ledger row. The ADVANCE entry is positive; repayments
// and forgiveness are negative; adjustments carry either sign.
type Entry struct {
	ID        string          `json:"id"`
	AdvanceID string          `json:"advanceId"`
	Kind      EntryKind       `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	WeekStart time.Time       `json:"weekStartDate"`
	SettledAt *time.Time      `json:"settledAt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Advance is the header row keyed by AdvanceID, shared by all its entries.
type Advance struct {
	ID                 string          `json:"id"`
	EmployeeID         string          `json:"employeeId"`
	Amount             decimal.Decimal `json:"amount"`
	WeeksToRepay       int             `json:"weeksToRepay"`
	WeeklyRepayment    decimal.Decimal `json:"weeklyRepayment"`
	FirstRepaymentDate time.Time       `json:"firstRepaymentDate"`
	LastRepaymentDate  time.Time       `json:"lastRepaymentDate"`
	Status             Status          `json:"status"`
	Note               string          `json:"note,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// RemainingBalance replays an advance's entries: the advance amount minus
// settled repayments, forgiveness and adjustments. Scheduled-but-unsettled
// repayments do not reduce the balance. Pure over the list.
func RemainingBalance(entries []Entry) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range entries {
		switch e.Kind {
		case KindAdvance:
			balance = balance.Add(e.Amount)
		case KindRepayment:
			if e.SettledAt != nil {
				balance = balance.Add(e.Amount)
			}
		case KindAdjustment, KindForgiveness:
			balance = balance.Add(e.Amount)
		}
	}
	return balance
}
