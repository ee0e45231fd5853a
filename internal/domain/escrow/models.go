package escrow

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeDeposit    TransactionType = "DEPOSIT"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
	TypeAdjustment TransactionType = "ADJUSTMENT"
	TypeInterest   TransactionType = "INTEREST"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeAdjustment, TypeInterest:
		return true
	}
	return false
}

// Account holds one driver's escrow position. WeeklyAmount is a manual
// override; zero means no override is in force.
type Account struct {
	ID             string          `json:"id"`
	EmployeeID     string          `json:"employeeId"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	TargetAmount   decimal.Decimal `json:"targetAmount"`
	WeeklyAmount   decimal.Decimal `json:"weeklyAmount"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// IsFunded is derived, never stored.
func (a Account) IsFunded() bool {
	return a.CurrentBalance.GreaterThanOrEqual(a.TargetAmount)
}

// Transaction snapshots the balance on both sides of the movement. Rows are
// immutable once written; the latest BalanceAfter must equal the account's
// CurrentBalance.
type Transaction struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"accountId"`
	Type          TransactionType `json:"transactionType"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	WeekStart     time.Time       `json:"weekStart"`
	Note          string          `json:"note,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// SignedAmount applies the type's direction to the stored magnitude.
// Adjustments are stored already signed.
func SignedAmount(txType TransactionType, amount decimal.Decimal) decimal.Decimal {
	if txType == TypeWithdrawal {
		return amount.Neg()
	}
	return amount
}
