package escrow

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound = errors.New("escrow account not found")
	ErrAccountInactive = errors.New("escrow account is inactive")
	ErrInvalidType     = errors.New("unknown escrow transaction type")
	ErrNonPositive     = errors.New("deposit and withdrawal amounts must be positive")
)

// InsufficientBalanceError rejects any movement that would take the account
// below zero; nothing is written when it fires.
type InsufficientBalanceError struct {
	AccountID string
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("escrow balance %s cannot cover %s for account %s",
		e.Balance.StringFixed(2), e.Requested.StringFixed(2), e.AccountID)
}
