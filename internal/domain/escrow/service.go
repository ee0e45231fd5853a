package escrow

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Service struct {
	store  *Store
	params SuggestionParams
}

func NewService(store *Store, params SuggestionParams) *Service {
	return &Service{store: store, params: params}
}

func (s *Service) Account(ctx context.Context, employeeID string) (Account, error) {
	return s.store.AccountForEmployee(ctx, employeeID)
}

func (s *Service) CreateAccount(ctx context.Context, acct Account) (string, error) {
	return s.store.CreateAccount(ctx, acct)
}

func (s *Service) SetWeeklyOverride(ctx context.Context, accountID string, weekly decimal.Decimal) error {
	return s.store.SetWeeklyOverride(ctx, accountID, weekly)
}

// Post validates and applies a movement. Deposit and withdrawal magnitudes
// must be positive; adjustments and interest arrive signed.
func (s *Service) Post(ctx context.Context, employeeID string, txType TransactionType, amount decimal.Decimal, weekStart time.Time, note string) (Transaction, Account, error) {
	if !txType.Valid() {
		return Transaction{}, Account{}, ErrInvalidType
	}
	if (txType == TypeDeposit || txType == TypeWithdrawal) && !amount.IsPositive() {
		return Transaction{}, Account{}, ErrNonPositive
	}
	return s.store.Post(ctx, employeeID, txType, amount, weekStart, note)
}

func (s *Service) Transactions(ctx context.Context, accountID string, limit, offset int) ([]Transaction, error) {
	return s.store.Transactions(ctx, accountID, limit, offset)
}

func (s *Service) DepositsForWeek(ctx context.Context, employeeID string, weekStart time.Time) (decimal.Decimal, error) {
	return s.store.DepositsForWeek(ctx, employeeID, weekStart)
}

// Suggestion surfaces the advisory weekly deposit for review screens.
func (s *Service) Suggestion(ctx context.Context, employeeID string, potentialNetBeforeEscrow decimal.Decimal) (decimal.Decimal, bool, error) {
	acct, err := s.store.AccountForEmployee(ctx, employeeID)
	if err != nil {
		return decimal.Zero, false, err
	}
	suggested, ok := SuggestWeeklyDeposit(acct, potentialNetBeforeEscrow, s.params)
	return suggested, ok, nil
}
