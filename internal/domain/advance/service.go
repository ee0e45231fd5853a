package advance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Limits struct {
	Ceiling  decimal.Decimal
	MaxWeeks int
}

type Service struct {
	store  *Store
	limits Limits
}

func NewService(store *Store, limits Limits) *Service {
	return &Service{store: store, limits: limits}
}

type CreateRequest struct {
	EmployeeID         string
	Amount             decimal.Decimal
	WeeksToRepay       int
	FirstRepaymentDate time.Time
	Note               string
}

// Create validates the request, builds the amortization schedule and writes
// the whole ledger group atomically. The ceiling covers the aggregate
// outstanding balance across the employee's active advances.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Advance, []Entry, error) {
	if !req.Amount.IsPositive() || req.Amount.GreaterThan(s.limits.Ceiling) {
		return Advance{}, nil, ErrAmountBounds
	}
	if req.WeeksToRepay < 1 || req.WeeksToRepay > s.limits.MaxWeeks {
		return Advance{}, nil, ErrWeeksBounds
	}

	schedule := BuildRepaymentSchedule(req.Amount, req.WeeksToRepay, req.FirstRepaymentDate)
	adv := Advance{
		EmployeeID:         req.EmployeeID,
		Amount:             req.Amount,
		WeeksToRepay:       req.WeeksToRepay,
		WeeklyRepayment:    WeeklyRepayment(req.Amount, req.WeeksToRepay),
		FirstRepaymentDate: schedule[0].WeekStart,
		LastRepaymentDate:  schedule[len(schedule)-1].WeekStart,
		Note:               req.Note,
	}
	return s.store.CreateWithSchedule(ctx, adv, schedule, s.limits.Ceiling)
}

func (s *Service) Get(ctx context.Context, advanceID string) (Advance, []Entry, error) {
	adv, err := s.store.Get(ctx, advanceID)
	if err != nil {
		return Advance{}, nil, err
	}
	entries, err := s.store.Entries(ctx, advanceID)
	if err != nil {
		return Advance{}, nil, err
	}
	return adv, entries, nil
}

func (s *Service) ListForEmployee(ctx context.Context, employeeID string) ([]Advance, error) {
	return s.store.ListForEmployee(ctx, employeeID)
}

func (s *Service) Outstanding(ctx context.Context, employeeID string) (decimal.Decimal, error) {
	return s.store.Outstanding(ctx, employeeID)
}

func (s *Service) DueForWeek(ctx context.Context, employeeID string, weekStart time.Time) ([]Entry, error) {
	return s.store.DueForWeek(ctx, employeeID, weekStart)
}

// Forgive writes off the remaining balance.
func (s *Service) Forgive(ctx context.Context, advanceID string, weekStart time.Time) (Entry, error) {
	adv, err := s.store.Get(ctx, advanceID)
	if err != nil {
		return Entry{}, err
	}
	if adv.Status != StatusActive {
		return Entry{}, ErrNotActive
	}
	entries, err := s.store.Entries(ctx, advanceID)
	if err != nil {
		return Entry{}, err
	}
	remaining := RemainingBalance(entries)
	return s.store.Forgive(ctx, advanceID, remaining, weekStart)
}

// Cancel voids an advance that has collected nothing yet.
func (s *Service) Cancel(ctx context.Context, advanceID string) error {
	adv, err := s.store.Get(ctx, advanceID)
	if err != nil {
		return err
	}
	if adv.Status != StatusActive {
		return ErrNotActive
	}
	settled, err := s.store.SettledRepaymentCount(ctx, advanceID)
	if err != nil {
		return err
	}
	if settled > 0 {
		return ErrAlreadySettled
	}
	return s.store.Cancel(ctx, advanceID)
}
