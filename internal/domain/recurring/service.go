package recurring

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, d Deduction) (string, error) {
	if !d.Amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	switch d.Frequency {
	case "", FrequencyWeekly:
		d.Frequency = FrequencyWeekly
	case FrequencyBiweekly:
	default:
		return "", ErrUnknownFrequency
	}
	return s.store.Create(ctx, d)
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.store.Deactivate(ctx, id)
}

func (s *Service) DueForWeek(ctx context.Context, driverID string, weekStart time.Time) ([]Deduction, error) {
	return s.store.DueForWeek(ctx, driverID, weekStart)
}

func (s *Service) TotalForWeek(ctx context.Context, driverID string, weekStart time.Time) (decimal.Decimal, error) {
	return s.store.TotalForWeek(ctx, driverID, weekStart)
}
