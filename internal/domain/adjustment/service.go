package adjustment

import (
	"context"
	"time"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, adj Adjustment) (string, error) {
	if !adj.Category.Valid() {
		return "", ErrInvalidCategory
	}
	if adj.Amount.IsNegative() {
		return "", ErrNegativeAmount
	}
	if adj.WeekStart.IsZero() {
		adj.WeekStart = WeekStartOf(adj.EffectiveDate)
	}
	return s.store.Create(ctx, adj)
}

// Reverse nets out an adjustment by writing an opposite-category entry
// effective in the given week.
func (s *Service) Reverse(ctx context.Context, adjustmentID string, effective time.Time) (string, error) {
	original, err := s.store.Get(ctx, adjustmentID)
	if err != nil {
		return "", err
	}
	if original.Status == StatusReversed {
		return "", ErrAlreadyReversed
	}
	return s.store.Reverse(ctx, original, WeekStartOf(effective), effective)
}

func (s *Service) ForWeek(ctx context.Context, employeeID string, weekStart time.Time) ([]Adjustment, error) {
	return s.store.ForWeek(ctx, employeeID, weekStart)
}

func (s *Service) ListForEmployee(ctx context.Context, employeeID string, limit, offset int) ([]Adjustment, error) {
	return s.store.ListForEmployee(ctx, employeeID, limit, offset)
}

// WeekStartOf normalizes a date to the Monday of its pay week.
func WeekStartOf(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
