package driver

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

func (s *Service) Employee(ctx context.Context, employeeID string) (Employee, error) {
	return s.store.GetEmployee(ctx, employeeID)
}

func (s *Service) ActiveEmployeeIDs(ctx context.Context) ([]string, error) {
	return s.store.ListActiveEmployeeIDs(ctx)
}

func (s *Service) Configs(ctx context.Context, employeeID string) ([]PaymentConfig, error) {
	return s.store.ListConfigs(ctx, employeeID)
}

// ConfigForPeriod picks the authoritative config for a pay period. The
// period's start date is the reference date.
func (s *Service) ConfigForPeriod(ctx context.Context, employeeID string, weekStart time.Time) (PaymentConfig, error) {
	return s.store.ConfigFor(ctx, employeeID, weekStart)
}

func (s *Service) ChangePayTerms(ctx context.Context, cfg PaymentConfig) (string, error) {
	if err := validateConfig(cfg); err != nil {
		return "", err
	}
	if _, err := s.store.GetEmployee(ctx, cfg.EmployeeID); err != nil {
		return "", err
	}
	return s.store.ChangePayTerms(ctx, cfg)
}

func validateConfig(cfg PaymentConfig) error {
	if !cfg.Method.Valid() {
		return ErrInvalidMethod
	}
	hundred := decimal.NewFromInt(100)
	for _, pct := range []decimal.Decimal{cfg.DriverPercent, cfg.CompanyPercent, cfg.ServiceFeePercent} {
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return ErrPercentOutOfRange
		}
	}
	if cfg.PayPerMileRate.IsNegative() {
		return ErrPercentOutOfRange
	}
	return nil
}
