package driver

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	var emp Employee
	err := s.DB.QueryRow(ctx, `
    SELECT id, first_name, last_name, email, status, created_at
    FROM employees
    WHERE id = $1
  `, employeeID).Scan(&emp.ID, &emp.FirstName, &emp.LastName, &emp.Email, &emp.Status, &emp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Store) ListActiveEmployeeIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id FROM employees WHERE status = 'active' ORDER BY last_name, first_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ListConfigs(ctx context.Context, employeeID string) ([]PaymentConfig, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, method, driver_percent, company_percent, service_fee_percent,
           pay_per_mile_rate, effective_date, end_date, created_at
    FROM payment_configs
    WHERE employee_id = $1
    ORDER BY effective_date
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []PaymentConfig
	for rows.Next() {
		var cfg PaymentConfig
		if err := rows.Scan(&cfg.ID, &cfg.EmployeeID, &cfg.Method, &cfg.DriverPercent, &cfg.CompanyPercent,
			&cfg.ServiceFeePercent, &cfg.PayPerMileRate, &cfg.EffectiveDate, &cfg.EndDate, &cfg.CreatedAt); err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// ConfigFor returns the config whose interval contains ref.
func (s *Store) ConfigFor(ctx context.Context, employeeID string, ref time.Time) (PaymentConfig, error) {
	var cfg PaymentConfig
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, method, driver_percent, company_percent, service_fee_percent,
           pay_per_mile_rate, effective_date, end_date, created_at
    FROM payment_configs
    WHERE employee_id = $1
      AND effective_date <= $2
      AND (end_date IS NULL OR end_date > $2)
    ORDER BY effective_date DESC
    LIMIT 1
  `, employeeID, ref).Scan(&cfg.ID, &cfg.EmployeeID, &cfg.Method, &cfg.DriverPercent, &cfg.CompanyPercent,
		&cfg.ServiceFeePercent, &cfg.PayPerMileRate, &cfg.EffectiveDate, &cfg.EndDate, &cfg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PaymentConfig{}, ErrNoPaymentConfig
	}
	if err != nil {
		return PaymentConfig{}, err
	}
	return cfg, nil
}

// ChangePayTerms closes the open config at the new effective date and opens a
// new one, inside a single transaction so the one-open-config invariant holds.
func (s *Store) ChangePayTerms(ctx context.Context, cfg PaymentConfig) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
    UPDATE payment_configs
    SET end_date = $1
    WHERE employee_id = $2 AND end_date IS NULL
  `, cfg.EffectiveDate, cfg.EmployeeID); err != nil {
		return "", err
	}

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO payment_configs
      (employee_id, method, driver_percent, company_percent, service_fee_percent, pay_per_mile_rate, effective_date)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, cfg.EmployeeID, cfg.Method, cfg.DriverPercent, cfg.CompanyPercent, cfg.ServiceFeePercent,
		cfg.PayPerMileRate, cfg.EffectiveDate).Scan(&id); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}
