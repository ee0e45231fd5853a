package recurring

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrDuplicate        = errors.New("active recurring deduction already exists for driver, type and week")
	ErrInvalidAmount    = errors.New("recurring deduction amount must be positive")
	ErrUnknownFrequency = errors.New("unknown recurring frequency")
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, d Deduction) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO recurring_deductions (driver_id, recurring_type, amount, week_start, frequency, is_active)
    VALUES ($1,$2,$3,$4,$5,true)
    RETURNING id
  `, d.DriverID, d.Type, d.Amount, d.WeekStart, d.Frequency).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: the partial unique index on (driver_id, recurring_type, week_start).
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrDuplicate
		}
		return "", err
	}
	return id, nil
}

func (s *Store) Deactivate(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "UPDATE recurring_deductions SET is_active = false WHERE id = $1", id)
	return err
}

func (s *Store) DueForWeek(ctx context.Context, driverID string, weekStart time.Time) ([]Deduction, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, driver_id, recurring_type, amount, week_start, frequency, is_active, created_at
    FROM recurring_deductions
    WHERE driver_id = $1 AND week_start = $2 AND is_active = true
    ORDER BY recurring_type
  `, driverID, weekStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Deduction
	for rows.Next() {
		var d Deduction
		if err := rows.Scan(&d.ID, &d.DriverID, &d.Type, &d.Amount, &d.WeekStart, &d.Frequency, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TotalForWeek sums the active deductions due in a week.
func (s *Store) TotalForWeek(ctx context.Context, driverID string, weekStart time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(amount), 0)
    FROM recurring_deductions
    WHERE driver_id = $1 AND week_start = $2 AND is_active = true
  `, driverID, weekStart).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
