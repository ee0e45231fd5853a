package adjustment

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

const adjustmentColumns = `
    id, employee_id, category, type, amount, effective_date, week_start,
    COALESCE(load_number, ''), status, COALESCE(reversal_of::text, ''), created_at`

func scanAdjustment(row pgx.Row) (Adjustment, error) {
	var adj Adjustment
	err := row.Scan(&adj.ID, &adj.EmployeeID, &adj.Category, &adj.Type, &adj.Amount,
		&adj.EffectiveDate, &adj.WeekStart, &adj.LoadNumber, &adj.Status, &adj.ReversalOf, &adj.CreatedAt)
	return adj, err
}

func (s *Store) Get(ctx context.Context, id string) (Adjustment, error) {
	adj, err := scanAdjustment(s.DB.QueryRow(ctx, `
    SELECT`+adjustmentColumns+`
    FROM adjustments
    WHERE id = $1
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Adjustment{}, ErrNotFound
	}
	if err != nil {
		return Adjustment{}, err
	}
	return adj, nil
}

func (s *Store) Create(ctx context.Context, adj Adjustment) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO adjustments (employee_id, category, type, amount, effective_date, week_start, load_number, status)
    VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),$8)
    RETURNING id
  `, adj.EmployeeID, adj.Category, adj.Type, adj.Amount, adj.EffectiveDate, adj.WeekStart,
		adj.LoadNumber, StatusActive).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Reverse writes the counter-entry and flags the original in one transaction.
// The original row's amount and category never change.
func (s *Store) Reverse(ctx context.Context, original Adjustment, weekStart, effective time.Time) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO adjustments (employee_id, category, type, amount, effective_date, week_start, load_number, status, reversal_of)
    VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),$8,$9)
    RETURNING id
  `, original.EmployeeID, original.Category.Opposite(), original.Type, original.Amount,
		effective, weekStart, original.LoadNumber, StatusActive, original.ID).Scan(&id); err != nil {
		return "", err
	}

	if _, err := tx.Exec(ctx, "UPDATE adjustments SET status = $1 WHERE id = $2", StatusReversed, original.ID); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// ForWeek returns every adjustment effective in the week. Reversed rows stay
// included: each leg of a reversal pair counts in its own week, which is what
// keeps already-paid periods stable.
func (s *Store) ForWeek(ctx context.Context, employeeID string, weekStart time.Time) ([]Adjustment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+adjustmentColumns+`
    FROM adjustments
    WHERE employee_id = $1 AND week_start = $2
    ORDER BY created_at
  `, employeeID, weekStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Adjustment
	for rows.Next() {
		adj, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, adj)
	}
	return out, rows.Err()
}

func (s *Store) ListForEmployee(ctx context.Context, employeeID string, limit, offset int) ([]Adjustment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+adjustmentColumns+`
    FROM adjustments
    WHERE employee_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, employeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Adjustment
	for rows.Next() {
		adj, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, adj)
	}
	return out, rows.Err()
}
