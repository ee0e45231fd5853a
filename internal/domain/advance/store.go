package advance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// CreateWithSchedule writes the header, the ADVANCE entry and every scheduled
// REPAYMENT entry in one transaction. An advisory lock on the employee
// serializes concurrent creations so the ceiling check cannot race.
func (s *Store) CreateWithSchedule(ctx context.Context, adv Advance, schedule []ScheduledRepayment, ceiling decimal.Decimal) (Advance, []Entry, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Advance{}, nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext('advance:' || $1::text))", adv.EmployeeID); err != nil {
		return Advance{}, nil, err
	}

	outstanding, err := outstandingTx(ctx, tx, adv.EmployeeID)
	if err != nil {
		return Advance{}, nil, err
	}
	if outstanding.Add(adv.Amount).GreaterThan(ceiling) {
		return Advance{}, nil, &CeilingError{
			EmployeeID:  adv.EmployeeID,
			Outstanding: outstanding,
			Requested:   adv.Amount,
			Ceiling:     ceiling,
		}
	}

	err = tx.QueryRow(ctx, `
    INSERT INTO advances (employee_id, amount, weeks_to_repay, weekly_repayment, first_repayment_date, last_repayment_date, status, note)
    VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8,''))
    RETURNING id, created_at
  `, adv.EmployeeID, adv.Amount, adv.WeeksToRepay, adv.WeeklyRepayment,
		adv.FirstRepaymentDate, adv.LastRepaymentDate, StatusActive, adv.Note).Scan(&adv.ID, &adv.CreatedAt)
	if err != nil {
		return Advance{}, nil, err
	}
	adv.Status = StatusActive

	entries := make([]Entry, 0, len(schedule)+1)
	advanceEntry, err := insertEntry(ctx, tx, adv.ID, KindAdvance, adv.Amount, adv.FirstRepaymentDate)
	if err != nil {
		return Advance{}, nil, err
	}
	entries = append(entries, advanceEntry)

	for _, installment := range schedule {
		entry, err := insertEntry(ctx, tx, adv.ID, KindRepayment, installment.Amount.Neg(), installment.WeekStart)
		if err != nil {
			return Advance{}, nil, err
		}
		entries = append(entries, entry)
	}

	if err := tx.Commit(ctx); err != nil {
		return Advance{}, nil, err
	}
	return adv, entries, nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, advanceID string, kind EntryKind, amount decimal.Decimal, weekStart time.Time) (Entry, error) {
	entry := Entry{AdvanceID: advanceID, Kind: kind, Amount: amount, WeekStart: weekStart}
	err := tx.QueryRow(ctx, `
    INSERT INTO advance_entries (advance_id, kind, amount, week_start)
    VALUES ($1,$2,$3,$4)
    RETURNING id, created_at
  `, advanceID, kind, amount, weekStart).Scan(&entry.ID, &entry.CreatedAt)
	return entry, err
}

func (s *Store) Get(ctx context.Context, advanceID string) (Advance, error) {
	var adv Advance
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, amount, weeks_to_repay, weekly_repayment,
           first_repayment_date, last_repayment_date, status, COALESCE(note, ''), created_at
    FROM advances
    WHERE id = $1
  `, advanceID).Scan(&adv.ID, &adv.EmployeeID, &adv.Amount, &adv.WeeksToRepay, &adv.WeeklyRepayment,
		&adv.FirstRepaymentDate, &adv.LastRepaymentDate, &adv.Status, &adv.Note, &adv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Advance{}, ErrNotFound
	}
	if err != nil {
		return Advance{}, err
	}
	return adv, nil
}

func (s *Store) ListForEmployee(ctx context.Context, employeeID string) ([]Advance, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, amount, weeks_to_repay, weekly_repayment,
           first_repayment_date, last_repayment_date, status, COALESCE(note, ''), created_at
    FROM advances
    WHERE employee_id = $1
    ORDER BY created_at DESC
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Advance
	for rows.Next() {
		var adv Advance
		if err := rows.Scan(&adv.ID, &adv.EmployeeID, &adv.Amount, &adv.WeeksToRepay, &adv.WeeklyRepayment,
			&adv.FirstRepaymentDate, &adv.LastRepaymentDate, &adv.Status, &adv.Note, &adv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, adv)
	}
	return out, rows.Err()
}

func (s *Store) Entries(ctx context.Context, advanceID string) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, advance_id, kind, amount, week_start, settled_at, created_at
    FROM advance_entries
    WHERE advance_id = $1
    ORDER BY week_start, created_at
  `, advanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.AdvanceID, &e.Kind, &e.Amount, &e.WeekStart, &e.SettledAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DueForWeek returns unsettled repayment entries on active advances whose
// week matches the period start.
func (s *Store) DueForWeek(ctx context.Context, employeeID string, weekStart time.Time) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.advance_id, e.kind, e.amount, e.week_start, e.settled_at, e.created_at
    FROM advance_entries e
    JOIN advances a ON e.advance_id = a.id
    WHERE a.employee_id = $1
      AND a.status = $2
      AND e.kind = $3
      AND e.week_start = $4
      AND e.settled_at IS NULL
    ORDER BY e.created_at
  `, employeeID, StatusActive, KindRepayment, weekStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.AdvanceID, &e.Kind, &e.Amount, &e.WeekStart, &e.SettledAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SettleForWeek marks an employee's due repayments settled and completes any
// advance whose balance reaches zero. Runs inside the caller's transaction so
// payroll processing stays atomic.
func (s *Store) SettleForWeek(ctx context.Context, tx pgx.Tx, employeeID string, weekStart time.Time) error {
	rows, err := tx.Query(ctx, `
    UPDATE advance_entries e
    SET settled_at = now()
    FROM advances a
    WHERE e.advance_id = a.id
      AND a.employee_id = $1
      AND a.status = $2
      AND e.kind = $3
      AND e.week_start = $4
      AND e.settled_at IS NULL
    RETURNING e.advance_id
  `, employeeID, StatusActive, KindRepayment, weekStart)
	if err != nil {
		return err
	}
	touched := map[string]struct{}{}
	for rows.Next() {
		var advanceID string
		if err := rows.Scan(&advanceID); err != nil {
			rows.Close()
			return err
		}
		touched[advanceID] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for advanceID := range touched {
		if err := completeIfRepaid(ctx, tx, advanceID); err != nil {
			return err
		}
	}
	return nil
}

func completeIfRepaid(ctx context.Context, tx pgx.Tx, advanceID string) error {
	var remaining decimal.Decimal
	err := tx.QueryRow(ctx, `
    SELECT COALESCE(SUM(CASE
      WHEN kind = 'REPAYMENT' AND settled_at IS NULL THEN 0
      ELSE amount
    END), 0)
    FROM advance_entries
    WHERE advance_id = $1
  `, advanceID).Scan(&remaining)
	if err != nil {
		return err
	}
	if remaining.LessThanOrEqual(decimal.Zero) {
		_, err = tx.Exec(ctx, "UPDATE advances SET status = $1 WHERE id = $2 AND status = $3",
			StatusCompleted, advanceID, StatusActive)
	}
	return err
}

// Forgive writes a FORGIVENESS entry for the remaining balance and closes the
// advance, in one transaction.
func (s *Store) Forgive(ctx context.Context, advanceID string, remaining decimal.Decimal, weekStart time.Time) (Entry, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback(ctx)

	entry, err := insertEntry(ctx, tx, advanceID, KindForgiveness, remaining.Neg(), weekStart)
	if err != nil {
		return Entry{}, err
	}
	if _, err := tx.Exec(ctx, "UPDATE advances SET status = $1 WHERE id = $2", StatusForgiven, advanceID); err != nil {
		return Entry{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (s *Store) Cancel(ctx context.Context, advanceID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE advances SET status = $1 WHERE id = $2", StatusCancelled, advanceID)
	return err
}

func (s *Store) SettledRepaymentCount(ctx context.Context, advanceID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM advance_entries
    WHERE advance_id = $1 AND kind = $2 AND settled_at IS NOT NULL
  `, advanceID, KindRepayment).Scan(&count)
	return count, err
}

// Outstanding sums remaining balances across an employee's active advances.
func (s *Store) Outstanding(ctx context.Context, employeeID string) (decimal.Decimal, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx)
	outstanding, err := outstandingTx(ctx, tx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	return outstanding, tx.Commit(ctx)
}

func outstandingTx(ctx context.Context, tx pgx.Tx, employeeID string) (decimal.Decimal, error) {
	var outstanding decimal.Decimal
	err := tx.QueryRow(ctx, `
    SELECT COALESCE(SUM(CASE
      WHEN e.kind = 'REPAYMENT' AND e.settled_at IS NULL THEN 0
      ELSE e.amount
    END), 0)
    FROM advance_entries e
    JOIN advances a ON e.advance_id = a.id
    WHERE a.employee_id = $1 AND a.status = $2
  `, employeeID, StatusActive).Scan(&outstanding)
	if err != nil {
		return decimal.Zero, err
	}
	return outstanding, nil
}
