package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetpay/internal/domain/advance"
)

type Store struct {
	DB       *pgxpool.Pool
	advances *advance.Store
}

func NewStore(db *pgxpool.Pool, advances *advance.Store) *Store {
	return &Store{DB: db, advances: advances}
}

const recordColumns = `
  id, employee_id, week_start, week_end, status, is_locked,
  total_loads, total_miles, gross_revenue, service_fee,
  base_pay, bonus_amount, overtime, reimbursements, other_earnings,
  fuel_deductions, advance_repayments, recurring_fees, escrow_deposits, other_deductions,
  gross_pay, total_deductions, net_pay, escrow_suggestion,
  created_at, updated_at`

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.EmployeeID, &r.WeekStart, &r.WeekEnd, &r.Status, &r.IsLocked,
		&r.TotalLoads, &r.TotalMiles, &r.GrossRevenue, &r.ServiceFee,
		&r.BasePay, &r.BonusAmount, &r.Overtime, &r.Reimbursements, &r.OtherEarnings,
		&r.FuelDeductions, &r.AdvanceRepayments, &r.RecurringFees, &r.EscrowDeposits, &r.OtherDeductions,
		&r.GrossPay, &r.TotalDeductions, &r.NetPay, &r.EscrowSuggestion,
		&r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return r, err
}

// Save inserts a new record or overwrites an existing one, together with its
// load links, in one transaction. An advisory lock on (employee, week)
// serializes concurrent writers so a race surfaces as one winner and one
// conflict instead of two half-written records.
func (s *Store) Save(ctx context.Context, rec Record) (Record, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Record{}, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"SELECT pg_advisory_xact_lock(hashtext('payroll:' || $1 || ':' || $2))",
		rec.EmployeeID, rec.WeekStart.Format("2006-01-02")); err != nil {
		return Record{}, err
	}

	if rec.ID == "" {
		err = tx.QueryRow(ctx, `
      INSERT INTO payroll_records (
        employee_id, week_start, week_end, status, is_locked,
        total_loads, total_miles, gross_revenue, service_fee,
        base_pay, bonus_amount, overtime, reimbursements, other_earnings,
        fuel_deductions, advance_repayments, recurring_fees, escrow_deposits, other_deductions,
        gross_pay, total_deductions, net_pay, escrow_suggestion
      )
      VALUES ($1,$2,$3,$4,false,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
      RETURNING id, created_at, updated_at
    `, rec.EmployeeID, rec.WeekStart, rec.WeekEnd, rec.Status,
			rec.TotalLoads, rec.TotalMiles, rec.GrossRevenue, rec.ServiceFee,
			rec.BasePay, rec.BonusAmount, rec.Overtime, rec.Reimbursements, rec.OtherEarnings,
			rec.FuelDeductions, rec.AdvanceRepayments, rec.RecurringFees, rec.EscrowDeposits, rec.OtherDeductions,
			rec.GrossPay, rec.TotalDeductions, rec.NetPay, rec.EscrowSuggestion).
			Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			// 23505: the unique index on (employee_id, week_start).
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return Record{}, ErrRecordConflict
			}
			return Record{}, err
		}
	} else {
		tag, err := tx.Exec(ctx, `
      UPDATE payroll_records SET
        status = $2, total_loads = $3, total_miles = $4, gross_revenue = $5, service_fee = $6,
        base_pay = $7, bonus_amount = $8, overtime = $9, reimbursements = $10, other_earnings = $11,
        fuel_deductions = $12, advance_repayments = $13, recurring_fees = $14,
        escrow_deposits = $15, other_deductions = $16,
        gross_pay = $17, total_deductions = $18, net_pay = $19, escrow_suggestion = $20,
        updated_at = now()
      WHERE id = $1 AND is_locked = false
    `, rec.ID, rec.Status,
			rec.TotalLoads, rec.TotalMiles, rec.GrossRevenue, rec.ServiceFee,
			rec.BasePay, rec.BonusAmount, rec.Overtime, rec.Reimbursements, rec.OtherEarnings,
			rec.FuelDeductions, rec.AdvanceRepayments, rec.RecurringFees, rec.EscrowDeposits, rec.OtherDeductions,
			rec.GrossPay, rec.TotalDeductions, rec.NetPay, rec.EscrowSuggestion)
		if err != nil {
			return Record{}, err
		}
		if tag.RowsAffected() == 0 {
			return Record{}, ErrRecordLocked
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM payroll_record_loads WHERE record_id = $1", rec.ID); err != nil {
		return Record{}, err
	}
	for _, loadID := range rec.LoadIDs {
		if _, err := tx.Exec(ctx,
			"INSERT INTO payroll_record_loads (record_id, load_id) VALUES ($1, $2)",
			rec.ID, loadID); err != nil {
			return Record{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Store) Get(ctx context.Context, recordID string) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx,
		"SELECT "+recordColumns+" FROM payroll_records WHERE id = $1", recordID))
	if err != nil {
		return Record{}, err
	}
	rec.LoadIDs, err = s.loadIDs(ctx, rec.ID)
	return rec, err
}

func (s *Store) ForWeek(ctx context.Context, employeeID string, weekStart time.Time) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx,
		"SELECT "+recordColumns+" FROM payroll_records WHERE employee_id = $1 AND week_start = $2",
		employeeID, weekStart))
	if err != nil {
		return Record{}, err
	}
	rec.LoadIDs, err = s.loadIDs(ctx, rec.ID)
	return rec, err
}

func (s *Store) loadIDs(ctx context.Context, recordID string) ([]string, error) {
	rows, err := s.DB.Query(ctx,
		"SELECT load_id FROM payroll_record_loads WHERE record_id = $1 ORDER BY load_id", recordID)
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

func (s *Store) ListForEmployee(ctx context.Context, employeeID string, limit, offset int) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM payroll_records
    WHERE employee_id = $1
    ORDER BY week_start DESC
    LIMIT $2 OFFSET $3
  `, employeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *Store) PeriodRecords(ctx context.Context, weekStart time.Time) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM payroll_records
    WHERE week_start = $1
    ORDER BY employee_id
  `, weekStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) SetStatus(ctx context.Context, recordID, status string, locked bool) error {
	tag, err := s.DB.Exec(ctx,
		"UPDATE payroll_records SET status = $2, is_locked = $3, updated_at = now() WHERE id = $1",
		recordID, status, locked)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Process finalizes a record in one transaction: the status flips to
// PROCESSED and locks, the paystub snapshot is written, and the week's due
// advance repayments settle. Either all of it commits or none.
func (s *Store) Process(ctx context.Context, rec Record, stub Paystub) (Paystub, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Paystub{}, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
    UPDATE payroll_records
    SET status = $2, is_locked = true, updated_at = now()
    WHERE id = $1 AND is_locked = false
  `, rec.ID, StatusProcessed)
	if err != nil {
		return Paystub{}, err
	}
	if tag.RowsAffected() == 0 {
		return Paystub{}, ErrRecordLocked
	}

	err = tx.QueryRow(ctx, `
    INSERT INTO paystubs (record_id, employee_id, employee_name, week_start, week_end,
                          gross_pay, total_deductions, net_pay, pdf_path)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''))
    RETURNING id, generated_at
  `, stub.RecordID, stub.EmployeeID, stub.EmployeeName, stub.WeekStart, stub.WeekEnd,
		stub.GrossPay, stub.TotalDeductions, stub.NetPay, stub.PDFPath).
		Scan(&stub.ID, &stub.GeneratedAt)
	if err != nil {
		return Paystub{}, err
	}

	if s.advances != nil {
		if err := s.advances.SettleForWeek(ctx, tx, rec.EmployeeID, rec.WeekStart); err != nil {
			return Paystub{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Paystub{}, err
	}
	return stub, nil
}

func (s *Store) PaystubFor(ctx context.Context, recordID string) (Paystub, error) {
	var stub Paystub
	err := s.DB.QueryRow(ctx, `
    SELECT id, record_id, employee_id, employee_name, week_start, week_end,
           gross_pay, total_deductions, net_pay, COALESCE(pdf_path, ''), generated_at
    FROM paystubs
    WHERE record_id = $1
    ORDER BY generated_at DESC
    LIMIT 1
  `, recordID).Scan(&stub.ID, &stub.RecordID, &stub.EmployeeID, &stub.EmployeeName,
		&stub.WeekStart, &stub.WeekEnd, &stub.GrossPay, &stub.TotalDeductions, &stub.NetPay,
		&stub.PDFPath, &stub.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Paystub{}, ErrPaystubNotFound
	}
	if err != nil {
		return Paystub{}, err
	}
	return stub, nil
}

func (s *Store) SetPaystubPath(ctx context.Context, paystubID, path string) error {
	_, err := s.DB.Exec(ctx, "UPDATE paystubs SET pdf_path = $2 WHERE id = $1", paystubID, path)
	return err
}

// Delete removes a record along with its paystubs and load links. The status
// guard lives in the service; this cascade is still guarded against locked
// rows as a backstop.
func (s *Store) Delete(ctx context.Context, recordID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM payroll_record_loads WHERE record_id = $1", recordID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM paystubs WHERE record_id = $1", recordID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx,
		"DELETE FROM payroll_records WHERE id = $1 AND is_locked = false", recordID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordLocked
	}
	return tx.Commit(ctx)
}
