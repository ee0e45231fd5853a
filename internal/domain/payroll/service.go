package payroll

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"fleetpay/internal/domain/adjustment"
	"fleetpay/internal/domain/driver"
	"fleetpay/internal/domain/escrow"
)

// RecordStore is the persistence surface the lifecycle needs. *Store
// implements it against Postgres; tests use an in-memory fake.
type RecordStore interface {
	Save(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, recordID string) (Record, error)
	ForWeek(ctx context.Context, employeeID string, weekStart time.Time) (Record, error)
	ListForEmployee(ctx context.Context, employeeID string, limit, offset int) ([]Record, error)
	PeriodRecords(ctx context.Context, weekStart time.Time) ([]Record, error)
	SetStatus(ctx context.Context, recordID, status string, locked bool) error
	Process(ctx context.Context, rec Record, stub Paystub) (Paystub, error)
	PaystubFor(ctx context.Context, recordID string) (Paystub, error)
	SetPaystubPath(ctx context.Context, paystubID, path string) error
	Delete(ctx context.Context, recordID string) error
}

type EmployeeSource interface {
	Employee(ctx context.Context, employeeID string) (driver.Employee, error)
}

// EscrowPoster posts the manual-override deposit when a record is processed,
// so the escrow ledger matches what the record deducted.
type EscrowPoster interface {
	DepositsForWeek(ctx context.Context, employeeID string, weekStart time.Time) (decimal.Decimal, error)
	Post(ctx context.Context, employeeID string, txType escrow.TransactionType, amount decimal.Decimal, weekStart time.Time, note string) (escrow.Transaction, escrow.Account, error)
}

// Service owns the record lifecycle: DRAFT -> CALCULATED -> REVIEWED ->
// PROCESSED -> PAID. Entering PROCESSED locks the record; locked records
// refuse recalculation and deletion until explicitly unlocked.
type Service struct {
	store      RecordStore
	aggregator *Aggregator
	employees  EmployeeSource
	escrow     EscrowPoster
	renderer   *PaystubRenderer
}

func NewService(store RecordStore, aggregator *Aggregator, employees EmployeeSource,
	escrowPoster EscrowPoster, renderer *PaystubRenderer) *Service {
	return &Service{
		store:      store,
		aggregator: aggregator,
		employees:  employees,
		escrow:     escrowPoster,
		renderer:   renderer,
	}
}

// Calculate computes and persists the record for one employee and week. A
// record that already exists is a conflict unless recalc is set; a locked
// record never recalculates. Recalculation with unchanged inputs is
// idempotent.
func (s *Service) Calculate(ctx context.Context, employeeID string, weekStart time.Time, recalc bool) (Record, error) {
	weekStart = adjustment.WeekStartOf(weekStart)
	weekEnd := weekStart.AddDate(0, 0, 6)

	existing, err := s.store.ForWeek(ctx, employeeID, weekStart)
	switch {
	case err == nil:
		if existing.IsLocked {
			return Record{}, ErrRecordLocked
		}
		if !recalc {
			return Record{}, ErrRecordConflict
		}
	case !errors.Is(err, ErrRecordNotFound):
		return Record{}, err
	}

	rec, err := s.aggregator.Compute(ctx, employeeID, weekStart, weekEnd)
	if err != nil {
		return Record{}, err
	}
	rec.ID = existing.ID
	rec.CreatedAt = existing.CreatedAt
	return s.store.Save(ctx, rec)
}

func (s *Service) Get(ctx context.Context, recordID string) (Record, error) {
	return s.store.Get(ctx, recordID)
}

func (s *Service) ForWeek(ctx context.Context, employeeID string, weekStart time.Time) (Record, error) {
	return s.store.ForWeek(ctx, employeeID, adjustment.WeekStartOf(weekStart))
}

func (s *Service) ListForEmployee(ctx context.Context, employeeID string, limit, offset int) ([]Record, error) {
	return s.store.ListForEmployee(ctx, employeeID, limit, offset)
}

// Review approves a calculated record for processing.
func (s *Service) Review(ctx context.Context, recordID string) (Record, error) {
	rec, err := s.store.Get(ctx, recordID)
	if err != nil {
		return Record{}, err
	}
	if rec.Status != StatusCalculated {
		return Record{}, ErrNotCalculated
	}
	if err := s.store.SetStatus(ctx, rec.ID, StatusReviewed, false); err != nil {
		return Record{}, err
	}
	rec.Status = StatusReviewed
	return rec, nil
}

// Process finalizes a record: it locks, settles the week's advance
// repayments, posts any outstanding manual escrow deposit, and issues the
// paystub snapshot.
func (s *Service) Process(ctx context.Context, recordID string) (Paystub, error) {
	rec, err := s.store.Get(ctx, recordID)
	if err != nil {
		return Paystub{}, err
	}
	if rec.IsLocked {
		return Paystub{}, ErrRecordLocked
	}
	if rec.Status != StatusCalculated && rec.Status != StatusReviewed {
		return Paystub{}, ErrNotCalculated
	}

	if err := s.postEscrowShortfall(ctx, rec); err != nil {
		return Paystub{}, err
	}

	employee, err := s.employees.Employee(ctx, rec.EmployeeID)
	if err != nil {
		return Paystub{}, err
	}
	stub := Paystub{
		RecordID:        rec.ID,
		EmployeeID:      rec.EmployeeID,
		EmployeeName:    employee.FirstName + " " + employee.LastName,
		WeekStart:       rec.WeekStart,
		WeekEnd:         rec.WeekEnd,
		GrossPay:        rec.GrossPay,
		TotalDeductions: rec.TotalDeductions,
		NetPay:          rec.NetPay,
	}
	if s.renderer != nil {
		path, err := s.renderer.Render(rec, stub)
		if err != nil {
			slog.Warn("paystub pdf render failed", "recordId", rec.ID, "err", err)
		} else {
			stub.PDFPath = path
		}
	}
	return s.store.Process(ctx, rec, stub)
}

// postEscrowShortfall posts the part of the record's escrow deduction that is
// not yet on the ledger. Only manual-override weeks have a shortfall; posted
// deposits were already counted as-is.
func (s *Service) postEscrowShortfall(ctx context.Context, rec Record) error {
	if s.escrow == nil || !rec.EscrowDeposits.IsPositive() {
		return nil
	}
	posted, err := s.escrow.DepositsForWeek(ctx, rec.EmployeeID, rec.WeekStart)
	if err != nil {
		return err
	}
	shortfall := rec.EscrowDeposits.Sub(posted)
	if !shortfall.IsPositive() {
		return nil
	}
	_, _, err = s.escrow.Post(ctx, rec.EmployeeID, escrow.TypeDeposit, shortfall,
		rec.WeekStart, "weekly payroll deposit")
	return err
}

// Pay marks a processed record as disbursed. The record stays locked.
func (s *Service) Pay(ctx context.Context, recordID string) (Record, error) {
	rec, err := s.store.Get(ctx, recordID)
	if err != nil {
		return Record{}, err
	}
	if rec.Status != StatusProcessed {
		return Record{}, ErrNotProcessed
	}
	if err := s.store.SetStatus(ctx, rec.ID, StatusPaid, true); err != nil {
		return Record{}, err
	}
	rec.Status = StatusPaid
	return rec, nil
}

// Unlock reopens a locked record for recalculation. The issued paystub is
// kept untouched until the record is processed again.
func (s *Service) Unlock(ctx context.Context, recordID string) (Record, error) {
	rec, err := s.store.Get(ctx, recordID)
	if err != nil {
		return Record{}, err
	}
	if !rec.IsLocked {
		return Record{}, ErrNotLocked
	}
	if err := s.store.SetStatus(ctx, rec.ID, StatusCalculated, false); err != nil {
		return Record{}, err
	}
	rec.Status = StatusCalculated
	rec.IsLocked = false
	return rec, nil
}

// Delete removes a draft or calculated record and cascades to its paystubs
// and load links. Processed and paid records are never deleted.
func (s *Service) Delete(ctx context.Context, recordID string) error {
	rec, err := s.store.Get(ctx, recordID)
	if err != nil {
		return err
	}
	if !rec.Mutable() {
		return ErrNotDeletable
	}
	return s.store.Delete(ctx, rec.ID)
}

func (s *Service) Paystub(ctx context.Context, recordID string) (Paystub, error) {
	return s.store.PaystubFor(ctx, recordID)
}

// RegeneratePaystub re-renders the PDF from the stored snapshot. The snapshot
// amounts never change here; only the file is rebuilt.
func (s *Service) RegeneratePaystub(ctx context.Context, recordID string) (Paystub, error) {
	stub, err := s.store.PaystubFor(ctx, recordID)
	if err != nil {
		return Paystub{}, err
	}
	if s.renderer == nil {
		return stub, nil
	}
	rec, err := s.store.Get(ctx, recordID)
	if err != nil {
		return Paystub{}, err
	}
	path, err := s.renderer.Render(rec, stub)
	if err != nil {
		return Paystub{}, err
	}
	if err := s.store.SetPaystubPath(ctx, stub.ID, path); err != nil {
		return Paystub{}, err
	}
	stub.PDFPath = path
	return stub, nil
}

// PeriodRecords lists every record for a pay week, ordered by employee.
func (s *Service) PeriodRecords(ctx context.Context, weekStart time.Time) ([]Record, error) {
	return s.store.PeriodRecords(ctx, adjustment.WeekStartOf(weekStart))
}

// PeriodSummary totals a week's records for the back-office dashboard.
func (s *Service) PeriodSummary(ctx context.Context, weekStart time.Time) (Totals, error) {
	records, err := s.store.PeriodRecords(ctx, adjustment.WeekStartOf(weekStart))
	if err != nil {
		return Totals{}, err
	}
	totals := newTotals()
	for i := range records {
		totals.add(&records[i])
	}
	return totals, nil
}
