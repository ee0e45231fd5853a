package payroll

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fleetpay/internal/domain/adjustment"
)

type EmployeeLister interface {
	ActiveEmployeeIDs(ctx context.Context) ([]string, error)
}

// Calculator is what the orchestrator drives per employee. Satisfied by
// *Service.
type Calculator interface {
	Calculate(ctx context.Context, employeeID string, weekStart time.Time, recalc bool) (Record, error)
}

// BatchRow is one employee's outcome. Exactly one of Record and Error is set.
type BatchRow struct {
	EmployeeID string  `json:"employeeId"`
	Record     *Record `json:"record,omitempty"`
	Error      string  `json:"error,omitempty"`
}

type Totals struct {
	Employees       int             `json:"employees"`
	Succeeded       int             `json:"succeeded"`
	Failed          int             `json:"failed"`
	TotalLoads      int             `json:"totalLoads"`
	GrossPay        decimal.Decimal `json:"grossPay"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	Reimbursements  decimal.Decimal `json:"reimbursements"`
	NetPay          decimal.Decimal `json:"netPay"`
}

func newTotals() Totals {
	return Totals{
		GrossPay:        decimal.Zero,
		TotalDeductions: decimal.Zero,
		Reimbursements:  decimal.Zero,
		NetPay:          decimal.Zero,
	}
}

func (t *Totals) add(rec *Record) {
	t.Employees++
	t.Succeeded++
	t.TotalLoads += rec.TotalLoads
	t.GrossPay = t.GrossPay.Add(rec.GrossPay)
	t.TotalDeductions = t.TotalDeductions.Add(rec.TotalDeductions)
	t.Reimbursements = t.Reimbursements.Add(rec.Reimbursements)
	t.NetPay = t.NetPay.Add(rec.NetPay)
}

type BatchResult struct {
	WeekStart time.Time  `json:"weekStartDate"`
	WeekEnd   time.Time  `json:"weekEndDate"`
	Rows      []BatchRow `json:"rows"`
	Totals    Totals     `json:"totals"`
}

// Orchestrator fans one pay week out over many employees. Employees are
// independent, so they run on a bounded worker pool; one bad employee yields
// an error row, never a failed batch. The per-record advisory lock in the
// store keeps two computations for the same employee and week from racing.
type Orchestrator struct {
	calc      Calculator
	employees EmployeeLister
	workers   int
}

func NewOrchestrator(calc Calculator, employees EmployeeLister, workers int) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{calc: calc, employees: employees, workers: workers}
}

// Run computes the week for the given employees, or every active employee
// when none are named. Rows come back in input order.
func (o *Orchestrator) Run(ctx context.Context, weekStart time.Time, employeeIDs []string) (BatchResult, error) {
	weekStart = adjustment.WeekStartOf(weekStart)
	result := BatchResult{
		WeekStart: weekStart,
		WeekEnd:   weekStart.AddDate(0, 0, 6),
		Totals:    newTotals(),
	}

	if len(employeeIDs) == 0 {
		ids, err := o.employees.ActiveEmployeeIDs(ctx)
		if err != nil {
			return BatchResult{}, err
		}
		employeeIDs = ids
	}
	if len(employeeIDs) == 0 {
		return result, nil
	}

	rows := make([]BatchRow, len(employeeIDs))
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := o.workers
	if workers > len(employeeIDs) {
		workers = len(employeeIDs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rows[i] = o.runOne(ctx, employeeIDs[i], weekStart)
			}
		}()
	}
	for i := range employeeIDs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i := range rows {
		if rows[i].Record != nil {
			result.Totals.add(rows[i].Record)
		} else {
			result.Totals.Employees++
			result.Totals.Failed++
		}
	}
	result.Rows = rows
	return result, nil
}

func (o *Orchestrator) runOne(ctx context.Context, employeeID string, weekStart time.Time) BatchRow {
	row := BatchRow{EmployeeID: employeeID}
	rec, err := o.calc.Calculate(ctx, employeeID, weekStart, true)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	row.Record = &rec
	return row
}
