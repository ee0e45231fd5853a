package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"fleetpay/internal/domain/adjustment"
	"fleetpay/internal/domain/advance"
	"fleetpay/internal/domain/driver"
	"fleetpay/internal/domain/escrow"
	"fleetpay/internal/domain/load"
)

// Sources are the ledgers the aggregator reads. Satisfied by the concrete
// domain services; tests substitute fakes.
type ConfigSource interface {
	ConfigForPeriod(ctx context.Context, employeeID string, weekStart time.Time) (driver.PaymentConfig, error)
}

type LoadSource interface {
	DeliveredInRange(ctx context.Context, driverID string, start, end time.Time) ([]load.Load, error)
	FuelInRange(ctx context.Context, driverID string, start, end time.Time) ([]load.FuelTransaction, error)
}

type RecurringSource interface {
	TotalForWeek(ctx context.Context, driverID string, weekStart time.Time) (decimal.Decimal, error)
}

type AdvanceSource interface {
	DueForWeek(ctx context.Context, employeeID string, weekStart time.Time) ([]advance.Entry, error)
}

type AdjustmentSource interface {
	ForWeek(ctx context.Context, employeeID string, weekStart time.Time) ([]adjustment.Adjustment, error)
}

type EscrowSource interface {
	Account(ctx context.Context, employeeID string) (escrow.Account, error)
	DepositsForWeek(ctx context.Context, employeeID string, weekStart time.Time) (decimal.Decimal, error)
	Suggestion(ctx context.Context, employeeID string, potentialNetBeforeEscrow decimal.Decimal) (decimal.Decimal, bool, error)
}

// Aggregator sums one employee's loads and ledgers for a week into an unsaved
// Record. It reads everything and writes nothing.
type Aggregator struct {
	configs     ConfigSource
	loads       LoadSource
	recurring   RecurringSource
	advances    AdvanceSource
	adjustments AdjustmentSource
	escrow      EscrowSource
}

func NewAggregator(configs ConfigSource, loads LoadSource, recurring RecurringSource,
	advances AdvanceSource, adjustments AdjustmentSource, escrowSource EscrowSource) *Aggregator {
	return &Aggregator{
		configs:     configs,
		loads:       loads,
		recurring:   recurring,
		advances:    advances,
		adjustments: adjustments,
		escrow:      escrowSource,
	}
}

// Compute builds the full pay picture for one employee and week. The result
// is rounded once at the end; intermediate sums carry full precision. NetPay
// is not floored at zero here.
func (a *Aggregator) Compute(ctx context.Context, employeeID string, weekStart, weekEnd time.Time) (Record, error) {
	cfg, err := a.configs.ConfigForPeriod(ctx, employeeID, weekStart)
	if err != nil {
		return Record{}, err
	}

	loads, err := a.loads.DeliveredInRange(ctx, employeeID, weekStart, weekEnd)
	if err != nil {
		return Record{}, err
	}
	earnings, err := ComputeLoadEarnings(loads, cfg)
	if err != nil {
		return Record{}, err
	}

	fuel, err := a.loads.FuelInRange(ctx, employeeID, weekStart, weekEnd)
	if err != nil {
		return Record{}, err
	}
	fuelDeductions := decimal.Zero
	for _, tx := range fuel {
		fuelDeductions = fuelDeductions.Add(tx.Amount).Add(tx.Fees)
	}

	recurringFees, err := a.recurring.TotalForWeek(ctx, employeeID, weekStart)
	if err != nil {
		return Record{}, err
	}

	due, err := a.advances.DueForWeek(ctx, employeeID, weekStart)
	if err != nil {
		return Record{}, err
	}
	advanceRepayments := decimal.Zero
	for _, entry := range due {
		advanceRepayments = advanceRepayments.Add(entry.Amount.Abs())
	}

	adjustments, err := a.adjustments.ForWeek(ctx, employeeID, weekStart)
	if err != nil {
		return Record{}, err
	}
	breakdown := adjustment.Split(adjustments)

	record := Record{
		EmployeeID:        employeeID,
		WeekStart:         weekStart,
		WeekEnd:           weekEnd,
		Status:            StatusCalculated,
		TotalLoads:        earnings.LoadCount,
		TotalMiles:        earnings.TotalMiles,
		GrossRevenue:      earnings.GrossRevenue,
		ServiceFee:        earnings.ServiceFee,
		BasePay:           earnings.BasePay,
		BonusAmount:       breakdown.Bonus,
		Overtime:          breakdown.Overtime,
		Reimbursements:    breakdown.Reimbursements,
		OtherEarnings:     breakdown.OtherEarnings,
		FuelDeductions:    fuelDeductions,
		AdvanceRepayments: advanceRepayments,
		RecurringFees:     recurringFees,
		OtherDeductions:   breakdown.OtherDeductions,
	}
	for _, ld := range loads {
		record.LoadIDs = append(record.LoadIDs, ld.ID)
	}

	record.GrossPay = record.BasePay.
		Add(record.BonusAmount).
		Add(record.Overtime).
		Add(record.Reimbursements).
		Add(record.OtherEarnings)

	deductionsBeforeEscrow := record.FuelDeductions.
		Add(record.AdvanceRepayments).
		Add(record.RecurringFees).
		Add(record.OtherDeductions)

	escrowDeposits, suggestion, err := a.escrowForWeek(ctx, employeeID, weekStart,
		record.GrossPay.Sub(deductionsBeforeEscrow))
	if err != nil {
		return Record{}, err
	}
	record.EscrowDeposits = escrowDeposits
	record.EscrowSuggestion = suggestion

	record.TotalDeductions = deductionsBeforeEscrow.Add(record.EscrowDeposits)
	record.NetPay = record.GrossPay.Sub(record.TotalDeductions)
	return record.Rounded(), nil
}

// escrowForWeek decides the deposit that reduces this week's pay. Posted
// transactions always count; a manual weekly override counts even before its
// transaction is posted (processing posts it). An auto suggestion is surfaced
// for reviewers but never applied.
func (a *Aggregator) escrowForWeek(ctx context.Context, employeeID string, weekStart time.Time, potentialNet decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	account, err := a.escrow.Account(ctx, employeeID)
	if errors.Is(err, escrow.ErrAccountNotFound) {
		return decimal.Zero, decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	posted, err := a.escrow.DepositsForWeek(ctx, employeeID, weekStart)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if posted.IsPositive() {
		return posted, decimal.Zero, nil
	}

	switch policy := escrow.PolicyFor(account); policy.Kind {
	case escrow.PolicyManual:
		return policy.Amount, decimal.Zero, nil
	case escrow.PolicyAutoSuggested:
		suggested, ok, err := a.escrow.Suggestion(ctx, employeeID, potentialNet)
		if err != nil || !ok {
			return decimal.Zero, decimal.Zero, err
		}
		return decimal.Zero, suggested, nil
	default:
		return decimal.Zero, decimal.Zero, nil
	}
}
