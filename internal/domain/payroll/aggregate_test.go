package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetpay/internal/domain/adjustment"
	"fleetpay/internal/domain/advance"
	"fleetpay/internal/domain/driver"
	"fleetpay/internal/domain/escrow"
	"fleetpay/internal/domain/load"
)

// fakeSources backs the aggregator with per-employee fixtures. A missing
// employee behaves like an empty week; a missing config is the real
// missing-config error.
type fakeSources struct {
	configs     map[string]driver.PaymentConfig
	loads       map[string][]load.Load
	fuel        map[string][]load.FuelTransaction
	recurring   map[string]decimal.Decimal
	due         map[string][]advance.Entry
	adjustments map[string][]adjustment.Adjustment
	accounts    map[string]escrow.Account
	posted      map[string]decimal.Decimal
	suggestions map[string]decimal.Decimal
}

func newFakeSources() *fakeSources {
	return &fakeSources{
		configs:     map[string]driver.PaymentConfig{},
		loads:       map[string][]load.Load{},
		fuel:        map[string][]load.FuelTransaction{},
		recurring:   map[string]decimal.Decimal{},
		due:         map[string][]advance.Entry{},
		adjustments: map[string][]adjustment.Adjustment{},
		accounts:    map[string]escrow.Account{},
		posted:      map[string]decimal.Decimal{},
		suggestions: map[string]decimal.Decimal{},
	}
}

func (f *fakeSources) ConfigForPeriod(_ context.Context, employeeID string, _ time.Time) (driver.PaymentConfig, error) {
	cfg, ok := f.configs[employeeID]
	if !ok {
		return driver.PaymentConfig{}, driver.ErrNoPaymentConfig
	}
	return cfg, nil
}

func (f *fakeSources) DeliveredInRange(_ context.Context, driverID string, _, _ time.Time) ([]load.Load, error) {
	return f.loads[driverID], nil
}

func (f *fakeSources) FuelInRange(_ context.Context, driverID string, _, _ time.Time) ([]load.FuelTransaction, error) {
	return f.fuel[driverID], nil
}

func (f *fakeSources) TotalForWeek(_ context.Context, driverID string, _ time.Time) (decimal.Decimal, error) {
	return f.recurring[driverID], nil
}

func (f *fakeSources) DueForWeek(_ context.Context, employeeID string, _ time.Time) ([]advance.Entry, error) {
	return f.due[employeeID], nil
}

func (f *fakeSources) ForWeek(_ context.Context, employeeID string, _ time.Time) ([]adjustment.Adjustment, error) {
	return f.adjustments[employeeID], nil
}

func (f *fakeSources) Account(_ context.Context, employeeID string) (escrow.Account, error) {
	account, ok := f.accounts[employeeID]
	if !ok {
		return escrow.Account{}, escrow.ErrAccountNotFound
	}
	return account, nil
}

func (f *fakeSources) DepositsForWeek(_ context.Context, employeeID string, _ time.Time) (decimal.Decimal, error) {
	return f.posted[employeeID], nil
}

func (f *fakeSources) Suggestion(_ context.Context, employeeID string, _ decimal.Decimal) (decimal.Decimal, bool, error) {
	suggested, ok := f.suggestions[employeeID]
	return suggested, ok, nil
}

func aggregatorOver(f *fakeSources) *Aggregator {
	return NewAggregator(f, f, f, f, f, f)
}

var (
	week    = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) // a Monday
	weekEnd = week.AddDate(0, 0, 6)
)

func seedBusyWeek(f *fakeSources, employeeID string) {
	f.configs[employeeID] = percentageConfig(70, 30, 5)
	f.loads[employeeID] = []load.Load{
		{ID: "l1", GrossAmount: amt(1000), Status: load.StatusDelivered},
		{ID: "l2", GrossAmount: amt(1500), Status: load.StatusDelivered},
		{ID: "l3", GrossAmount: amt(800), Status: load.StatusPaid},
	}
	f.fuel[employeeID] = []load.FuelTransaction{
		{Amount: amt(180), Fees: amt(20)},
	}
	f.recurring[employeeID] = amt(45)
	f.due[employeeID] = []advance.Entry{
		{Kind: advance.KindRepayment, Amount: amt(-150)},
	}
	f.adjustments[employeeID] = []adjustment.Adjustment{
		{Category: adjustment.CategoryBonus, Type: "SAFETY", Amount: amt(100)},
		{Category: adjustment.CategoryDeduction, Type: "DAMAGE", Amount: amt(25)},
	}
}

func TestAggregatorBusyWeek(t *testing.T) {
	f := newFakeSources()
	seedBusyWeek(f, "emp-1")

	rec, err := aggregatorOver(f).Compute(context.Background(), "emp-1", week, weekEnd)
	require.NoError(t, err)

	assert.Equal(t, 3, rec.TotalLoads)
	assert.True(t, rec.BasePay.Equal(amt(2194.5)), "base %s", rec.BasePay)
	assert.True(t, rec.ServiceFee.Equal(amt(165)))
	assert.True(t, rec.FuelDeductions.Equal(amt(200)))
	assert.True(t, rec.AdvanceRepayments.Equal(amt(150)))
	assert.True(t, rec.RecurringFees.Equal(amt(45)))
	assert.True(t, rec.BonusAmount.Equal(amt(100)))
	assert.True(t, rec.OtherDeductions.Equal(amt(25)))

	assert.True(t, rec.GrossPay.Equal(amt(2294.5)), "gross %s", rec.GrossPay)
	assert.True(t, rec.TotalDeductions.Equal(amt(420)), "deductions %s", rec.TotalDeductions)
	assert.True(t, rec.NetPay.Equal(amt(1874.5)), "net %s", rec.NetPay)
	assert.Equal(t, []string{"l1", "l2", "l3"}, rec.LoadIDs)
	assert.Equal(t, StatusCalculated, rec.Status)
}

func TestAggregatorNetPayNotFloored(t *testing.T) {
	f := newFakeSources()
	f.configs["emp-1"] = percentageConfig(70, 30, 5)
	f.fuel["emp-1"] = []load.FuelTransaction{{Amount: amt(400), Fees: amt(12.5)}}
	f.due["emp-1"] = []advance.Entry{{Kind: advance.KindRepayment, Amount: amt(-150)}}

	rec, err := aggregatorOver(f).Compute(context.Background(), "emp-1", week, weekEnd)
	require.NoError(t, err)

	// No loads, heavy deductions: the overdraft must stay visible.
	assert.True(t, rec.NetPay.Equal(amt(-562.5)), "net %s", rec.NetPay)
}

func TestAggregatorIdempotent(t *testing.T) {
	f := newFakeSources()
	seedBusyWeek(f, "emp-1")
	agg := aggregatorOver(f)

	first, err := agg.Compute(context.Background(), "emp-1", week, weekEnd)
	require.NoError(t, err)
	second, err := agg.Compute(context.Background(), "emp-1", week, weekEnd)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestAggregatorEscrowManualOverride(t *testing.T) {
	f := newFakeSources()
	f.configs["emp-1"] = percentageConfig(70, 30, 5)
	f.accounts["emp-1"] = escrow.Account{
		IsActive:     true,
		TargetAmount: amt(1000),
		WeeklyAmount: amt(75),
	}

	rec, err := aggregatorOver(f).Compute(context.Background(), "emp-1", week, weekEnd)
	require.NoError(t, err)
	assert.True(t, rec.EscrowDeposits.Equal(amt(75)))
	assert.True(t, rec.EscrowSuggestion.IsZero())
}

func TestAggregatorPostedDepositWinsOverOverride(t *testing.T) {
	f := newFakeSources()
	f.configs["emp-1"] = percentageConfig(70, 30, 5)
	f.accounts["emp-1"] = escrow.Account{
		IsActive:     true,
		TargetAmount: amt(1000),
		WeeklyAmount: amt(75),
	}
	f.posted["emp-1"] = amt(50)

	rec, err := aggregatorOver(f).Compute(context.Background(), "emp-1", week, weekEnd)
	require.NoError(t, err)
	assert.True(t, rec.EscrowDeposits.Equal(amt(50)))
}

func TestAggregatorSuggestionIsNeverApplied(t *testing.T) {
	f := newFakeSources()
	f.configs["emp-1"] = percentageConfig(70, 30, 5)
	f.accounts["emp-1"] = escrow.Account{IsActive: true, TargetAmount: amt(1000)}
	f.suggestions["emp-1"] = amt(120)

	rec, err := aggregatorOver(f).Compute(context.Background(), "emp-1", week, weekEnd)
	require.NoError(t, err)
	assert.True(t, rec.EscrowDeposits.IsZero())
	assert.True(t, rec.EscrowSuggestion.Equal(amt(120)))
	assert.True(t, rec.TotalDeductions.IsZero())
}

func TestAggregatorNoEscrowAccountMeansNoDeposit(t *testing.T) {
	f := newFakeSources()
	f.configs["emp-1"] = percentageConfig(70, 30, 5)

	rec, err := aggregatorOver(f).Compute(context.Background(), "emp-1", week, weekEnd)
	require.NoError(t, err)
	assert.True(t, rec.EscrowDeposits.IsZero())
}

func TestAggregatorPropagatesCalculationError(t *testing.T) {
	f := newFakeSources()
	f.configs["emp-1"] = driver.PaymentConfig{Method: driver.MethodFlatRate}
	f.loads["emp-1"] = []load.Load{
		{ID: "l1", LoadNumber: "L-7", DriverID: "emp-1", GrossAmount: amt(900)},
	}

	_, err := aggregatorOver(f).Compute(context.Background(), "emp-1", week, weekEnd)
	var calcErr *CalculationError
	require.ErrorAs(t, err, &calcErr)
	assert.Equal(t, "L-7", calcErr.LoadNumber)
}

func TestAggregatorMissingConfig(t *testing.T) {
	f := newFakeSources()
	_, err := aggregatorOver(f).Compute(context.Background(), "emp-1", week, weekEnd)
	require.ErrorIs(t, err, driver.ErrNoPaymentConfig)
}
