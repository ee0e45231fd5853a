package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetpay/internal/domain/driver"
	"fleetpay/internal/domain/load"
)

func amt(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func percentageConfig(driverPct, companyPct, feePct float64) driver.PaymentConfig {
	return driver.PaymentConfig{
		Method:            driver.MethodPercentage,
		DriverPercent:     amt(driverPct),
		CompanyPercent:    amt(companyPct),
		ServiceFeePercent: amt(feePct),
	}
}

func TestPercentageThreeLoadWeek(t *testing.T) {
	loads := []load.Load{
		{ID: "l1", LoadNumber: "L-1", GrossAmount: amt(1000)},
		{ID: "l2", LoadNumber: "L-2", GrossAmount: amt(1500)},
		{ID: "l3", LoadNumber: "L-3", GrossAmount: amt(800)},
	}
	summary, err := ComputeLoadEarnings(loads, percentageConfig(70, 30, 5))
	require.NoError(t, err)

	// fee = 50+75+40, driver = 665+997.5+532.
	assert.True(t, summary.ServiceFee.Equal(amt(165)), "fee %s", summary.ServiceFee)
	assert.True(t, summary.BasePay.Equal(amt(2194.5)), "base %s", summary.BasePay)
	assert.True(t, summary.GrossRevenue.Equal(amt(3300)))
	assert.Equal(t, 3, summary.LoadCount)
}

func TestPercentageSharesSumToGrossPerLoad(t *testing.T) {
	loads := []load.Load{
		{ID: "l1", GrossAmount: amt(1000)},
		{ID: "l2", GrossAmount: amt(1234.56)},
		{ID: "l3", GrossAmount: amt(17.89)},
	}
	summary, err := ComputeLoadEarnings(loads, percentageConfig(70, 30, 5))
	require.NoError(t, err)

	for _, earnings := range summary.PerLoad {
		total := earnings.DriverShare.Add(earnings.CompanyShare).Add(earnings.ServiceFee)
		assert.True(t, total.Equal(earnings.Gross),
			"load %s: %s != %s", earnings.LoadID, total, earnings.Gross)
	}
}

func TestPayPerMile(t *testing.T) {
	cfg := driver.PaymentConfig{
		Method:            driver.MethodPayPerMile,
		PayPerMileRate:    amt(0.65),
		ServiceFeePercent: amt(5),
	}
	loads := []load.Load{
		{ID: "l1", GrossAmount: amt(2000), FinalMiles: amt(800)},
	}
	summary, err := ComputeLoadEarnings(loads, cfg)
	require.NoError(t, err)

	assert.True(t, summary.BasePay.Equal(amt(520)), "base %s", summary.BasePay)
	// The fee is reported but does not dilute the per-mile rate.
	assert.True(t, summary.ServiceFee.Equal(amt(100)))
	assert.True(t, summary.TotalMiles.Equal(amt(800)))
}

func TestPayPerMileZeroMilesIsZeroNotError(t *testing.T) {
	cfg := driver.PaymentConfig{
		Method:         driver.MethodPayPerMile,
		PayPerMileRate: amt(0.65),
	}
	summary, err := ComputeLoadEarnings([]load.Load{
		{ID: "l1", GrossAmount: amt(500), FinalMiles: decimal.Zero},
	}, cfg)
	require.NoError(t, err)
	assert.True(t, summary.BasePay.IsZero())
}

func TestFlatRateUsesStoredRate(t *testing.T) {
	rate := amt(450)
	summary, err := ComputeLoadEarnings([]load.Load{
		{ID: "l1", GrossAmount: amt(1200), DriverRate: &rate},
	}, driver.PaymentConfig{Method: driver.MethodFlatRate})
	require.NoError(t, err)
	assert.True(t, summary.BasePay.Equal(amt(450)))
}

func TestFlatRateMissingRateIsCalculationError(t *testing.T) {
	_, err := ComputeLoadEarnings([]load.Load{
		{ID: "l1", LoadNumber: "L-99", DriverID: "emp-1", GrossAmount: amt(1200)},
	}, driver.PaymentConfig{Method: driver.MethodFlatRate})

	var calcErr *CalculationError
	require.ErrorAs(t, err, &calcErr)
	assert.Equal(t, "L-99", calcErr.LoadNumber)
	assert.Equal(t, "emp-1", calcErr.EmployeeID)
}

func TestEmptyWeekIsZero(t *testing.T) {
	summary, err := ComputeLoadEarnings(nil, percentageConfig(70, 30, 5))
	require.NoError(t, err)
	assert.Zero(t, summary.LoadCount)
	assert.True(t, summary.BasePay.IsZero())
	assert.True(t, summary.GrossRevenue.IsZero())
}
