package payroll

import (
	"github.com/shopspring/decimal"

	"fleetpay/internal/domain/driver"
	"fleetpay/internal/domain/load"
)

var hundred = decimal.NewFromInt(100)

// LoadEarnings is the per-load split of one delivered load's revenue.
type LoadEarnings struct {
	LoadID       string          `json:"loadId"`
	LoadNumber   string          `json:"loadNumber"`
	Gross        decimal.Decimal `json:"gross"`
	Miles        decimal.Decimal `json:"miles"`
	ServiceFee   decimal.Decimal `json:"serviceFee"`
	DriverShare  decimal.Decimal `json:"driverShare"`
	CompanyShare decimal.Decimal `json:"companyShare"`
}

// EarningsSummary aggregates a period's loads under one payment config.
type EarningsSummary struct {
	PerLoad      []LoadEarnings  `json:"perLoad"`
	LoadCount    int             `json:"loadCount"`
	GrossRevenue decimal.Decimal `json:"grossRevenue"`
	TotalMiles   decimal.Decimal `json:"totalMiles"`
	BasePay      decimal.Decimal `json:"basePay"`
	ServiceFee   decimal.Decimal `json:"serviceFee"`
	CompanyShare decimal.Decimal `json:"companyShare"`
}

// ComputeLoadEarnings computes the driver's share of each load and the period
// totals. The service fee and percentage split apply per load, then sum;
// pooling the gross first and splitting once changes penny-level rounding on
// mixed-size weeks. Nothing here rounds.
func ComputeLoadEarnings(loads []load.Load, cfg driver.PaymentConfig) (EarningsSummary, error) {
	summary := EarningsSummary{
		PerLoad:      make([]LoadEarnings, 0, len(loads)),
		LoadCount:    len(loads),
		GrossRevenue: decimal.Zero,
		TotalMiles:   decimal.Zero,
		BasePay:      decimal.Zero,
		ServiceFee:   decimal.Zero,
		CompanyShare: decimal.Zero,
	}

	for _, ld := range loads {
		earnings, err := computeOne(ld, cfg)
		if err != nil {
			return EarningsSummary{}, err
		}
		summary.PerLoad = append(summary.PerLoad, earnings)
		summary.GrossRevenue = summary.GrossRevenue.Add(earnings.Gross)
		summary.TotalMiles = summary.TotalMiles.Add(earnings.Miles)
		summary.BasePay = summary.BasePay.Add(earnings.DriverShare)
		summary.ServiceFee = summary.ServiceFee.Add(earnings.ServiceFee)
		summary.CompanyShare = summary.CompanyShare.Add(earnings.CompanyShare)
	}
	return summary, nil
}

func computeOne(ld load.Load, cfg driver.PaymentConfig) (LoadEarnings, error) {
	earnings := LoadEarnings{
		LoadID:     ld.ID,
		LoadNumber: ld.LoadNumber,
		Gross:      ld.GrossAmount,
		Miles:      ld.FinalMiles,
	}
	serviceFee := ld.GrossAmount.Mul(cfg.ServiceFeePercent).Div(hundred)

	switch cfg.Method {
	case driver.MethodPercentage:
		afterFee := ld.GrossAmount.Sub(serviceFee)
		earnings.ServiceFee = serviceFee
		earnings.DriverShare = afterFee.Mul(cfg.DriverPercent).Div(hundred)
		earnings.CompanyShare = afterFee.Mul(cfg.CompanyPercent).Div(hundred)

	case driver.MethodPayPerMile:
		// The fee is reported but does not reduce the per-mile rate. A
		// zero-mile load legitimately pays zero; minimum guarantees are
		// adjustments, not inferred here.
		earnings.ServiceFee = serviceFee
		earnings.DriverShare = ld.FinalMiles.Mul(cfg.PayPerMileRate)
		earnings.CompanyShare = ld.GrossAmount.Sub(serviceFee).Sub(earnings.DriverShare)

	case driver.MethodFlatRate:
		if ld.DriverRate == nil {
			return LoadEarnings{}, &CalculationError{
				EmployeeID: ld.DriverID,
				LoadNumber: ld.LoadNumber,
				Reason:     "flat-rate load has no stored driver rate",
			}
		}
		earnings.ServiceFee = serviceFee
		earnings.DriverShare = *ld.DriverRate
		earnings.CompanyShare = ld.GrossAmount.Sub(serviceFee).Sub(earnings.DriverShare)

	default:
		return LoadEarnings{}, &CalculationError{
			EmployeeID: ld.DriverID,
			LoadNumber: ld.LoadNumber,
			Reason:     "unknown payment method " + string(cfg.Method),
		}
	}
	return earnings, nil
}
