package adjustment

import "github.com/shopspring/decimal"

// PeriodBreakdown buckets a period's adjustments the way the aggregator
// consumes them. A pure function over the list; storage plays no part.
type PeriodBreakdown struct {
	Bonus           decimal.Decimal
	Overtime        decimal.Decimal
	Reimbursements  decimal.Decimal
	OtherEarnings   decimal.Decimal
	OtherDeductions decimal.Decimal
}

func Split(adjustments []Adjustment) PeriodBreakdown {
	out := PeriodBreakdown{
		Bonus:           decimal.Zero,
		Overtime:        decimal.Zero,
		Reimbursements:  decimal.Zero,
		OtherEarnings:   decimal.Zero,
		OtherDeductions: decimal.Zero,
	}
	for _, adj := range adjustments {
		switch adj.Category {
		case CategoryBonus:
			if adj.Type == TypeOvertime {
				out.Overtime = out.Overtime.Add(adj.Amount)
			} else {
				out.Bonus = out.Bonus.Add(adj.Amount)
			}
		case CategoryReimbursement:
			out.Reimbursements = out.Reimbursements.Add(adj.Amount)
		case CategoryCorrection:
			out.OtherEarnings = out.OtherEarnings.Add(adj.Amount)
		case CategoryDeduction:
			out.OtherDeductions = out.OtherDeductions.Add(adj.Amount)
		}
	}
	return out
}
