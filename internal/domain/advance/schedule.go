package advance

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduledRepayment is one week's planned deduction before it becomes a
// ledger entry.
type ScheduledRepayment struct {
	WeekStart time.Time
	Amount    decimal.Decimal
}

// oneCent is the smallest installment the ledger can carry.
var oneCent = decimal.New(1, -2)

// BuildRepaymentSchedule splits an advance into weekly repayments. Every
// installment is the rounded weekly amount, capped at what is still owed, so
// the installments sum to exactly the advance amount and none goes negative.
// When the rounded weekly amount overshoots (tiny advances over many weeks),
// the schedule simply ends early.
func BuildRepaymentSchedule(amount decimal.Decimal, weeks int, firstWeekStart time.Time) []ScheduledRepayment {
	weekly := amount.Div(decimal.NewFromInt(int64(weeks))).Round(2)
	if weekly.LessThan(oneCent) {
		weekly = oneCent
	}

	schedule := make([]ScheduledRepayment, 0, weeks)
	remaining := amount
	for i := 0; i < weeks && remaining.IsPositive(); i++ {
		installment := weekly
		if i == weeks-1 || installment.GreaterThan(remaining) {
			installment = remaining
		}
		schedule = append(schedule, ScheduledRepayment{
			WeekStart: firstWeekStart.AddDate(0, 0, 7*i),
			Amount:    installment,
		})
		remaining = remaining.Sub(installment)
	}
	return schedule
}

// WeeklyRepayment is the headline installment recorded on the advance.
func WeeklyRepayment(amount decimal.Decimal, weeks int) decimal.Decimal {
	return amount.Div(decimal.NewFromInt(int64(weeks))).Round(2)
}
