package adjustment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func amt(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestSplitBucketsByCategory(t *testing.T) {
	breakdown := Split([]Adjustment{
		{Category: CategoryBonus, Type: "SAFETY", Amount: amt(100)},
		{Category: CategoryBonus, Type: TypeOvertime, Amount: amt(80)},
		{Category: CategoryReimbursement, Type: "TOLL", Amount: amt(42.50)},
		{Category: CategoryCorrection, Type: "SHORT_PAY", Amount: amt(15)},
		{Category: CategoryDeduction, Type: "DAMAGE", Amount: amt(200)},
	})

	assert.True(t, breakdown.Bonus.Equal(amt(100)))
	assert.True(t, breakdown.Overtime.Equal(amt(80)))
	assert.True(t, breakdown.Reimbursements.Equal(amt(42.50)))
	assert.True(t, breakdown.OtherEarnings.Equal(amt(15)))
	assert.True(t, breakdown.OtherDeductions.Equal(amt(200)))
}

func TestReversalPairNetsToZero(t *testing.T) {
	original := Adjustment{Category: CategoryBonus, Amount: amt(150)}
	reversal := Adjustment{Category: original.Category.Opposite(), Amount: original.Amount}

	total := original.Signed().Add(reversal.Signed())
	assert.True(t, total.IsZero(), "adjustment and its reversal must net to zero, got %s", total)
}

func TestOppositeInvertsSign(t *testing.T) {
	for _, category := range []Category{CategoryDeduction, CategoryReimbursement, CategoryBonus, CategoryCorrection} {
		assert.Equal(t, -category.Sign(), category.Opposite().Sign(), "category %s", category)
	}
}

func TestWeekStartOfIsMonday(t *testing.T) {
	// 2025-06-11 is a Wednesday.
	wednesday := time.Date(2025, 6, 11, 14, 30, 0, 0, time.UTC)
	monday := WeekStartOf(wednesday)
	assert.Equal(t, time.Monday, monday.Weekday())
	assert.Equal(t, "2025-06-09", monday.Format("2006-01-02"))

	// A Monday maps to itself, a Sunday to the previous Monday.
	assert.Equal(t, monday, WeekStartOf(monday))
	sunday := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, WeekStartOf(sunday))
}
