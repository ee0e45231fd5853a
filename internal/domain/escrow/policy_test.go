package escrow

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func amt(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func defaultParams() SuggestionParams {
	return SuggestionParams{
		TargetWeeks:      6,
		MinWeeklyDeposit: amt(50),
		MaxWeeklyDeposit: amt(500),
		MinNetPayFloor:   amt(500),
	}
}

func TestPolicyForPrecedence(t *testing.T) {
	inactive := Account{IsActive: false, TargetAmount: amt(1000)}
	assert.Equal(t, PolicyNone, PolicyFor(inactive).Kind)

	funded := Account{IsActive: true, TargetAmount: amt(1000), CurrentBalance: amt(1000)}
	assert.Equal(t, PolicyNone, PolicyFor(funded).Kind)

	manual := Account{IsActive: true, TargetAmount: amt(1000), CurrentBalance: amt(200), WeeklyAmount: amt(75)}
	policy := PolicyFor(manual)
	assert.Equal(t, PolicyManual, policy.Kind)
	assert.True(t, policy.Amount.Equal(amt(75)))

	auto := Account{IsActive: true, TargetAmount: amt(1000), CurrentBalance: amt(200)}
	assert.Equal(t, PolicyAutoSuggested, PolicyFor(auto).Kind)
}

func TestSuggestionBelowMinimumIsSuppressed(t *testing.T) {
	// target=1000 current=850 -> remaining=150, weeklyTarget=ceil(150/6)=25,
	// affordable=900-500=400, suggested=min(25,500,400)=25 which is under the
	// $50 minimum, so nothing is surfaced.
	account := Account{IsActive: true, TargetAmount: amt(1000), CurrentBalance: amt(850)}
	suggested, ok := SuggestWeeklyDeposit(account, amt(900), defaultParams())
	assert.False(t, ok)
	assert.True(t, suggested.IsZero())
}

func TestSuggestionCappedByAffordability(t *testing.T) {
	// remaining=900, weeklyTarget=150, affordable=600-500=100.
	account := Account{IsActive: true, TargetAmount: amt(1000), CurrentBalance: amt(100)}
	suggested, ok := SuggestWeeklyDeposit(account, amt(600), defaultParams())
	assert.True(t, ok)
	assert.True(t, suggested.Equal(amt(100)), "got %s", suggested)
}

func TestSuggestionCappedByMaxWeekly(t *testing.T) {
	// remaining=6000, weeklyTarget=1000, plenty affordable -> capped at 500.
	account := Account{IsActive: true, TargetAmount: amt(6000), CurrentBalance: amt(0)}
	suggested, ok := SuggestWeeklyDeposit(account, amt(3000), defaultParams())
	assert.True(t, ok)
	assert.True(t, suggested.Equal(amt(500)))
}

func TestSuggestionZeroWhenNothingAffordable(t *testing.T) {
	account := Account{IsActive: true, TargetAmount: amt(1000), CurrentBalance: amt(0)}
	suggested, ok := SuggestWeeklyDeposit(account, amt(400), defaultParams())
	assert.False(t, ok)
	assert.True(t, suggested.IsZero())
}

func TestManualOverrideSkipsSuggestion(t *testing.T) {
	account := Account{IsActive: true, TargetAmount: amt(1000), CurrentBalance: amt(100), WeeklyAmount: amt(80)}
	_, ok := SuggestWeeklyDeposit(account, amt(2000), defaultParams())
	assert.False(t, ok, "manual override accounts never get a suggestion")
}

func TestSignedAmountDirections(t *testing.T) {
	assert.True(t, SignedAmount(TypeDeposit, amt(100)).Equal(amt(100)))
	assert.True(t, SignedAmount(TypeWithdrawal, amt(100)).Equal(amt(-100)))
	assert.True(t, SignedAmount(TypeInterest, amt(2.5)).Equal(amt(2.5)))
	assert.True(t, SignedAmount(TypeAdjustment, amt(-30)).Equal(amt(-30)))
}

func TestTransactionSnapshotInvariant(t *testing.T) {
	movement := Transaction{
		Type:          TypeDeposit,
		Amount:        amt(100),
		BalanceBefore: amt(250),
		BalanceAfter:  amt(350),
	}
	expected := movement.BalanceBefore.Add(SignedAmount(movement.Type, movement.Amount))
	assert.True(t, movement.BalanceAfter.Equal(expected))
}
