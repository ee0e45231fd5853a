package escrow

import "github.com/shopspring/decimal"

// PolicyKind makes the deposit decision explicit instead of inferring it from
// which fields happen to be set.
type PolicyKind string

const (
	PolicyManual        PolicyKind = "MANUAL"
	PolicyAutoSuggested PolicyKind = "AUTO_SUGGESTED"
	PolicyNone          PolicyKind = "NONE"
)

type DepositPolicy struct {
	Kind   PolicyKind
	Amount decimal.Decimal
}

// PolicyFor decides how the week's escrow deposit is determined. Inactive or
// fully funded accounts take nothing; a manual weekly override wins over the
// suggestion path.
func PolicyFor(account Account) DepositPolicy {
	if !account.IsActive || account.IsFunded() {
		return DepositPolicy{Kind: PolicyNone, Amount: decimal.Zero}
	}
	if account.WeeklyAmount.IsPositive() {
		return DepositPolicy{Kind: PolicyManual, Amount: account.WeeklyAmount}
	}
	return DepositPolicy{Kind: PolicyAutoSuggested, Amount: decimal.Zero}
}

type SuggestionParams struct {
	TargetWeeks      int
	MinWeeklyDeposit decimal.Decimal
	MaxWeeklyDeposit decimal.Decimal
	MinNetPayFloor   decimal.Decimal
}

// SuggestWeeklyDeposit computes the advisory weekly deposit for an underfunded
// account. It is never applied automatically: deposits reduce net pay only
// when a human posts an explicit transaction. Returns false when no
// suggestion should be surfaced.
func SuggestWeeklyDeposit(account Account, potentialNetBeforeEscrow decimal.Decimal, params SuggestionParams) (decimal.Decimal, bool) {
	policy := PolicyFor(account)
	if policy.Kind != PolicyAutoSuggested {
		return decimal.Zero, false
	}

	remaining := account.TargetAmount.Sub(account.CurrentBalance)
	weeklyTarget := remaining.Div(decimal.NewFromInt(int64(params.TargetWeeks))).Ceil()

	affordable := potentialNetBeforeEscrow.Sub(params.MinNetPayFloor)
	if affordable.IsNegative() {
		affordable = decimal.Zero
	}

	suggested := decimal.Min(weeklyTarget, params.MaxWeeklyDeposit, affordable)
	if suggested.LessThan(params.MinWeeklyDeposit) {
		return decimal.Zero, false
	}
	return suggested, true
}
