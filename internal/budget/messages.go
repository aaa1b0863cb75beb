package budget

import (
	"fmt"

	"accountbook/internal/core"

	"github.com/shopspring/decimal"
)

// Title returns the notification title for a tier.
func (t Tier) Title() string {
	switch t {
	case TierFifty:
		return "Budget 50% exceeded"
	case TierEighty:
		return "Budget 80% exceeded"
	case TierHundred:
		return "Budget 100% exceeded"
	}
	return "Budget alert"
}

// composeMessage renders the notification body for a tier. The percentage is
// shown with one decimal; amounts are thousand-grouped.
func composeMessage(t Tier, familyName string, budget, spend, pct decimal.Decimal) string {
	budgetStr := core.FormatAmount(budget)
	spendStr := core.FormatAmount(spend)
	pctStr := pct.StringFixed(1)

	switch t {
	case TierFifty:
		return fmt.Sprintf(
			"%s has passed 50%% of this month's budget. %s of %s spent (%s%%).",
			familyName, spendStr, budgetStr, pctStr)
	case TierEighty:
		return fmt.Sprintf(
			"%s has passed 80%% of this month's budget. %s of %s spent (%s%%). Watch your spending!",
			familyName, spendStr, budgetStr, pctStr)
	case TierHundred:
		return fmt.Sprintf(
			"%s has exceeded this month's budget! %s of %s spent (%s%%).",
			familyName, spendStr, budgetStr, pctStr)
	}
	return fmt.Sprintf("%s budget alert: %s of %s spent (%s%%).",
		familyName, spendStr, budgetStr, pctStr)
}
