// Package budget implements the budget alert engine: it watches a family's
// countable spend against its monthly budget and fans out idempotent
// per-member notifications when a usage threshold is crossed.
package budget

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tier is a budget-usage alert level. Tiers are ordered: TierFifty <
// TierEighty < TierHundred.
type Tier int

const (
	TierFifty Tier = iota
	TierEighty
	TierHundred
)

var (
	fifty   = decimal.NewFromInt(50)
	eighty  = decimal.NewFromInt(80)
	hundred = decimal.NewFromInt(100)
)

// Code returns the persisted notification type for the tier.
func (t Tier) Code() string {
	switch t {
	case TierFifty:
		return "BUDGET_50_EXCEEDED"
	case TierEighty:
		return "BUDGET_80_EXCEEDED"
	case TierHundred:
		return "BUDGET_100_EXCEEDED"
	}
	return "BUDGET_UNKNOWN"
}

func (t Tier) String() string {
	return t.Code()
}

// Threshold returns the usage percentage the tier guards.
func (t Tier) Threshold() int64 {
	switch t {
	case TierFifty:
		return 50
	case TierEighty:
		return 80
	case TierHundred:
		return 100
	}
	return 0
}

// UsagePercent computes spend/budget as a percentage rounded half-up to two
// decimals. The division itself is carried at four decimals, matching the
// amount precision of the ledger. A non-positive budget yields zero.
func UsagePercent(spend, budget decimal.Decimal) decimal.Decimal {
	if budget.Sign() <= 0 {
		return decimal.Zero
	}
	return spend.DivRound(budget, 4).Mul(hundred).Round(2)
}

// Classify maps cumulative spend against a budget to the highest crossed
// tier. Thresholds are strict: exactly 50.00%, 80.00% or 100.00% does not
// cross. A non-positive budget means budgeting is disabled and never
// classifies.
func Classify(spend, budget decimal.Decimal) (Tier, bool) {
	if budget.Sign() <= 0 {
		return 0, false
	}
	pct := UsagePercent(spend, budget)
	switch {
	case pct.GreaterThan(hundred):
		return TierHundred, true
	case pct.GreaterThan(eighty):
		return TierEighty, true
	case pct.GreaterThan(fifty):
		return TierFifty, true
	}
	return 0, false
}

// PeriodKey formats the calendar month of t as YYYY-MM, the dedup scope for
// budget alerts.
func PeriodKey(t time.Time) string {
	return t.Format("2006-01")
}

// MonthBounds returns the first and last instant of t's calendar month
// (day 1 00:00:00 through the last day 23:59:59), in t's location.
func MonthBounds(t time.Time) (start, end time.Time) {
	year, month, _ := t.Date()
	start = time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}
