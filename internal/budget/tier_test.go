package budget

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestClassify(t *testing.T) {
	budget := dec("1000000")

	tests := []struct {
		name     string
		spend    string
		wantTier Tier
		wantOK   bool
	}{
		{name: "zero spend", spend: "0", wantOK: false},
		{name: "just under half", spend: "499999", wantOK: false},
		{name: "exactly 50 percent does not cross", spend: "500000", wantOK: false},
		{name: "rounds to 50.00 and does not cross", spend: "500049", wantOK: false},
		{name: "rounds to 50.01 and crosses", spend: "500050", wantTier: TierFifty, wantOK: true},
		{name: "55 percent", spend: "550000", wantTier: TierFifty, wantOK: true},
		{name: "exactly 80 percent stays fifty", spend: "800000", wantTier: TierFifty, wantOK: true},
		{name: "just over 80 percent", spend: "800050", wantTier: TierEighty, wantOK: true},
		{name: "85 percent", spend: "850000", wantTier: TierEighty, wantOK: true},
		{name: "exactly 100 percent stays eighty", spend: "1000000", wantTier: TierEighty, wantOK: true},
		{name: "105 percent", spend: "1050000", wantTier: TierHundred, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, ok := Classify(dec(tt.spend), budget)
			if ok != tt.wantOK {
				t.Fatalf("Classify(%s) crossed = %v, want %v", tt.spend, ok, tt.wantOK)
			}
			if ok && tier != tt.wantTier {
				t.Errorf("Classify(%s) = %v, want %v", tt.spend, tier, tt.wantTier)
			}
		})
	}
}

func TestClassify_DisabledBudget(t *testing.T) {
	for _, budget := range []string{"0", "-1"} {
		if _, ok := Classify(dec("999999999"), dec(budget)); ok {
			t.Errorf("Classify with budget %s should never cross", budget)
		}
	}
}

func TestUsagePercent(t *testing.T) {
	tests := []struct {
		spend  string
		budget string
		want   string
	}{
		{"550000", "1000000", "55"},
		{"1050000", "1000000", "105"},
		{"1", "3", "33.33"},  // ratio carried at 4dp before scaling
		{"2", "3", "66.67"},  // 0.6667 rounds half-up
		{"333333", "1000000", "33.33"},
		{"0", "1000000", "0"},
		{"100", "0", "0"},
	}

	for _, tt := range tests {
		got := UsagePercent(dec(tt.spend), dec(tt.budget))
		if !got.Equal(dec(tt.want)) {
			t.Errorf("UsagePercent(%s, %s) = %s, want %s", tt.spend, tt.budget, got, tt.want)
		}
	}
}

func TestPeriodKey(t *testing.T) {
	got := PeriodKey(time.Date(2025, 3, 14, 22, 5, 0, 0, time.UTC))
	if got != "2025-03" {
		t.Errorf("PeriodKey = %q, want 2025-03", got)
	}
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds(time.Date(2025, 2, 14, 10, 30, 0, 0, time.UTC))

	wantStart := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, 2, 28, 23, 59, 59, 0, time.UTC)

	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}
}

func TestMonthBounds_December(t *testing.T) {
	start, end := MonthBounds(time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC))

	if got := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC); !start.Equal(got) {
		t.Errorf("start = %v, want %v", start, got)
	}
	if got := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC); !end.Equal(got) {
		t.Errorf("end = %v, want %v", end, got)
	}
}
