package budget

import (
	"strings"
	"testing"
)

func TestTierTitle(t *testing.T) {
	tests := []struct {
		tier Tier
		want string
	}{
		{TierFifty, "50%"},
		{TierEighty, "80%"},
		{TierHundred, "100%"},
	}

	for _, tt := range tests {
		if got := tt.tier.Title(); !strings.Contains(got, tt.want) {
			t.Errorf("Title(%v) = %q, want it to contain %q", tt.tier, got, tt.want)
		}
	}
}

func TestComposeMessage(t *testing.T) {
	msg := composeMessage(TierFifty, "kim", dec("1000000"), dec("550000"), dec("55"))

	for _, want := range []string{"kim", "50%", "1,000,000", "550,000", "55.0%"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestComposeMessage_PercentageOneDecimal(t *testing.T) {
	msg := composeMessage(TierHundred, "kim", dec("1000000"), dec("1050500"), dec("105.05"))
	if !strings.Contains(msg, "(105.1%)") {
		t.Errorf("message %q should round the percentage to one decimal half-up", msg)
	}
}

func TestComposeMessage_TierSpecificTone(t *testing.T) {
	eighty := composeMessage(TierEighty, "kim", dec("1000000"), dec("850000"), dec("85"))
	if !strings.Contains(eighty, "Watch your spending") {
		t.Errorf("eighty message %q missing warning", eighty)
	}

	hundred := composeMessage(TierHundred, "kim", dec("1000000"), dec("1050000"), dec("105"))
	if !strings.Contains(hundred, "exceeded this month's budget!") {
		t.Errorf("hundred message %q missing exceeded phrasing", hundred)
	}
}
