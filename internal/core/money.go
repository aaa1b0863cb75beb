// Package core holds the accountbook domain model.
//
// Monetary amounts are fixed-point decimals with two fractional digits.
// Arithmetic never goes through float64; persistence stores cents.
package core

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string into a positive two-digit amount.
//
// It accepts both dot (12.34) and comma (12,34) separators and rounds the
// third decimal digit half-up. Returns ErrInvalidAmount for malformed input,
// zero or negative values.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35 (rounds up)
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if d.Sign() <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// AmountFromCents rebuilds an amount from its stored cent representation.
func AmountFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// AmountToCents converts an amount to cents for storage. The amount is
// rounded half-up on the third decimal digit first.
func AmountToCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FormatAmount renders an amount with thousand separators for notification
// messages and API responses, e.g. 1234567.5 -> "1,234,567.50".
// Whole amounts omit the fraction: 1000000 -> "1,000,000".
func FormatAmount(d decimal.Decimal) string {
	d = d.Round(2)
	whole := d.IntPart()
	s := humanize.Comma(whole)
	frac := d.Sub(decimal.NewFromInt(whole)).Abs()
	if !frac.IsZero() {
		s = fmt.Sprintf("%s.%02d", s, frac.Shift(2).IntPart())
	}
	return s
}
