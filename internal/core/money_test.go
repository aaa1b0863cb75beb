package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain", input: "12.34", want: "12.34"},
		{name: "comma separator", input: "12,34", want: "12.34"},
		{name: "whole", input: "1000000", want: "1000000.00"},
		{name: "rounds third digit down", input: "12.344", want: "12.34"},
		{name: "rounds third digit up", input: "12.345", want: "12.35"},
		{name: "trims whitespace", input: " 5.00 ", want: "5.00"},
		{name: "empty", input: "", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "zero after rounding", input: "0.001", wantErr: true},
		{name: "negative", input: "-3.50", wantErr: true},
		{name: "explicit plus", input: "+3.50", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
		{name: "two separators", input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) = %s, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestAmountCentsRoundTrip(t *testing.T) {
	tests := []struct {
		amount string
		cents  int64
	}{
		{"12.34", 1234},
		{"0.01", 1},
		{"1000000", 100000000},
		{"550000", 55000000},
	}

	for _, tt := range tests {
		d := decimal.RequireFromString(tt.amount)
		if got := AmountToCents(d); got != tt.cents {
			t.Errorf("AmountToCents(%s) = %d, want %d", tt.amount, got, tt.cents)
		}
		if got := AmountFromCents(tt.cents); !got.Equal(d) {
			t.Errorf("AmountFromCents(%d) = %s, want %s", tt.cents, got, tt.amount)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1000000", "1,000,000"},
		{"550000", "550,000"},
		{"1234567.5", "1,234,567.50"},
		{"0.05", "0.05"},
		{"999", "999"},
	}

	for _, tt := range tests {
		d := decimal.RequireFromString(tt.input)
		if got := FormatAmount(d); got != tt.want {
			t.Errorf("FormatAmount(%s) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
