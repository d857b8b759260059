package utils

import "testing"

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{0, "$0.00"},
		{999.5, "$999.50"},
		{1234.5, "$1,234.50"},
		{1234567.89, "$1,234,567.89"},
		{-2500, "-$2,500.00"},
	}
	for _, c := range cases {
		if got := FormatMoney(c.amount); got != c.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", c.amount, got, c.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	cases := []struct {
		value float64
		want  string
	}{
		{12.5, "+12.50%"},
		{-3.2, "-3.20%"},
		{0, "0.00%"},
	}
	for _, c := range cases {
		if got := FormatPercent(c.value); got != c.want {
			t.Errorf("FormatPercent(%v) = %q, want %q", c.value, got, c.want)
		}
	}
}

func TestFormatPnL(t *testing.T) {
	cases := []struct {
		pnl  float64
		want string
	}{
		{150, "+$150.00"},
		{-150, "-$150.00"},
		{0, "$0.00"},
	}
	for _, c := range cases {
		if got := FormatPnL(c.pnl); got != c.want {
			t.Errorf("FormatPnL(%v) = %q, want %q", c.pnl, got, c.want)
		}
	}
}
