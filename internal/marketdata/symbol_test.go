package marketdata

import (
	"testing"
	"time"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
)

func TestParseOptionSymbol(t *testing.T) {
	tests := []struct {
		symbol     string
		underlying string
		expiry     string
		optType    models.OptionType
		strike     float64
	}{
		{"AAPL240621C00150000", "AAPL", "2024-06-21", models.Call, 150},
		{"SPY250117P00480500", "SPY", "2025-01-17", models.Put, 480.5},
		{"BRK.B240315C00400000", "BRK.B", "2024-03-15", models.Call, 400},
		{"F261218P00012500", "F", "2026-12-18", models.Put, 12.5},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			got, err := ParseOptionSymbol(tt.symbol)
			if err != nil {
				t.Fatalf("ParseOptionSymbol() error: %v", err)
			}
			if got.Underlying != tt.underlying {
				t.Errorf("underlying = %q, want %q", got.Underlying, tt.underlying)
			}
			if got.Expiration.Format("2006-01-02") != tt.expiry {
				t.Errorf("expiration = %v, want %s", got.Expiration, tt.expiry)
			}
			if got.Type != tt.optType {
				t.Errorf("type = %v, want %v", got.Type, tt.optType)
			}
			if got.Strike != tt.strike {
				t.Errorf("strike = %v, want %v", got.Strike, tt.strike)
			}
		})
	}
}

func TestParseOptionSymbolRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"AAPL",
		"AAPL240621X00150000",  // bad type letter
		"AAPL240621C0015000",   // 7-digit strike
		"AAPL240621C001500000", // 9-digit strike
		"aapl240621C00150000",  // lowercase underlying
		"AAPL2406C00150000",    // short date
		"240621C00150000",      // no underlying
		"AAPL241350C00150000",  // impossible month
	}

	for _, symbol := range bad {
		if _, err := ParseOptionSymbol(symbol); err == nil {
			t.Errorf("ParseOptionSymbol(%q) succeeded, want error", symbol)
		} else if !errors.Is(err, errors.ErrInvalidSymbol) {
			t.Errorf("ParseOptionSymbol(%q) error = %v, want ErrInvalidSymbol", symbol, err)
		}
	}
}

func TestBuildOptionSymbol(t *testing.T) {
	expiry := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)

	got := BuildOptionSymbol("AAPL", expiry, models.Call, 150)
	if got != "AAPL240621C00150000" {
		t.Errorf("BuildOptionSymbol() = %q, want AAPL240621C00150000", got)
	}

	got = BuildOptionSymbol("SPY", time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC), models.Put, 480.5)
	if got != "SPY250117P00480500" {
		t.Errorf("BuildOptionSymbol() = %q, want SPY250117P00480500", got)
	}
}

func TestSymbolRoundTrip(t *testing.T) {
	expiry := time.Date(2026, 12, 18, 0, 0, 0, 0, time.UTC)
	symbol := BuildOptionSymbol("TSLA", expiry, models.Put, 232.5)

	parsed, err := ParseOptionSymbol(symbol)
	if err != nil {
		t.Fatalf("round trip parse error: %v", err)
	}
	if parsed.Underlying != "TSLA" || parsed.Strike != 232.5 || parsed.Type != models.Put {
		t.Errorf("round trip mismatch: %+v", parsed)
	}
	if !parsed.Expiration.Equal(expiry) {
		t.Errorf("expiration = %v, want %v", parsed.Expiration, expiry)
	}
}
