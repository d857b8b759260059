// Package marketdata models per-timestamp option market facts and the
// queries the backtester runs against them.
package marketdata

import (
	"math"
	"time"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
)

// OptionSnapshot is an immutable observation of one option contract at
// one timestamp. Mid-price, moneyness and days-to-expiry are derived on
// demand, never stored.
type OptionSnapshot struct {
	Symbol          string
	Type            models.OptionType
	Strike          float64
	Expiration      time.Time
	Bid             float64
	Ask             float64
	UnderlyingPrice float64
	IV              *float64
	Greeks          *models.Greeks
}

// Validate checks the quote for shape errors.
func (s *OptionSnapshot) Validate() error {
	if s.Symbol == "" {
		return errors.NewValidationError("symbol", s.Symbol, "symbol is required")
	}
	if s.Strike <= 0 {
		return errors.NewValidationError("strike", s.Strike, "strike must be positive")
	}
	if s.Ask < s.Bid {
		return errors.NewValidationError("ask", s.Ask, "ask below bid")
	}
	return nil
}

// Mid returns the bid/ask midpoint.
func (s *OptionSnapshot) Mid() float64 {
	return (s.Bid + s.Ask) / 2
}

// DaysToExpiry counts whole calendar days from asOf to expiration,
// rounded up and floored at zero.
func (s *OptionSnapshot) DaysToExpiry(asOf time.Time) int {
	days := math.Ceil(s.Expiration.Sub(asOf).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}

// Moneyness is the spot/strike ratio for calls and strike/spot for
// puts, so values above 1 are in the money for either type.
func (s *OptionSnapshot) Moneyness() float64 {
	if s.Strike == 0 {
		return 0
	}
	if s.Type == models.Call {
		return s.UnderlyingPrice / s.Strike
	}
	return s.Strike / s.UnderlyingPrice
}

// ITM reports whether the contract is in the money at the snapshot's
// underlying price.
func (s *OptionSnapshot) ITM() bool {
	if s.Type == models.Call {
		return s.UnderlyingPrice > s.Strike
	}
	return s.UnderlyingPrice < s.Strike
}

// OTM reports whether the contract is out of the money.
func (s *OptionSnapshot) OTM() bool {
	return !s.ITM() && s.UnderlyingPrice != s.Strike
}
