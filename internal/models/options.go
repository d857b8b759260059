// Package models defines the core value types shared across the
// pricing, metrics and backtesting packages.
package models

// OptionType distinguishes calls from puts.
type OptionType string

const (
	Call OptionType = "CALL"
	Put  OptionType = "PUT"
)

// Side is the direction of an option leg or position.
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// Sign returns +1 for long and -1 for short.
func (s Side) Sign() float64 {
	if s == Short {
		return -1
	}
	return 1
}

// OptionLeg represents one leg of a multi-leg option strategy.
// Premium is stored as a non-negative per-share amount; the cash-flow
// direction is always derived from Side, never folded into the number.
type OptionLeg struct {
	Type     OptionType
	Side     Side
	Strike   float64
	Quantity int
	Premium  float64
	// DaysToExpiry may be fractional for intraday decay.
	DaysToExpiry float64
	// IV, when set, overrides the shared volatility for this leg.
	IV *float64
}

// Greeks holds the standard first and second order sensitivities.
// Theta is per calendar day, vega per 1 IV point, rho per 1 rate point.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// Add returns the pointwise sum of two Greeks sets.
func (g Greeks) Add(o Greeks) Greeks {
	return Greeks{
		Delta: g.Delta + o.Delta,
		Gamma: g.Gamma + o.Gamma,
		Theta: g.Theta + o.Theta,
		Vega:  g.Vega + o.Vega,
		Rho:   g.Rho + o.Rho,
	}
}

// StrategyMetrics summarises the terminal risk profile of a set of legs.
type StrategyMetrics struct {
	MaxProfit  Extremum
	MaxLoss    Extremum
	Breakevens []float64
	NetPremium float64
}

// Extremum is a tagged max-profit/max-loss figure. Unbounded means the
// payoff extreme was still growing at the edge of the sampled price
// domain, so no finite figure exists.
type Extremum struct {
	Value     float64
	Unbounded bool
}

// Bounded returns a finite extremum.
func Bounded(v float64) Extremum {
	return Extremum{Value: v}
}

// UnboundedExtremum returns the unbounded sentinel.
func UnboundedExtremum() Extremum {
	return Extremum{Unbounded: true}
}
