// Package pricing implements closed-form European option valuation and
// Greeks. All functions are pure and safe for concurrent use.
package pricing

import (
	"fmt"
	"math"

	"options-backtester/internal/models"
)

// DaysPerYear converts days-to-expiry into year fractions.
const DaysPerYear = 365.0

// normPDF is the standard normal density.
func normPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

// normCDF is the standard normal cumulative distribution, computed with
// the Abramowitz-Stegun rational polynomial approximation. Accurate to
// better than 1e-7 over the real line.
func normCDF(x float64) float64 {
	if x < 0 {
		return 1 - normCDF(-x)
	}

	const (
		p  = 0.2316419
		b1 = 0.319381530
		b2 = -0.356563782
		b3 = 1.781477937
		b4 = -1.821255978
		b5 = 1.330274429
	)

	t := 1 / (1 + p*x)
	poly := t * (b1 + t*(b2+t*(b3+t*(b4+t*b5))))
	return 1 - normPDF(x)*poly
}

// Intrinsic returns the exercise value of an option at expiry.
func Intrinsic(optType models.OptionType, spot, strike float64) float64 {
	if optType == models.Call {
		return math.Max(spot-strike, 0)
	}
	return math.Max(strike-spot, 0)
}

// Price values a European option with the Black-Scholes closed form.
// Volatility and rate are annualised decimals. At or past expiry
// (daysToExpiry <= 0) the price collapses to intrinsic value; the
// formula is never evaluated there.
func Price(optType models.OptionType, spot, strike, daysToExpiry, volatility, riskFreeRate float64) float64 {
	if daysToExpiry <= 0 {
		return Intrinsic(optType, spot, strike)
	}
	if volatility <= 0 || spot <= 0 || strike <= 0 {
		// Degenerate inputs carry no time value worth modelling.
		return Intrinsic(optType, spot, strike)
	}

	t := daysToExpiry / DaysPerYear
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(spot/strike) + (riskFreeRate+volatility*volatility/2)*t) / (volatility * sqrtT)
	d2 := d1 - volatility*sqrtT
	discount := math.Exp(-riskFreeRate * t)

	if optType == models.Call {
		return spot*normCDF(d1) - strike*discount*normCDF(d2)
	}
	return strike*discount*normCDF(-d2) - spot*normCDF(-d1)
}

// LegGreeks computes the Greeks of a single leg, scaled by direction and
// quantity. Theta is decay per calendar day, vega per 1 IV point and rho
// per 1 rate point. At or past expiry every Greek is exactly zero.
func LegGreeks(leg models.OptionLeg, spot, volatility, riskFreeRate float64) models.Greeks {
	if leg.DaysToExpiry <= 0 {
		return models.Greeks{}
	}

	vol := volatility
	if leg.IV != nil {
		vol = *leg.IV
	}
	if vol <= 0 || spot <= 0 || leg.Strike <= 0 {
		return models.Greeks{}
	}

	t := leg.DaysToExpiry / DaysPerYear
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(spot/leg.Strike) + (riskFreeRate+vol*vol/2)*t) / (vol * sqrtT)
	d2 := d1 - vol*sqrtT
	discount := math.Exp(-riskFreeRate * t)
	pdf := normPDF(d1)

	var delta, theta, rho float64
	if leg.Type == models.Call {
		delta = normCDF(d1)
		theta = -(spot*pdf*vol)/(2*sqrtT) - riskFreeRate*leg.Strike*discount*normCDF(d2)
		rho = leg.Strike * t * discount * normCDF(d2)
	} else {
		delta = normCDF(d1) - 1
		theta = -(spot*pdf*vol)/(2*sqrtT) + riskFreeRate*leg.Strike*discount*normCDF(-d2)
		rho = -leg.Strike * t * discount * normCDF(-d2)
	}

	scale := leg.Side.Sign() * float64(leg.Quantity)
	return models.Greeks{
		Delta: scale * delta,
		Gamma: scale * pdf / (spot * vol * sqrtT),
		Theta: scale * theta / DaysPerYear,
		Vega:  scale * spot * pdf * sqrtT / 100,
		Rho:   scale * rho / 100,
	}
}

// StrategyGreeks sums Greeks across legs. A leg with an IV override is
// priced at that volatility; other legs use the shared fallback, which
// lets what-if scenarios pin a single hypothetical volatility while
// legs with observed market IV keep it.
func StrategyGreeks(legs []models.OptionLeg, spot, fallbackVol, riskFreeRate float64) models.Greeks {
	var total models.Greeks
	for _, leg := range legs {
		total = total.Add(LegGreeks(leg, spot, fallbackVol, riskFreeRate))
	}
	return total
}

// ImpliedVolatility backs out the volatility that reproduces a market
// price, by Newton iteration on vega. Returns an error if the search
// does not converge.
func ImpliedVolatility(optType models.OptionType, marketPrice, spot, strike, daysToExpiry, riskFreeRate float64) (float64, error) {
	if daysToExpiry <= 0 {
		return 0, fmt.Errorf("implied volatility undefined at expiry")
	}

	const tol = 1e-6
	t := daysToExpiry / DaysPerYear
	sigma := 0.2

	for i := 0; i < 100; i++ {
		price := Price(optType, spot, strike, daysToExpiry, sigma, riskFreeRate)
		diff := price - marketPrice
		if math.Abs(diff) < tol {
			return sigma, nil
		}

		sqrtT := math.Sqrt(t)
		d1 := (math.Log(spot/strike) + (riskFreeRate+sigma*sigma/2)*t) / (sigma * sqrtT)
		vega := spot * normPDF(d1) * sqrtT
		if vega < 1e-12 {
			break
		}

		sigma -= diff / vega
		if sigma <= 0 {
			sigma = tol
		}
	}

	return 0, fmt.Errorf("implied volatility did not converge for price %.4f", marketPrice)
}
