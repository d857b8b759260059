package pricing

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-backtester/internal/models"
)

// Property: for any spot, strike, T > 0, rate and volatility,
// call - put == S - K*e^(-rT) within floating tolerance.
func TestProperty_PutCallParity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(1)

	properties := gopter.NewProperties(parameters)

	properties.Property("put-call parity holds", prop.ForAll(
		func(spot, strike, dte, vol, rate float64) bool {
			call := Price(models.Call, spot, strike, dte, vol, rate)
			put := Price(models.Put, spot, strike, dte, vol, rate)

			t0 := dte / DaysPerYear
			parity := spot - strike*math.Exp(-rate*t0)
			return math.Abs((call-put)-parity) < 1e-6
		},
		gen.Float64Range(10, 1000),
		gen.Float64Range(10, 1000),
		gen.Float64Range(0.5, 730),
		gen.Float64Range(0.01, 2),
		gen.Float64Range(0, 0.15),
	))

	properties.TestingRun(t)
}

// Property: call price is non-decreasing in spot and put price is
// non-increasing in spot, holding the other parameters fixed.
func TestProperty_PriceMonotonicInSpot(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(2)

	properties := gopter.NewProperties(parameters)

	properties.Property("call up, put down in spot", prop.ForAll(
		func(spotLo, bump, strike, dte, vol float64) bool {
			spotHi := spotLo + bump

			callLo := Price(models.Call, spotLo, strike, dte, vol, 0.05)
			callHi := Price(models.Call, spotHi, strike, dte, vol, 0.05)
			putLo := Price(models.Put, spotLo, strike, dte, vol, 0.05)
			putHi := Price(models.Put, spotHi, strike, dte, vol, 0.05)

			// Tolerance absorbs the CDF approximation error, which
			// can locally exceed the true price change.
			return callHi >= callLo-1e-3 && putHi <= putLo+1e-3
		},
		gen.Float64Range(10, 500),
		gen.Float64Range(0.01, 100),
		gen.Float64Range(10, 500),
		gen.Float64Range(1, 365),
		gen.Float64Range(0.05, 1),
	))

	properties.TestingRun(t)
}

// Property: price never drops below intrinsic value for calls on a
// non-dividend underlying.
func TestProperty_CallAboveIntrinsic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(3)

	properties := gopter.NewProperties(parameters)

	properties.Property("call >= intrinsic", prop.ForAll(
		func(spot, strike, dte, vol float64) bool {
			price := Price(models.Call, spot, strike, dte, vol, 0.05)
			return price >= Intrinsic(models.Call, spot, strike)-1e-3
		},
		gen.Float64Range(10, 500),
		gen.Float64Range(10, 500),
		gen.Float64Range(1, 365),
		gen.Float64Range(0.05, 1),
	))

	properties.TestingRun(t)
}
