package metrics

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-backtester/internal/models"
)

func legGen() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf(models.Call, models.Put),
		gen.OneConstOf(models.Long, models.Short),
		gen.Float64Range(50, 150),
		gen.IntRange(1, 5),
		gen.Float64Range(0.05, 20),
	).Map(func(vals []interface{}) models.OptionLeg {
		return models.OptionLeg{
			Type:     vals[0].(models.OptionType),
			Side:     vals[1].(models.Side),
			Strike:   vals[2].(float64),
			Quantity: vals[3].(int),
			Premium:  vals[4].(float64),
		}
	})
}

// Property: the terminal payoff evaluated at any reported breakeven is
// zero within floating tolerance.
func TestProperty_PayoffZeroAtBreakevens(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(4)

	properties := gopter.NewProperties(parameters)

	properties.Property("payoff(breakeven) == 0", prop.ForAll(
		func(legs []models.OptionLeg) bool {
			m := Compute(legs, 100)
			for _, be := range m.Breakevens {
				if math.Abs(PayoffAt(legs, be)) > 1e-5 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(2, legGen()),
	))

	properties.TestingRun(t)
}

// Property: net premium equals the signed sum of leg premiums times
// quantity and multiplier, with shorts positive.
func TestProperty_NetPremiumSign(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(5)

	properties := gopter.NewProperties(parameters)

	properties.Property("net premium matches leg sum", prop.ForAll(
		func(legs []models.OptionLeg) bool {
			var want float64
			for _, leg := range legs {
				amount := leg.Premium * float64(leg.Quantity) * ContractMultiplier
				if leg.Side == models.Short {
					want += amount
				} else {
					want -= amount
				}
			}
			return math.Abs(NetPremium(legs)-want) < 1e-9
		},
		gen.SliceOfN(3, legGen()),
	))

	properties.TestingRun(t)
}
