// Package metrics derives aggregate risk figures for a collection of
// option legs from their terminal payoff. All functions are pure.
package metrics

import (
	"math"
	"sort"

	"options-backtester/internal/models"
	"options-backtester/internal/pricing"
)

// ContractMultiplier is the share count per standard option contract.
const ContractMultiplier = 100

// gridPoints is the minimum density of the sampled price domain.
const gridPoints = 240

// Compute scans the terminal payoff of the legs over a dense price grid
// and derives max profit, max loss, breakevens and net premium. The
// grid spans at least [0.5*spot, 1.5*spot], widened so every strike is
// bracketed with margin, and includes each strike as an exact sample
// point so the piecewise-linear payoff is interpolated without error.
func Compute(legs []models.OptionLeg, underlyingPrice float64) models.StrategyMetrics {
	m := models.StrategyMetrics{
		NetPremium: NetPremium(legs),
	}
	if len(legs) == 0 {
		m.MaxProfit = models.Bounded(0)
		m.MaxLoss = models.Bounded(0)
		return m
	}

	prices := buildGrid(legs, underlyingPrice)
	payoff := make([]float64, len(prices))
	for i, p := range prices {
		payoff[i] = PayoffAt(legs, p)
	}

	m.MaxProfit, m.MaxLoss = extrema(prices, payoff)
	m.Breakevens = breakevens(prices, payoff)
	return m
}

// PayoffAt evaluates the total expiry payoff of the legs at one
// underlying price, in account currency.
func PayoffAt(legs []models.OptionLeg, price float64) float64 {
	var total float64
	for _, leg := range legs {
		intrinsic := pricing.Intrinsic(leg.Type, price, leg.Strike)
		perShare := intrinsic - leg.Premium
		if leg.Side == models.Short {
			perShare = leg.Premium - intrinsic
		}
		total += perShare * float64(leg.Quantity) * ContractMultiplier
	}
	return total
}

// NetPremium is the signed premium collected across legs; positive is a
// net credit, negative a net debit.
func NetPremium(legs []models.OptionLeg) float64 {
	var total float64
	for _, leg := range legs {
		amount := leg.Premium * float64(leg.Quantity) * ContractMultiplier
		if leg.Side == models.Short {
			total += amount
		} else {
			total -= amount
		}
	}
	return total
}

func buildGrid(legs []models.OptionLeg, spot float64) []float64 {
	lo := 0.5 * spot
	hi := 1.5 * spot
	for _, leg := range legs {
		if leg.Strike*0.8 < lo {
			lo = leg.Strike * 0.8
		}
		if leg.Strike*1.2 > hi {
			hi = leg.Strike * 1.2
		}
	}
	if lo < 0 {
		lo = 0
	}

	step := (hi - lo) / float64(gridPoints-1)
	prices := make([]float64, 0, gridPoints+len(legs))
	for i := 0; i < gridPoints; i++ {
		prices = append(prices, lo+step*float64(i))
	}
	for _, leg := range legs {
		prices = append(prices, leg.Strike)
	}
	sort.Float64s(prices)
	return prices
}

// extrema finds the max and min of the payoff series. An extreme that
// sits on a grid boundary and is still growing toward it has no finite
// value within the sampled domain and is reported as unbounded.
func extrema(prices, payoff []float64) (maxProfit, maxLoss models.Extremum) {
	maxIdx, minIdx := 0, 0
	for i := range payoff {
		if payoff[i] > payoff[maxIdx] {
			maxIdx = i
		}
		if payoff[i] < payoff[minIdx] {
			minIdx = i
		}
	}

	last := len(payoff) - 1
	maxProfit = models.Bounded(payoff[maxIdx])
	if (maxIdx == 0 && payoff[0] > payoff[1]) || (maxIdx == last && payoff[last] > payoff[last-1]) {
		maxProfit = models.UnboundedExtremum()
	}

	maxLoss = models.Bounded(payoff[minIdx])
	if (minIdx == 0 && payoff[0] < payoff[1]) || (minIdx == last && payoff[last] < payoff[last-1]) {
		maxLoss = models.UnboundedExtremum()
	}
	return maxProfit, maxLoss
}

// breakevens returns every zero crossing of the payoff series, with the
// crossing price linearly interpolated between the bracketing samples.
func breakevens(prices, payoff []float64) []float64 {
	var crossings []float64
	appendCrossing := func(p float64) {
		if len(crossings) > 0 && math.Abs(crossings[len(crossings)-1]-p) < 1e-9 {
			return
		}
		crossings = append(crossings, p)
	}

	for i := range payoff {
		if payoff[i] == 0 {
			appendCrossing(prices[i])
			continue
		}
		if i == 0 {
			continue
		}
		if payoff[i-1]*payoff[i] < 0 {
			frac := (0 - payoff[i-1]) / (payoff[i] - payoff[i-1])
			appendCrossing(prices[i-1] + (prices[i]-prices[i-1])*frac)
		}
	}
	return crossings
}
