// Package strategy provides concrete backtest strategies and the
// selection helpers they compose. Helpers are free functions rather
// than inherited methods so strategies stay independent of each other.
package strategy

import (
	"math"
	"sort"

	"options-backtester/internal/marketdata"
	"options-backtester/internal/models"
)

// OTMPuts returns the chain's out-of-the-money puts within the DTE
// window, in chain order.
func OTMPuts(chain *marketdata.OptionChain, minDTE, maxDTE int) []*marketdata.OptionSnapshot {
	return chain.Select(marketdata.Filter{
		Type:    models.Put,
		MinDTE:  minDTE,
		MaxDTE:  maxDTE,
		OTMOnly: true,
	})
}

// WithinStrikeDistance keeps contracts whose strike is within the given
// fraction of spot.
func WithinStrikeDistance(snaps []*marketdata.OptionSnapshot, spot, maxDistance float64) []*marketdata.OptionSnapshot {
	var out []*marketdata.OptionSnapshot
	for _, snap := range snaps {
		if math.Abs(snap.Strike-spot) <= spot*maxDistance {
			out = append(out, snap)
		}
	}
	return out
}

// NearDelta keeps contracts whose absolute delta is within tolerance of
// target. Contracts without Greeks are dropped.
func NearDelta(snaps []*marketdata.OptionSnapshot, target, tolerance float64) []*marketdata.OptionSnapshot {
	var out []*marketdata.OptionSnapshot
	for _, snap := range snaps {
		if snap.Greeks == nil {
			continue
		}
		if math.Abs(math.Abs(snap.Greeks.Delta)-target) <= tolerance {
			out = append(out, snap)
		}
	}
	return out
}

// SortByPremiumDesc orders contracts by descending mid-price. The sort
// is stable with a symbol tiebreak so candidate selection stays
// deterministic across runs.
func SortByPremiumDesc(snaps []*marketdata.OptionSnapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		if snaps[i].Mid() != snaps[j].Mid() {
			return snaps[i].Mid() > snaps[j].Mid()
		}
		return snaps[i].Symbol < snaps[j].Symbol
	})
}
