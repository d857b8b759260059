package marketdata

import (
	"math"
	"time"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
)

// OptionChain is the set of option snapshots observed at one timestamp.
// It is write-once: snapshots are appended during construction and the
// chain is read-only afterward. All queries are pure.
type OptionChain struct {
	timestamp time.Time
	snapshots []*OptionSnapshot
	bySymbol  map[string]*OptionSnapshot
}

// NewOptionChain creates an empty chain for one timestamp.
func NewOptionChain(timestamp time.Time) *OptionChain {
	return &OptionChain{
		timestamp: timestamp,
		bySymbol:  make(map[string]*OptionSnapshot),
	}
}

// Timestamp returns the observation time the chain represents.
func (c *OptionChain) Timestamp() time.Time {
	return c.timestamp
}

// Add appends a snapshot during construction. Duplicate symbols and
// invalid quotes are rejected.
func (c *OptionChain) Add(snap *OptionSnapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	if _, ok := c.bySymbol[snap.Symbol]; ok {
		return errors.NewValidationError("symbol", snap.Symbol, "duplicate symbol in chain")
	}
	c.snapshots = append(c.snapshots, snap)
	c.bySymbol[snap.Symbol] = snap
	return nil
}

// Len returns the number of contracts in the chain.
func (c *OptionChain) Len() int {
	return len(c.snapshots)
}

// Get looks up a snapshot by exact symbol.
func (c *OptionChain) Get(symbol string) (*OptionSnapshot, bool) {
	snap, ok := c.bySymbol[symbol]
	return snap, ok
}

// Snapshots returns the chain's contracts in insertion order. Callers
// must not mutate the returned snapshots.
func (c *OptionChain) Snapshots() []*OptionSnapshot {
	return c.snapshots
}

// NearestStrike returns the contract of the given type whose strike is
// closest to target. Ties go to the first contract encountered.
func (c *OptionChain) NearestStrike(optType models.OptionType, target float64) *OptionSnapshot {
	var best *OptionSnapshot
	bestDist := math.Inf(1)
	for _, snap := range c.snapshots {
		if snap.Type != optType {
			continue
		}
		dist := math.Abs(snap.Strike - target)
		if dist < bestDist {
			best = snap
			bestDist = dist
		}
	}
	return best
}

// NearestDelta returns the contract of the given type whose delta is
// closest to target. Contracts without Greeks are skipped.
func (c *OptionChain) NearestDelta(optType models.OptionType, target float64) *OptionSnapshot {
	var best *OptionSnapshot
	bestDist := math.Inf(1)
	for _, snap := range c.snapshots {
		if snap.Type != optType || snap.Greeks == nil {
			continue
		}
		dist := math.Abs(snap.Greeks.Delta - target)
		if dist < bestDist {
			best = snap
			bestDist = dist
		}
	}
	return best
}

// Filter selects contracts matching every set predicate. Zero values
// leave a predicate unset.
type Filter struct {
	Type       models.OptionType
	MinDTE     int
	MaxDTE     int // 0 = no upper bound
	MinStrike  float64
	MaxStrike  float64 // 0 = no upper bound
	MinPremium float64 // against mid-price
	OTMOnly    bool
	ITMOnly    bool
}

// Select returns the contracts matching the filter, in chain order.
func (c *OptionChain) Select(f Filter) []*OptionSnapshot {
	var out []*OptionSnapshot
	for _, snap := range c.snapshots {
		if f.Type != "" && snap.Type != f.Type {
			continue
		}
		dte := snap.DaysToExpiry(c.timestamp)
		if dte < f.MinDTE {
			continue
		}
		if f.MaxDTE > 0 && dte > f.MaxDTE {
			continue
		}
		if snap.Strike < f.MinStrike {
			continue
		}
		if f.MaxStrike > 0 && snap.Strike > f.MaxStrike {
			continue
		}
		if snap.Mid() < f.MinPremium {
			continue
		}
		if f.OTMOnly && !snap.OTM() {
			continue
		}
		if f.ITMOnly && !snap.ITM() {
			continue
		}
		out = append(out, snap)
	}
	return out
}
