// Package backtest replays historical option chains through a pluggable
// strategy, maintaining a cash/position ledger and producing performance
// statistics.
package backtest

import (
	"time"

	"options-backtester/internal/marketdata"
	"options-backtester/internal/models"
)

// Position is one open or closed lot. It transitions open -> closed
// exactly once; closing is the only mutation after creation. IDs are
// assigned from a monotonically increasing counter by the owning
// portfolio.
type Position struct {
	ID         int64
	Entry      *marketdata.OptionSnapshot
	EntryPrice float64
	EntryTime  time.Time
	Quantity   int
	Direction  models.Side

	closed      bool
	ExitPrice   float64
	ExitTime    time.Time
	RealizedPnL float64
}

// Closed reports whether the position has been exited.
func (p *Position) Closed() bool {
	return p.closed
}

// Notional is the entry value of the lot in account currency.
func (p *Position) Notional(multiplier int) float64 {
	return p.EntryPrice * float64(multiplier) * float64(p.Quantity)
}

// PnLAt returns the unrealized profit of the lot marked at price.
func (p *Position) PnLAt(price float64, multiplier int) float64 {
	perShare := price - p.EntryPrice
	if p.Direction == models.Short {
		perShare = p.EntryPrice - price
	}
	return perShare * float64(multiplier) * float64(p.Quantity)
}

// PnLPercentAt returns the unrealized profit of the lot marked at
// price, as a percentage of the entry notional.
func (p *Position) PnLPercentAt(price float64, multiplier int) float64 {
	notional := p.Notional(multiplier)
	if notional == 0 {
		return 0
	}
	return p.PnLAt(price, multiplier) / notional * 100
}

// Trade is a frozen record derived from a closed position. Trades are
// immutable once appended to the portfolio's log.
type Trade struct {
	PositionID int64
	Symbol     string
	Type       models.OptionType
	Strike     float64
	Direction  models.Side
	Quantity   int
	EntryPrice float64
	ExitPrice  float64
	EntryTime  time.Time
	ExitTime   time.Time
	PnL        float64
	PnLPercent float64
	Reason     string
}
