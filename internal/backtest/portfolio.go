package backtest

import (
	"time"

	"options-backtester/internal/errors"
	"options-backtester/internal/marketdata"
	"options-backtester/internal/models"
	"options-backtester/internal/pricing"
)

// ContractMultiplier is the share count per standard option contract.
const ContractMultiplier = 100

// Portfolio is the cash/position ledger for one backtest run. Cash is
// the only quantity trade execution mutates; equity is always derived
// on demand. A portfolio is owned by exactly one run and is not safe
// for concurrent use.
type Portfolio struct {
	cash         float64
	startingCash float64
	nextID       int64
	open         []*Position
	trades       []Trade
}

// NewPortfolio creates a ledger with the given starting cash.
func NewPortfolio(startingCash float64) *Portfolio {
	return &Portfolio{
		cash:         startingCash,
		startingCash: startingCash,
		nextID:       1,
	}
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 {
	return p.cash
}

// StartingCash returns the original cash balance.
func (p *Portfolio) StartingCash() float64 {
	return p.startingCash
}

// OpenPositions returns the open lots in opening order. Callers must
// not mutate them.
func (p *Portfolio) OpenPositions() []*Position {
	return p.open
}

// Trades returns the append-only closed-trade log.
func (p *Portfolio) Trades() []Trade {
	return p.trades
}

// OpenPosition opens a lot at entryPrice. A long open is refused with
// ErrInsufficientCash when the purchase exceeds available cash; shorts
// are never cash-blocked. Refusal is an expected, loggable outcome, not
// a failure of the run.
func (p *Portfolio) OpenPosition(snap *marketdata.OptionSnapshot, direction models.Side, quantity int, entryPrice float64, ts time.Time) (*Position, error) {
	if quantity <= 0 {
		return nil, errors.NewValidationError("quantity", quantity, "must be positive")
	}
	if entryPrice < 0 {
		return nil, errors.NewValidationError("entryPrice", entryPrice, "must be non-negative")
	}

	cost := entryPrice * ContractMultiplier * float64(quantity)
	if direction == models.Long {
		if cost > p.cash {
			return nil, errors.ErrInsufficientCash
		}
		p.cash -= cost
	} else {
		p.cash += cost
	}

	pos := &Position{
		ID:         p.nextID,
		Entry:      snap,
		EntryPrice: entryPrice,
		EntryTime:  ts,
		Quantity:   quantity,
		Direction:  direction,
	}
	p.nextID++
	p.open = append(p.open, pos)
	return pos, nil
}

// ClosePosition exits a lot at exitPrice, reverses the opening cash
// flow and appends the realized trade. Closing an already closed
// position returns ErrPositionClosed.
func (p *Portfolio) ClosePosition(pos *Position, exitPrice float64, ts time.Time, reason string) (*Trade, error) {
	if pos.closed {
		return nil, errors.ErrPositionClosed
	}

	idx := -1
	for i, open := range p.open {
		if open == pos {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errors.ErrPositionNotFound
	}

	value := exitPrice * ContractMultiplier * float64(pos.Quantity)
	if pos.Direction == models.Long {
		p.cash += value
	} else {
		p.cash -= value
	}

	pos.closed = true
	pos.ExitPrice = exitPrice
	pos.ExitTime = ts
	pos.RealizedPnL = pos.PnLAt(exitPrice, ContractMultiplier)

	trade := Trade{
		PositionID: pos.ID,
		Symbol:     pos.Entry.Symbol,
		Type:       pos.Entry.Type,
		Strike:     pos.Entry.Strike,
		Direction:  pos.Direction,
		Quantity:   pos.Quantity,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		EntryTime:  pos.EntryTime,
		ExitTime:   ts,
		PnL:        pos.RealizedPnL,
		PnLPercent: percentOfNotional(pos.RealizedPnL, pos.Notional(ContractMultiplier)),
		Reason:     reason,
	}

	p.open = append(p.open[:idx], p.open[idx+1:]...)
	p.trades = append(p.trades, trade)
	return &p.trades[len(p.trades)-1], nil
}

// ClosePositionAtExpiration exits a lot at intrinsic value computed
// from the underlying price, used when no further quote exists.
func (p *Portfolio) ClosePositionAtExpiration(pos *Position, underlyingPrice float64, ts time.Time) (*Trade, error) {
	intrinsic := pricing.Intrinsic(pos.Entry.Type, underlyingPrice, pos.Entry.Strike)
	reason := "expired_otm"
	if intrinsic > 0 {
		reason = "expired_itm"
	}
	return p.ClosePosition(pos, intrinsic, ts, reason)
}

// Equity marks every open lot at the latest available price per symbol
// and adds the result to cash. A symbol with no quote falls back to its
// entry price. Equity computation never mutates the ledger.
func (p *Portfolio) Equity(pricesBySymbol map[string]float64) float64 {
	equity := p.cash
	for _, pos := range p.open {
		price, ok := pricesBySymbol[pos.Entry.Symbol]
		if !ok {
			price = pos.EntryPrice
		}
		value := price * ContractMultiplier * float64(pos.Quantity)
		if pos.Direction == models.Long {
			equity += value
		} else {
			equity -= value
		}
	}
	return equity
}

// ReturnPercent is the total return over starting cash at the given
// equity level.
func (p *Portfolio) ReturnPercent(equity float64) float64 {
	if p.startingCash == 0 {
		return 0
	}
	return (equity - p.startingCash) / p.startingCash * 100
}

func percentOfNotional(pnl, notional float64) float64 {
	if notional == 0 {
		return 0
	}
	return pnl / notional * 100
}
