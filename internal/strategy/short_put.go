package strategy

import (
	"fmt"

	"options-backtester/internal/backtest"
	"options-backtester/internal/models"
	"options-backtester/internal/pricing"
)

// ShortPutParams tunes the premium-selling strategy.
type ShortPutParams struct {
	// TakeProfitPercent closes a position once its unrealized profit
	// reaches this share of the collected premium.
	TakeProfitPercent float64
	// StopLossPercent closes a position once its unrealized loss
	// reaches this share of the collected premium.
	StopLossPercent float64
	// MinDTE/MaxDTE bound candidate expirations at entry.
	MinDTE int
	MaxDTE int
	// ExitDTE closes positions whose remaining days fall below it.
	ExitDTE int
	// MaxStrikeDistance bounds candidate strikes as a fraction of spot.
	MaxStrikeDistance float64
	// TargetDelta, when non-zero, narrows candidates to |delta| within
	// 0.05 of it.
	TargetDelta float64
	// MaxOpenPositions caps the open book.
	MaxOpenPositions int
	// Quantity is the contract count per entry.
	Quantity int
}

// DefaultShortPutParams returns the conventional 50%-profit, 45-DTE
// premium-seller configuration.
func DefaultShortPutParams() ShortPutParams {
	return ShortPutParams{
		TakeProfitPercent: 50,
		StopLossPercent:   200,
		MinDTE:            20,
		MaxDTE:            60,
		ExitDTE:           7,
		MaxStrikeDistance: 0.15,
		MaxOpenPositions:  1,
		Quantity:          1,
	}
}

// ShortPut sells out-of-the-money puts and manages them by profit
// target, stop loss and remaining days to expiry. It holds no state of
// its own; every decision derives from the context, so runs are
// deterministic.
type ShortPut struct {
	params ShortPutParams
}

// NewShortPut creates the strategy with the given parameters.
func NewShortPut(params ShortPutParams) *ShortPut {
	if params.Quantity <= 0 {
		params.Quantity = 1
	}
	if params.MaxOpenPositions <= 0 {
		params.MaxOpenPositions = 1
	}
	return &ShortPut{params: params}
}

// Name returns the strategy identifier.
func (s *ShortPut) Name() string {
	return fmt.Sprintf("short_put_tp%.0f_sl%.0f", s.params.TakeProfitPercent, s.params.StopLossPercent)
}

// OnTimestamp evaluates exits for every open position first, then opens
// the single best candidate if capacity allows.
func (s *ShortPut) OnTimestamp(ctx *backtest.Context) ([]backtest.Signal, error) {
	var signals []backtest.Signal

	closing := 0
	for _, pos := range ctx.Portfolio.OpenPositions() {
		if sig, ok := s.exitSignal(ctx, pos); ok {
			signals = append(signals, sig)
			closing++
		}
	}

	openAfterCloses := len(ctx.Portfolio.OpenPositions()) - closing
	if openAfterCloses < s.params.MaxOpenPositions {
		if sig, ok := s.entrySignal(ctx); ok {
			signals = append(signals, sig)
		}
	}

	return signals, nil
}

func (s *ShortPut) exitSignal(ctx *backtest.Context, pos *backtest.Position) (backtest.Signal, bool) {
	price := s.markPrice(ctx, pos)
	pnlPercent := pos.PnLPercentAt(price, backtest.ContractMultiplier)

	if pnlPercent >= s.params.TakeProfitPercent {
		reason := fmt.Sprintf("take_profit_%.1f%%", pnlPercent)
		return backtest.CloseSignal(pos, reason), true
	}
	if pnlPercent <= -s.params.StopLossPercent {
		reason := fmt.Sprintf("stop_loss_%.1f%%", pnlPercent)
		return backtest.CloseSignal(pos, reason), true
	}
	if dte := pos.Entry.DaysToExpiry(ctx.Timestamp); dte <= s.params.ExitDTE {
		reason := fmt.Sprintf("dte_exit_%d", dte)
		return backtest.CloseSignal(pos, reason), true
	}
	return backtest.Signal{}, false
}

func (s *ShortPut) entrySignal(ctx *backtest.Context) (backtest.Signal, bool) {
	candidates := OTMPuts(ctx.Chain, s.params.MinDTE, s.params.MaxDTE)
	candidates = WithinStrikeDistance(candidates, ctx.UnderlyingPrice, s.params.MaxStrikeDistance)
	if s.params.TargetDelta != 0 {
		candidates = NearDelta(candidates, s.params.TargetDelta, 0.05)
	}
	if len(candidates) == 0 {
		return backtest.Signal{}, false
	}

	SortByPremiumDesc(candidates)
	best := candidates[0]
	if best.Mid() <= 0 {
		return backtest.Signal{}, false
	}

	reason := fmt.Sprintf("sell_put_%.0fdte", float64(best.DaysToExpiry(ctx.Timestamp)))
	return backtest.OpenSignal(best, models.Short, s.params.Quantity, reason), true
}

// markPrice values a held contract at its live mid, falling back to
// intrinsic value when the contract has dropped out of the chain.
func (s *ShortPut) markPrice(ctx *backtest.Context, pos *backtest.Position) float64 {
	if snap, ok := ctx.Chain.Get(pos.Entry.Symbol); ok {
		return snap.Mid()
	}
	return pricing.Intrinsic(pos.Entry.Type, ctx.UnderlyingPrice, pos.Entry.Strike)
}
