package backtest

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"options-backtester/internal/dataload"
	"options-backtester/internal/logging"
	"options-backtester/internal/marketdata"
	"options-backtester/internal/pricing"
)

// ProgressFunc receives best-effort progress notifications. There is no
// backpressure or acknowledgement; a nil callback disables reporting.
type ProgressFunc func(percent float64, message string)

// Config describes one backtest run.
type Config struct {
	Symbol      string
	StartDate   time.Time
	EndDate     time.Time
	InitialCash float64
	Strategy    Strategy
	Progress    ProgressFunc
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}

// Result is the read-only aggregate produced once per run.
type Result struct {
	Symbol        string
	StrategyName  string
	StartDate     time.Time
	EndDate       time.Time
	StartingCash  float64
	EndingCash    float64
	TotalPnL      float64
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	MaxDrawdown   float64
	AvgWin        float64
	AvgLoss       float64
	ProfitFactor  float64
	Trades        []Trade
	EquityCurve   []EquityPoint
}

// Backtester replays chronological option-chain snapshots through a
// strategy. The replay is strictly sequential: decisions at time T
// depend on the exact ledger state after all signals through T-1, so
// runs are deterministic bit-for-bit given the same inputs.
type Backtester struct {
	cfg    Config
	logger zerolog.Logger
	events *EventLog
}

// New creates a backtester for one run.
func New(cfg Config, logger zerolog.Logger) *Backtester {
	return &Backtester{
		cfg:    cfg,
		logger: logger,
		events: &EventLog{},
	}
}

// Events returns the run's append-only audit log.
func (b *Backtester) Events() *EventLog {
	return b.events
}

// RunWithData executes the backtest over pre-materialized per-date
// chains and underlying prices. Dates outside the configured range are
// ignored; dates missing either a chain or an underlying price are
// skipped entirely, never silently substituted.
func (b *Backtester) RunWithData(chainsByDate map[string]*marketdata.OptionChain, stockPricesByDate map[string]float64) (*Result, error) {
	if b.cfg.Strategy == nil {
		return nil, fmt.Errorf("strategy is required")
	}
	if b.cfg.InitialCash <= 0 {
		return nil, fmt.Errorf("initial cash must be positive, got %.2f", b.cfg.InitialCash)
	}
	if !b.cfg.EndDate.IsZero() && b.cfg.EndDate.Before(b.cfg.StartDate) {
		return nil, fmt.Errorf("end date before start date")
	}

	dates := b.replayDates(chainsByDate)
	if len(dates) == 0 {
		return nil, fmt.Errorf("no chain dates within range")
	}

	portfolio := NewPortfolio(b.cfg.InitialCash)
	curve := make([]EquityPoint, 0, len(dates))

	// Incremental drawdown tracking: running peak, max decline seen.
	peak := b.cfg.InitialCash
	maxDrawdown := 0.0

	var lastUnderlying float64
	var lastTimestamp time.Time

	for i, date := range dates {
		chain := chainsByDate[date]
		underlying, ok := stockPricesByDate[date]
		if chain == nil || !ok {
			b.events.Append(parseDate(date), EventInfo, "skipping date with missing data", map[string]string{"date": date})
			continue
		}

		ts := chain.Timestamp()
		lastUnderlying = underlying
		lastTimestamp = ts

		ctx := &Context{
			Timestamp:       ts,
			Chain:           chain,
			Portfolio:       portfolio,
			UnderlyingPrice: underlying,
		}

		signals, err := b.cfg.Strategy.OnTimestamp(ctx)
		if err != nil {
			return nil, fmt.Errorf("strategy %s at %s: %w", b.cfg.Strategy.Name(), date, err)
		}
		for _, sig := range signals {
			logging.LogSignal(b.logger, string(sig.Action), signalSymbol(sig), sig.Reason)
		}

		// Closes settle before opens so freed cash is available for
		// new entries on the same timestamp.
		for _, sig := range signals {
			if sig.Action == ActionClose {
				b.applyClose(portfolio, sig, chain, underlying, ts)
			}
		}
		for _, sig := range signals {
			if sig.Action == ActionOpen {
				b.applyOpen(portfolio, sig, ts)
			}
		}

		equity := portfolio.Equity(markPrices(chain, portfolio))
		curve = append(curve, EquityPoint{Timestamp: ts, Equity: equity})

		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}

		if b.cfg.Progress != nil {
			pct := float64(i+1) / float64(len(dates)) * 100
			b.cfg.Progress(pct, fmt.Sprintf("processed %s", date))
		}
	}

	// No position survives the run: force-close everything remaining at
	// intrinsic value using the final available underlying price.
	for _, pos := range append([]*Position(nil), portfolio.OpenPositions()...) {
		trade, err := portfolio.ClosePositionAtExpiration(pos, lastUnderlying, lastTimestamp)
		if err != nil {
			return nil, fmt.Errorf("force-closing position %d: %w", pos.ID, err)
		}
		b.logExit(trade, lastTimestamp)
	}

	if len(curve) > 0 {
		final := portfolio.Equity(nil)
		curve[len(curve)-1].Equity = final
		if final > peak {
			peak = final
		}
		if peak > 0 {
			if dd := (peak - final) / peak; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}

	return b.buildResult(portfolio, curve, maxDrawdown, dates), nil
}

// replayDates returns the sorted, deduplicated chain dates intersected
// with the configured date range.
func (b *Backtester) replayDates(chainsByDate map[string]*marketdata.OptionChain) []string {
	var dates []string
	for date := range chainsByDate {
		t := parseDate(date)
		if t.IsZero() {
			continue
		}
		if !b.cfg.StartDate.IsZero() && t.Before(b.cfg.StartDate) {
			continue
		}
		if !b.cfg.EndDate.IsZero() && t.After(b.cfg.EndDate) {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

func (b *Backtester) applyClose(portfolio *Portfolio, sig Signal, chain *marketdata.OptionChain, underlying float64, ts time.Time) {
	if sig.Position == nil {
		b.events.Append(ts, EventInfo, "close signal without position", nil)
		return
	}

	var trade *Trade
	var err error
	if snap, ok := chain.Get(sig.Position.Entry.Symbol); ok {
		trade, err = portfolio.ClosePosition(sig.Position, snap.Mid(), ts, sig.Reason)
	} else {
		// Contract no longer quoted: expired or delisted, settle at
		// intrinsic value from the current underlying price.
		intrinsic := pricing.Intrinsic(sig.Position.Entry.Type, underlying, sig.Position.Entry.Strike)
		trade, err = portfolio.ClosePosition(sig.Position, intrinsic, ts, sig.Reason)
	}
	if err != nil {
		b.events.Append(ts, EventInfo, "close refused", map[string]string{
			"symbol": sig.Position.Entry.Symbol,
			"error":  err.Error(),
		})
		return
	}
	b.logExit(trade, ts)
}

func (b *Backtester) applyOpen(portfolio *Portfolio, sig Signal, ts time.Time) {
	if sig.Option == nil {
		b.events.Append(ts, EventInfo, "open signal without option", nil)
		return
	}

	pos, err := portfolio.OpenPosition(sig.Option, sig.Direction, sig.Quantity, sig.Option.Mid(), ts)
	if err != nil {
		// An open refused for cash is an expected outcome the strategy
		// may retry later with smaller size.
		b.events.Append(ts, EventInfo, "open refused", map[string]string{
			"symbol": sig.Option.Symbol,
			"error":  err.Error(),
		})
		return
	}

	b.events.Append(ts, EventEntry, sig.Reason, map[string]string{
		"symbol":    pos.Entry.Symbol,
		"direction": string(pos.Direction),
		"quantity":  fmt.Sprintf("%d", pos.Quantity),
		"price":     fmt.Sprintf("%.2f", pos.EntryPrice),
	})
	b.logger.Debug().
		Str("symbol", pos.Entry.Symbol).
		Str("direction", string(pos.Direction)).
		Float64("price", pos.EntryPrice).
		Msg("Position opened")
}

func (b *Backtester) logExit(trade *Trade, ts time.Time) {
	b.events.Append(ts, EventExit, trade.Reason, map[string]string{
		"symbol": trade.Symbol,
		"pnl":    fmt.Sprintf("%.2f", trade.PnL),
		"pnl_pc": fmt.Sprintf("%.1f", trade.PnLPercent),
	})
	logging.LogTrade(b.logger, trade.Symbol, string(trade.Direction), trade.Quantity,
		trade.EntryPrice, trade.ExitPrice, trade.PnL, trade.Reason)
}

func signalSymbol(sig Signal) string {
	if sig.Option != nil {
		return sig.Option.Symbol
	}
	if sig.Position != nil {
		return sig.Position.Entry.Symbol
	}
	return ""
}

func (b *Backtester) buildResult(portfolio *Portfolio, curve []EquityPoint, maxDrawdown float64, dates []string) *Result {
	result := &Result{
		Symbol:       b.cfg.Symbol,
		StrategyName: b.cfg.Strategy.Name(),
		StartDate:    parseDate(dates[0]),
		EndDate:      parseDate(dates[len(dates)-1]),
		StartingCash: portfolio.StartingCash(),
		EndingCash:   portfolio.Cash(),
		MaxDrawdown:  maxDrawdown * 100,
		Trades:       portfolio.Trades(),
		EquityCurve:  curve,
	}

	var totalWins, totalLosses float64
	for _, trade := range result.Trades {
		result.TotalPnL += trade.PnL
		if trade.PnL > 0 {
			result.WinningTrades++
			totalWins += trade.PnL
		} else {
			result.LosingTrades++
			totalLosses -= trade.PnL
		}
	}
	result.TotalTrades = len(result.Trades)

	if result.TotalTrades > 0 {
		result.WinRate = float64(result.WinningTrades) / float64(result.TotalTrades) * 100
	}
	if result.WinningTrades > 0 {
		result.AvgWin = totalWins / float64(result.WinningTrades)
	}
	if result.LosingTrades > 0 {
		result.AvgLoss = -totalLosses / float64(result.LosingTrades)
	}
	if totalLosses > 0 {
		result.ProfitFactor = totalWins / totalLosses
	}
	return result
}

// markPrices builds the symbol -> mid price map for marking the open
// book against the current chain.
func markPrices(chain *marketdata.OptionChain, portfolio *Portfolio) map[string]float64 {
	prices := make(map[string]float64)
	for _, pos := range portfolio.OpenPositions() {
		if snap, ok := chain.Get(pos.Entry.Symbol); ok {
			prices[pos.Entry.Symbol] = snap.Mid()
		}
	}
	return prices
}

func parseDate(date string) time.Time {
	t, err := time.Parse(dataload.DateKey, date)
	if err != nil {
		return time.Time{}
	}
	return t
}
