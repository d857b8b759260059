// Package store provides persistence for completed backtest runs.
package store

import (
	"context"
	"time"

	"options-backtester/internal/backtest"
)

// RunSummary is one persisted backtest run.
type RunSummary struct {
	ID           int64
	Symbol       string
	StrategyName string
	StartDate    time.Time
	EndDate      time.Time
	StartingCash float64
	EndingCash   float64
	TotalPnL     float64
	TotalTrades  int
	WinRate      float64
	MaxDrawdown  float64
	SavedAt      time.Time
}

// ResultStore persists backtest results for later review.
type ResultStore interface {
	// SaveResult stores a run with its trades and equity curve,
	// returning the run ID.
	SaveResult(ctx context.Context, result *backtest.Result) (int64, error)

	// GetRuns lists saved runs, newest first.
	GetRuns(ctx context.Context, limit int) ([]RunSummary, error)

	// GetTrades returns the trades of one saved run in close order.
	GetTrades(ctx context.Context, runID int64) ([]backtest.Trade, error)

	// Close releases the underlying resources.
	Close() error
}
