package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"options-backtester/internal/backtest"
	"options-backtester/internal/logging"
	"options-backtester/internal/models"
)

// SQLiteStore implements ResultStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based result store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		strategy TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		starting_cash REAL NOT NULL,
		ending_cash REAL NOT NULL,
		total_pnl REAL NOT NULL,
		total_trades INTEGER NOT NULL,
		win_rate REAL NOT NULL,
		max_drawdown REAL NOT NULL,
		saved_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		position_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		option_type TEXT NOT NULL,
		strike REAL NOT NULL,
		direction TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		entry_time TEXT NOT NULL,
		exit_time TEXT NOT NULL,
		pnl REAL NOT NULL,
		pnl_percent REAL NOT NULL,
		reason TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);

	CREATE TABLE IF NOT EXISTS equity_points (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		timestamp TEXT NOT NULL,
		equity REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_equity_run ON equity_points(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveResult stores a run with its trades and equity curve in a single
// transaction.
func (s *SQLiteStore) SaveResult(ctx context.Context, result *backtest.Result) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (symbol, strategy, start_date, end_date, starting_cash,
			ending_cash, total_pnl, total_trades, win_rate, max_drawdown, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.Symbol,
		result.StrategyName,
		result.StartDate.Format(time.RFC3339),
		result.EndDate.Format(time.RFC3339),
		result.StartingCash,
		result.EndingCash,
		result.TotalPnL,
		result.TotalTrades,
		result.WinRate,
		result.MaxDrawdown,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for _, trade := range result.Trades {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO trades (run_id, position_id, symbol, option_type, strike,
				direction, quantity, entry_price, exit_price, entry_time, exit_time,
				pnl, pnl_percent, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID,
			trade.PositionID,
			trade.Symbol,
			string(trade.Type),
			trade.Strike,
			string(trade.Direction),
			trade.Quantity,
			trade.EntryPrice,
			trade.ExitPrice,
			trade.EntryTime.Format(time.RFC3339),
			trade.ExitTime.Format(time.RFC3339),
			trade.PnL,
			trade.PnLPercent,
			trade.Reason,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting trade: %w", err)
		}
	}

	for _, point := range result.EquityCurve {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO equity_points (run_id, timestamp, equity) VALUES (?, ?, ?)`,
			runID,
			point.Timestamp.Format(time.RFC3339),
			point.Equity,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting equity point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	logger := logging.FromContext(ctx)
	logger.Debug().
		Int64("run_id", runID).
		Int("trades", len(result.Trades)).
		Msg("Backtest run persisted")
	return runID, nil
}

// GetRuns lists saved runs, newest first.
func (s *SQLiteStore) GetRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, strategy, start_date, end_date, starting_cash,
			ending_cash, total_pnl, total_trades, win_rate, max_drawdown, saved_at
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var startDate, endDate, savedAt string
		if err := rows.Scan(&r.ID, &r.Symbol, &r.StrategyName, &startDate, &endDate,
			&r.StartingCash, &r.EndingCash, &r.TotalPnL, &r.TotalTrades,
			&r.WinRate, &r.MaxDrawdown, &savedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartDate, _ = time.Parse(time.RFC3339, startDate)
		r.EndDate, _ = time.Parse(time.RFC3339, endDate)
		r.SavedAt, _ = time.Parse(time.RFC3339, savedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetTrades returns the trades of one saved run in close order.
func (s *SQLiteStore) GetTrades(ctx context.Context, runID int64) ([]backtest.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position_id, symbol, option_type, strike, direction, quantity,
			entry_price, exit_price, entry_time, exit_time, pnl, pnl_percent, reason
		FROM trades WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer rows.Close()

	var trades []backtest.Trade
	for rows.Next() {
		var t backtest.Trade
		var optType, direction, entryTime, exitTime string
		if err := rows.Scan(&t.PositionID, &t.Symbol, &optType, &t.Strike, &direction,
			&t.Quantity, &t.EntryPrice, &t.ExitPrice, &entryTime, &exitTime,
			&t.PnL, &t.PnLPercent, &t.Reason); err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}
		t.Type = models.OptionType(optType)
		t.Direction = models.Side(direction)
		t.EntryTime, _ = time.Parse(time.RFC3339, entryTime)
		t.ExitTime, _ = time.Parse(time.RFC3339, exitTime)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
