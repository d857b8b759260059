package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"options-backtester/internal/backtest"
	"options-backtester/internal/dataload"
	"options-backtester/internal/logging"
	"options-backtester/internal/store"
	"options-backtester/internal/strategy"
	"options-backtester/pkg/utils"
)

func newChainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain <csv>",
		Short: "Inspect a loaded option chain",
		Long:  "Load a historical CSV and display the option chain for one date.",
		Example: `  optbt chain data/aapl.csv --date 2024-05-01
  optbt chain data/aapl.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ds, err := app.loadDataset(args[0])
			if err != nil {
				return err
			}

			date, _ := cmd.Flags().GetString("date")
			if date == "" {
				date = ds.Dates[0]
			}
			chain, ok := ds.ChainsByDate[date]
			if !ok {
				return fmt.Errorf("no chain for date %s (have %d dates %s..%s)",
					date, len(ds.Dates), ds.Dates[0], ds.Dates[len(ds.Dates)-1])
			}

			if output.IsJSON() {
				return output.JSON(chain.Snapshots())
			}

			output.Printf("%s %s: %d contracts, underlying %.2f\n\n",
				ds.Symbol, date, chain.Len(), ds.StockPricesByDate[date])
			output.Printf("%-22s %-5s %9s %8s %8s %5s\n", "SYMBOL", "TYPE", "STRIKE", "BID", "ASK", "DTE")
			for _, snap := range chain.Snapshots() {
				output.Printf("%-22s %-5s %9.2f %8.2f %8.2f %5d\n",
					snap.Symbol, snap.Type, snap.Strike, snap.Bid, snap.Ask,
					snap.DaysToExpiry(chain.Timestamp()))
			}
			return nil
		},
	}

	cmd.Flags().String("date", "", "Chain date (YYYY-MM-DD), defaults to the first date")
	return cmd
}

func newBacktestCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest <csv>",
		Short: "Run a backtest over historical option data",
		Long: `Replay a historical option-chain CSV through the short-put premium
strategy and report the performance statistics.`,
		Example: `  optbt backtest data/aapl.csv
  optbt backtest data/aapl.csv --start 2024-01-01 --end 2024-06-30 --cash 25000 --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ds, err := app.loadDataset(args[0])
			if err != nil {
				return err
			}

			startStr, _ := cmd.Flags().GetString("start")
			endStr, _ := cmd.Flags().GetString("end")
			cash, _ := cmd.Flags().GetFloat64("cash")
			save, _ := cmd.Flags().GetBool("save")

			var startDate, endDate time.Time
			if startStr != "" {
				if startDate, err = time.Parse(dataload.DateKey, startStr); err != nil {
					return fmt.Errorf("invalid start date %q: %w", startStr, err)
				}
			}
			if endStr != "" {
				if endDate, err = time.Parse(dataload.DateKey, endStr); err != nil {
					return fmt.Errorf("invalid end date %q: %w", endStr, err)
				}
			}
			if cash == 0 {
				cash = app.Config.Backtest.InitialCash
			}

			logger := logging.WithSymbol(app.Logger, ds.Symbol)
			sp := strategy.NewShortPut(strategyParams(app))

			bt := backtest.New(backtest.Config{
				Symbol:      ds.Symbol,
				StartDate:   startDate,
				EndDate:     endDate,
				InitialCash: cash,
				Strategy:    sp,
				Progress: func(pct float64, msg string) {
					logger.Debug().Float64("pct", pct).Msg(msg)
				},
			}, logger)

			result, err := bt.RunWithData(ds.ChainsByDate, ds.StockPricesByDate)
			if err != nil {
				return fmt.Errorf("running backtest: %w", err)
			}

			if save {
				st, err := store.NewSQLiteStore(app.Config.Data.DBPath)
				if err != nil {
					return fmt.Errorf("opening result store: %w", err)
				}
				defer st.Close()
				ctx := logging.WithLogger(context.Background(), logger)
				runID, err := st.SaveResult(ctx, result)
				if err != nil {
					return fmt.Errorf("saving result: %w", err)
				}
				runLogger := logging.WithRun(logger, fmt.Sprintf("%d", runID))
				runLogger.Info().Msg("Backtest saved")
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			printResult(output, result)
			return nil
		},
	}

	cmd.Flags().String("start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().Float64("cash", 0, "Initial cash (defaults to config)")
	cmd.Flags().Bool("save", false, "Persist the result to the local database")
	return cmd
}

func strategyParams(app *App) strategy.ShortPutParams {
	cfg := app.Config.Strategy
	return strategy.ShortPutParams{
		TakeProfitPercent: cfg.TakeProfitPercent,
		StopLossPercent:   cfg.StopLossPercent,
		MinDTE:            cfg.MinDTE,
		MaxDTE:            cfg.MaxDTE,
		ExitDTE:           cfg.ExitDTE,
		MaxStrikeDistance: cfg.MaxStrikeDistance,
		TargetDelta:       cfg.TargetDelta,
		MaxOpenPositions:  cfg.MaxOpenPositions,
		Quantity:          cfg.Quantity,
	}
}

func printResult(output *Output, result *backtest.Result) {
	output.Printf("%sBacktest: %s (%s)%s\n", ColorBold, result.Symbol, result.StrategyName, ColorReset)
	output.Printf("Period:       %s to %s\n",
		result.StartDate.Format(dataload.DateKey), result.EndDate.Format(dataload.DateKey))
	output.Printf("Cash:         %s -> %s\n",
		utils.FormatMoney(result.StartingCash), utils.FormatMoney(result.EndingCash))
	output.Printf("Total P&L:    %s (%s)\n", output.PnL(result.TotalPnL),
		utils.FormatPercent(result.TotalPnL/result.StartingCash*100))
	output.Printf("Trades:       %d (%d wins, %d losses)\n",
		result.TotalTrades, result.WinningTrades, result.LosingTrades)
	output.Printf("Win Rate:     %.1f%%\n", result.WinRate)
	output.Printf("Max Drawdown: %.1f%%\n", result.MaxDrawdown)
	if result.WinningTrades > 0 {
		output.Printf("Avg Win:      %s\n", utils.FormatPnL(result.AvgWin))
	}
	if result.LosingTrades > 0 {
		output.Printf("Avg Loss:     %s\n", utils.FormatPnL(result.AvgLoss))
	}
	if result.ProfitFactor > 0 {
		output.Printf("Profit Factor: %.2f\n", result.ProfitFactor)
	}

	if len(result.Trades) > 0 {
		output.Println()
		output.Printf("%-22s %-6s %4s %9s %9s %10s  %s\n",
			"SYMBOL", "SIDE", "QTY", "ENTRY", "EXIT", "P&L", "REASON")
		for _, trade := range result.Trades {
			output.Printf("%-22s %-6s %4d %9.2f %9.2f %10s  %s\n",
				trade.Symbol, trade.Direction, trade.Quantity,
				trade.EntryPrice, trade.ExitPrice, output.PnL(trade.PnL), trade.Reason)
		}
	}

	output.Println()
	output.Println(backtest.RenderEquityCurveASCII(result, 60, 10))
}
