package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"options-backtester/internal/dataload"
	"options-backtester/internal/store"
)

func newRunsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List saved backtest runs",
		Long:  "List backtest runs previously persisted with backtest --save, newest first.",
		Example: `  optbt runs
  optbt runs --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			limit, _ := cmd.Flags().GetInt("limit")

			st, err := store.NewSQLiteStore(app.Config.Data.DBPath)
			if err != nil {
				return fmt.Errorf("opening result store: %w", err)
			}
			defer st.Close()

			runs, err := st.GetRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}

			if output.IsJSON() {
				return output.JSON(runs)
			}
			if len(runs) == 0 {
				output.Println("No saved runs.")
				return nil
			}

			output.Printf("%4s %-8s %-24s %-23s %10s %7s %8s\n",
				"ID", "SYMBOL", "STRATEGY", "PERIOD", "P&L", "TRADES", "WIN%")
			for _, r := range runs {
				period := r.StartDate.Format(dataload.DateKey) + ".." + r.EndDate.Format(dataload.DateKey)
				output.Printf("%4d %-8s %-24s %-23s %10s %7d %7.1f%%\n",
					r.ID, r.Symbol, r.StrategyName, period,
					output.PnL(r.TotalPnL), r.TotalTrades, r.WinRate)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to list")
	return cmd
}

func newTradesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "trades <run-id>",
		Short:   "Show the trades of a saved backtest run",
		Example: `  optbt trades 3`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}

			st, err := store.NewSQLiteStore(app.Config.Data.DBPath)
			if err != nil {
				return fmt.Errorf("opening result store: %w", err)
			}
			defer st.Close()

			trades, err := st.GetTrades(cmd.Context(), runID)
			if err != nil {
				return fmt.Errorf("loading trades: %w", err)
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Printf("No trades for run %d.\n", runID)
				return nil
			}

			output.Printf("%-22s %-6s %4s %9s %9s %10s  %s\n",
				"SYMBOL", "SIDE", "QTY", "ENTRY", "EXIT", "P&L", "REASON")
			for _, trade := range trades {
				output.Printf("%-22s %-6s %4d %9.2f %9.2f %10s  %s\n",
					trade.Symbol, trade.Direction, trade.Quantity,
					trade.EntryPrice, trade.ExitPrice, output.PnL(trade.PnL), trade.Reason)
			}
			return nil
		},
	}
}
