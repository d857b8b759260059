// Package cli provides the command-line interface for the backtesting
// application.
package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-backtester/internal/config"
	"options-backtester/internal/dataload"
)

// Version information
const Version = "0.1.0"

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Cache  *dataload.QuoteCache
}

// loadDataset loads a historical CSV through the app's TTL cache. A
// path that does not exist as given is retried under the configured
// CSV directory, so datasets can be referenced by bare filename.
func (a *App) loadDataset(path string) (*dataload.Dataset, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && a.Config.Data.CSVDir != "" {
		candidate := filepath.Join(a.Config.Data.CSVDir, path)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	return a.Cache.Load(path)
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
		Cache:  dataload.NewQuoteCache(time.Duration(cfg.Data.CacheTTLSeconds) * time.Second),
	}

	rootCmd := &cobra.Command{
		Use:          "optbt",
		Short:        "Options strategy valuation and backtesting",
		Long:         "optbt values multi-leg option strategies and replays them against historical option-chain data.",
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	rootCmd.AddCommand(newPriceCmd(app))
	rootCmd.AddCommand(newMetricsCmd(app))
	rootCmd.AddCommand(newChainCmd(app))
	rootCmd.AddCommand(newBacktestCmd(app))
	rootCmd.AddCommand(newRunsCmd(app))
	rootCmd.AddCommand(newTradesCmd(app))

	return rootCmd
}
