// Package config provides configuration management for the backtesting application.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Backtest BacktestConfig `mapstructure:"backtest"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Data     DataConfig     `mapstructure:"data"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// BacktestConfig holds backtest run parameters.
type BacktestConfig struct {
	InitialCash  float64 `mapstructure:"initial_cash"`
	RiskFreeRate float64 `mapstructure:"risk_free_rate"`
}

// StrategyConfig holds parameters for the built-in short-put strategy.
type StrategyConfig struct {
	TakeProfitPercent float64 `mapstructure:"take_profit_percent"`
	StopLossPercent   float64 `mapstructure:"stop_loss_percent"`
	MinDTE            int     `mapstructure:"min_dte"`
	MaxDTE            int     `mapstructure:"max_dte"`
	ExitDTE           int     `mapstructure:"exit_dte"`
	MaxStrikeDistance float64 `mapstructure:"max_strike_distance"`
	TargetDelta       float64 `mapstructure:"target_delta"`
	MaxOpenPositions  int     `mapstructure:"max_open_positions"`
	Quantity          int     `mapstructure:"quantity"`
}

// DataConfig holds historical data locations and cache behaviour.
type DataConfig struct {
	CSVDir          string `mapstructure:"csv_dir"`
	DBPath          string `mapstructure:"db_path"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-backtester"
	}
	return filepath.Join(home, ".config", "options-backtester")
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Backtest: BacktestConfig{
			InitialCash:  10000,
			RiskFreeRate: 0.05,
		},
		Strategy: StrategyConfig{
			TakeProfitPercent: 50,
			StopLossPercent:   200,
			MinDTE:            20,
			MaxDTE:            60,
			ExitDTE:           7,
			MaxStrikeDistance: 0.15,
			TargetDelta:       0,
			MaxOpenPositions:  1,
			Quantity:          1,
		},
		Data: DataConfig{
			DBPath:          filepath.Join(DefaultConfigDir(), "backtests.db"),
			CacheTTLSeconds: 300,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    true,
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
// A missing config file is not an error; defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("OPTBT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	} else if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Backtest.InitialCash <= 0 {
		return fmt.Errorf("initial cash must be positive, got %.2f", c.Backtest.InitialCash)
	}
	if c.Strategy.MinDTE > c.Strategy.MaxDTE {
		return fmt.Errorf("min DTE %d exceeds max DTE %d", c.Strategy.MinDTE, c.Strategy.MaxDTE)
	}
	if c.Strategy.Quantity <= 0 {
		return fmt.Errorf("strategy quantity must be positive, got %d", c.Strategy.Quantity)
	}
	return nil
}
