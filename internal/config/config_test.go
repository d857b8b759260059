package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() with no config file: %v", err)
	}

	if cfg.Backtest.InitialCash != 10000 {
		t.Errorf("initial cash = %v, want 10000", cfg.Backtest.InitialCash)
	}
	if cfg.Strategy.TakeProfitPercent != 50 {
		t.Errorf("take profit = %v, want 50", cfg.Strategy.TakeProfitPercent)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	toml := `[backtest]
initial_cash = 25000.0
risk_free_rate = 0.04

[strategy]
take_profit_percent = 60.0
min_dte = 30
max_dte = 50

[logging]
level = "debug"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Backtest.InitialCash != 25000 {
		t.Errorf("initial cash = %v, want 25000", cfg.Backtest.InitialCash)
	}
	if cfg.Strategy.TakeProfitPercent != 60 {
		t.Errorf("take profit = %v, want 60", cfg.Strategy.TakeProfitPercent)
	}
	if cfg.Strategy.MinDTE != 30 || cfg.Strategy.MaxDTE != 50 {
		t.Errorf("DTE window = [%d, %d], want [30, 50]", cfg.Strategy.MinDTE, cfg.Strategy.MaxDTE)
	}
	// Untouched keys keep their defaults.
	if cfg.Strategy.Quantity != 1 {
		t.Errorf("quantity = %d, want default 1", cfg.Strategy.Quantity)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	toml := `[strategy]
min_dte = 60
max_dte = 20
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Error("Load() accepted min DTE > max DTE")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}

	cfg.Backtest.InitialCash = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted negative initial cash")
	}

	cfg = Default()
	cfg.Strategy.Quantity = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted zero quantity")
	}
}
