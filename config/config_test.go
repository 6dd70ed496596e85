package config

import (
	"errors"
	"os"
	"strings"
	"testing"

	"DividendCaptureBot/internal/models"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	// Load refuses to run without a .env file
	if err := os.WriteFile(".env", []byte(""), 0644); err != nil {
		t.Fatalf("writing .env: %v", err)
	}
	t.Cleanup(func() { os.Remove(".env") })

	required := map[string]string{
		"DB_HOST":     "localhost",
		"DB_PORT":     "5432",
		"DB_USER":     "backtest",
		"DB_PASSWORD": "backtest",
		"DB_NAME":     "dividends",

		"INITIAL_CAPITAL":     "2000000",
		"BACKTEST_START_DATE": "2023-01-04",
		"BACKTEST_END_DATE":   "2023-12-29",
		"UNIVERSE_TICKERS":    "8306, 7203,9984",

		"ENTRY_DAYS_BEFORE_RECORD": "3",
		"ENTRY_POSITION_SIZE":      "1000000",
		"ENTRY_MAX_POSITIONS":      "5",
		"ENTRY_LOT_SIZE":           "100",

		"ADDITION_ENABLED": "true",
		"ADDITION_RATIO":   "0.5",
		"ADDITION_ON_DROP": "true",

		"EXIT_MAX_HOLDING_DAYS": "20",
		"EXIT_STOP_LOSS_PCT":    "0.1",
		"EXIT_ON_WINDOW_FILL":   "true",
		"EXIT_MIN_HOLDING_DAYS": "3",

		"SLIPPAGE_NORMAL":   "0.002",
		"SLIPPAGE_EX_DATE":  "0.005",
		"COMMISSION_RATE":   "0.00055",
		"MIN_COMMISSION":    "550",
		"MAX_COMMISSION":    "1100",
		"DIVIDEND_TAX_RATE": "0.20315",

		"RESULTS_DIR": "results",
	}
	for k, v := range required {
		t.Setenv(k, v)
	}
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Backtest.InitialCapital != 2_000_000 {
		t.Errorf("InitialCapital = %f", cfg.Backtest.InitialCapital)
	}
	if cfg.Entry.DaysBeforeRecord != 3 || cfg.Entry.LotSize != 100 {
		t.Errorf("entry config: %+v", cfg.Entry)
	}
	if !cfg.Addition.Enabled || cfg.Addition.AddRatio != 0.5 {
		t.Errorf("addition config: %+v", cfg.Addition)
	}
	if cfg.Execution.MinCommission != 550 || cfg.Execution.MaxCommission != 1100 {
		t.Errorf("execution config: %+v", cfg.Execution)
	}

	// Ticker list is split and trimmed
	want := []string{"8306", "7203", "9984"}
	if len(cfg.Universe) != len(want) {
		t.Fatalf("universe = %v", cfg.Universe)
	}
	for i, ticker := range want {
		if cfg.Universe[i] != ticker {
			t.Errorf("universe[%d] = %q, want %q", i, cfg.Universe[i], ticker)
		}
	}
}

func TestLoad_MissingRequiredVariable(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COMMISSION_RATE", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for unset COMMISSION_RATE")
	}
	if !strings.Contains(err.Error(), "COMMISSION_RATE") {
		t.Errorf("error does not name the variable: %v", err)
	}
	var invalid *models.InvalidConfigurationError
	if !errors.As(err, &invalid) {
		t.Errorf("expected InvalidConfigurationError, got %T", err)
	} else if invalid.Field != "COMMISSION_RATE" {
		t.Errorf("field = %q, want COMMISSION_RATE", invalid.Field)
	}
}

func TestLoad_RejectsContradictions(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"addition ratio while disabled", "ADDITION_ENABLED", "false"},
		{"zero lot size", "ENTRY_LOT_SIZE", "0"},
		{"zero max positions", "ENTRY_MAX_POSITIONS", "0"},
		{"negative capital", "INITIAL_CAPITAL", "-1"},
		{"min commission above max", "MIN_COMMISSION", "2000"},
		{"tax rate of one", "DIVIDEND_TAX_RATE", "1"},
		{"empty universe", "UNIVERSE_TICKERS", ""},
		{"missing start date", "BACKTEST_START_DATE", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.key, tc.val)

			_, err := Load()
			if err == nil {
				t.Fatalf("%s accepted", tc.name)
			}
			var invalid *models.InvalidConfigurationError
			if !errors.As(err, &invalid) {
				t.Errorf("expected InvalidConfigurationError, got %T: %v", err, err)
			}
		})
	}
}
