package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"DividendCaptureBot/internal/models"
)

// Load reads the full backtest configuration from the environment.
// Every numeric parameter is required; there are no implicit defaults.
func Load() (*config, error) {
	if err := godotenv.Load(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := &config{
		Backtest: BacktestConfig{
			StartDate: os.Getenv("BACKTEST_START_DATE"),
			EndDate:   os.Getenv("BACKTEST_END_DATE"),
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Universe: getTickers(),
		Output: OutputConfig{
			ResultsDir:   os.Getenv("RESULTS_DIR"),
			PricesCSV:    os.Getenv("PRICES_CSV"),
			DividendsCSV: os.Getenv("DIVIDENDS_CSV"),
		},
	}

	var err error
	fail := func(key string, e error) error {
		return &models.InvalidConfigurationError{Field: key, Reason: e.Error()}
	}

	if cfg.Database.Port, err = envInt("DB_PORT"); err != nil {
		return nil, fail("DB_PORT", err)
	}
	if cfg.Backtest.InitialCapital, err = envFloat("INITIAL_CAPITAL"); err != nil {
		return nil, fail("INITIAL_CAPITAL", err)
	}

	if cfg.Entry.DaysBeforeRecord, err = envInt("ENTRY_DAYS_BEFORE_RECORD"); err != nil {
		return nil, fail("ENTRY_DAYS_BEFORE_RECORD", err)
	}
	if cfg.Entry.PositionSize, err = envFloat("ENTRY_POSITION_SIZE"); err != nil {
		return nil, fail("ENTRY_POSITION_SIZE", err)
	}
	if cfg.Entry.MaxPositions, err = envInt("ENTRY_MAX_POSITIONS"); err != nil {
		return nil, fail("ENTRY_MAX_POSITIONS", err)
	}
	if cfg.Entry.LotSize, err = envInt("ENTRY_LOT_SIZE"); err != nil {
		return nil, fail("ENTRY_LOT_SIZE", err)
	}

	if cfg.Addition.Enabled, err = envBool("ADDITION_ENABLED"); err != nil {
		return nil, fail("ADDITION_ENABLED", err)
	}
	if cfg.Addition.AddRatio, err = envFloat("ADDITION_RATIO"); err != nil {
		return nil, fail("ADDITION_RATIO", err)
	}
	if cfg.Addition.AddOnDrop, err = envBool("ADDITION_ON_DROP"); err != nil {
		return nil, fail("ADDITION_ON_DROP", err)
	}

	if cfg.Exit.MaxHoldingDays, err = envInt("EXIT_MAX_HOLDING_DAYS"); err != nil {
		return nil, fail("EXIT_MAX_HOLDING_DAYS", err)
	}
	if cfg.Exit.StopLossPct, err = envFloat("EXIT_STOP_LOSS_PCT"); err != nil {
		return nil, fail("EXIT_STOP_LOSS_PCT", err)
	}
	if cfg.Exit.WindowFillExit, err = envBool("EXIT_ON_WINDOW_FILL"); err != nil {
		return nil, fail("EXIT_ON_WINDOW_FILL", err)
	}
	if cfg.Exit.MinHoldingDays, err = envInt("EXIT_MIN_HOLDING_DAYS"); err != nil {
		return nil, fail("EXIT_MIN_HOLDING_DAYS", err)
	}

	if cfg.Execution.SlippageNormal, err = envFloat("SLIPPAGE_NORMAL"); err != nil {
		return nil, fail("SLIPPAGE_NORMAL", err)
	}
	if cfg.Execution.SlippageExDate, err = envFloat("SLIPPAGE_EX_DATE"); err != nil {
		return nil, fail("SLIPPAGE_EX_DATE", err)
	}
	if cfg.Execution.CommissionRate, err = envFloat("COMMISSION_RATE"); err != nil {
		return nil, fail("COMMISSION_RATE", err)
	}
	if cfg.Execution.MinCommission, err = envFloat("MIN_COMMISSION"); err != nil {
		return nil, fail("MIN_COMMISSION", err)
	}
	if cfg.Execution.MaxCommission, err = envFloat("MAX_COMMISSION"); err != nil {
		return nil, fail("MAX_COMMISSION", err)
	}
	if cfg.Execution.DividendTaxRate, err = envFloat("DIVIDEND_TAX_RATE"); err != nil {
		return nil, fail("DIVIDEND_TAX_RATE", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects contradictory parameter combinations. Contradictions are
// not auto-corrected; the run aborts before any simulation step.
func (c *config) Validate() error {
	if !c.Addition.Enabled && c.Addition.AddRatio > 0 {
		return &models.InvalidConfigurationError{Field: "ADDITION_RATIO", Reason: "positive while ADDITION_ENABLED is false"}
	}
	if c.Entry.LotSize <= 0 {
		return &models.InvalidConfigurationError{Field: "ENTRY_LOT_SIZE", Reason: "must be positive"}
	}
	if c.Entry.MaxPositions <= 0 {
		return &models.InvalidConfigurationError{Field: "ENTRY_MAX_POSITIONS", Reason: "must be positive"}
	}
	if c.Backtest.InitialCapital <= 0 {
		return &models.InvalidConfigurationError{Field: "INITIAL_CAPITAL", Reason: "must be positive"}
	}
	if c.Execution.MinCommission > c.Execution.MaxCommission {
		return &models.InvalidConfigurationError{Field: "MIN_COMMISSION", Reason: "exceeds MAX_COMMISSION"}
	}
	if c.Execution.DividendTaxRate < 0 || c.Execution.DividendTaxRate >= 1 {
		return &models.InvalidConfigurationError{Field: "DIVIDEND_TAX_RATE", Reason: "must be in [0, 1)"}
	}
	if len(c.Universe) == 0 {
		return &models.InvalidConfigurationError{Field: "UNIVERSE_TICKERS", Reason: "must not be empty"}
	}
	if c.Backtest.StartDate == "" || c.Backtest.EndDate == "" {
		return &models.InvalidConfigurationError{Field: "BACKTEST_START_DATE", Reason: "start and end dates are required"}
	}
	return nil
}

func envInt(key string) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, fmt.Errorf("required variable is not set")
	}
	return strconv.Atoi(s)
}

func envFloat(key string) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, fmt.Errorf("required variable is not set")
	}
	return strconv.ParseFloat(s, 64)
}

func envBool(key string) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return false, fmt.Errorf("required variable is not set")
	}
	return strconv.ParseBool(s)
}

// helper to get the ticker universe
func getTickers() []string {
	tickers := os.Getenv("UNIVERSE_TICKERS")
	if tickers == "" {
		return nil
	}
	parts := strings.Split(tickers, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
