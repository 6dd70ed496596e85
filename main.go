package main

import (
	"fmt"
	"log"
	"time"

	"DividendCaptureBot/config"
	"DividendCaptureBot/internal/handlers"
	"DividendCaptureBot/internal/logger"
	"DividendCaptureBot/internal/models"
	"DividendCaptureBot/internal/operations/backtest"
	"DividendCaptureBot/internal/operations/report"
	"DividendCaptureBot/internal/repositories"
	"DividendCaptureBot/internal/services/calendar"
	"DividendCaptureBot/internal/services/execution"
	"DividendCaptureBot/internal/services/marketdata"
	"DividendCaptureBot/internal/services/strategy"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// Load configuration; contradictory or missing parameters abort here,
	// before any simulation step.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	zlog, err := logger.New()
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer zlog.Sync()

	startDate, err := time.Parse("2006-01-02", cfg.Backtest.StartDate)
	if err != nil {
		zlog.Fatalw("invalid start date", "value", cfg.Backtest.StartDate, "error", err)
	}
	endDate, err := time.Parse("2006-01-02", cfg.Backtest.EndDate)
	if err != nil {
		zlog.Fatalw("invalid end date", "value", cfg.Backtest.EndDate, "error", err)
	}

	// Setup database
	db := setupDatabase(cfg.Database)

	// Initialize repositories
	priceRepo := repositories.NewPriceRepository(db)
	dividendRepo := repositories.NewDividendRepository(db)
	positionRepo := repositories.NewPositionRepository(db)
	tradeRepo := repositories.NewTradeRepository(db)
	valuationRepo := repositories.NewValuationRepository(db)

	// Load market data CSVs into the database
	dataHandler := handlers.NewMarketDataHandler(priceRepo, dividendRepo, zlog)
	if cfg.Output.PricesCSV != "" {
		if err := dataHandler.LoadPricesCSV(cfg.Output.PricesCSV); err != nil {
			zlog.Fatalw("loading prices failed", "error", err)
		}
	}
	if cfg.Output.DividendsCSV != "" {
		if err := dataHandler.LoadDividendsCSV(cfg.Output.DividendsCSV); err != nil {
			zlog.Fatalw("loading dividends failed", "error", err)
		}
	}

	// Pre-resolve all market data; a coverage gap is fatal before the loop.
	data := marketdata.NewService(priceRepo, dividendRepo, zlog)
	if err := data.Preload(cfg.Universe, startDate, endDate); err != nil {
		zlog.Fatalw("market data validation failed", "error", err)
	}

	// Initialize strategy components
	cal := calendar.NewJapanCalendar()
	strat := strategy.NewDividendStrategy(cfg.Entry, cfg.Addition, cfg.Exit, cal, zlog)
	costs := execution.NewCostModel(cfg.Execution)
	scheduler := execution.NewDividendScheduler(cfg.Execution.DividendTaxRate)
	recorder := repositories.NewBacktestRecorder(positionRepo, tradeRepo, valuationRepo)

	// Create and run engine
	engine := backtest.NewEngine(backtest.Config{
		StartDate:      startDate,
		EndDate:        endDate,
		InitialCapital: cfg.Backtest.InitialCapital,
		Universe:       cfg.Universe,
		MaxPositions:   cfg.Entry.MaxPositions,
	}, data, cal, strat, costs, scheduler, recorder, zlog)

	results, err := engine.Run()
	if err != nil {
		zlog.Fatalw("backtest failed", "error", err)
	}

	// Write report files
	writer := report.NewWriter(cfg.Output.ResultsDir, zlog)
	if err := writer.Write(results); err != nil {
		zlog.Fatalw("writing reports failed", "error", err)
	}

	// Print results
	fmt.Println("\n=== Backtest Results ===")
	fmt.Printf("Total Trades: %d\n", results.TotalTrades)
	fmt.Printf("Win Rate: %.2f%%\n", results.WinRate*100)
	fmt.Printf("Total Return: %.2f%%\n", results.TotalReturn*100)
	fmt.Printf("Annualized Return: %.2f%%\n", results.AnnualizedReturn*100)
	fmt.Printf("Sharpe Ratio: %.2f\n", results.SharpeRatio)
	fmt.Printf("Max Drawdown: %.2f%%\n", results.MaxDrawdown*100)
	fmt.Printf("Total Dividend: %.0f\n", results.TotalDividend)
	fmt.Printf("Total Commission: %.0f\n", results.TotalCommission)
	fmt.Printf("Final Value: %.0f\n", results.FinalValue)
}

func setupDatabase(dbConfig config.DatabaseConfig) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Error),
	})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	// Auto migrate database schemas
	err = db.AutoMigrate(
		&models.Price{},
		&models.Dividend{},
		&models.Position{},
		&models.Trade{},
		&models.Valuation{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database: ", err)
	}

	return db
}
