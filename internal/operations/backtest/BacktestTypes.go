// backtest/types.go

package backtest

import (
	"time"

	"DividendCaptureBot/internal/models"
)

// Config drives one simulation run.
type Config struct {
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital float64
	Universe       []string
	MaxPositions   int
}

// MarketData is the pre-resolved price/dividend lookup the engine consumes.
type MarketData interface {
	PriceOn(ticker string, date time.Time) (float64, bool)
	NextDividend(ticker string, date time.Time) *models.Dividend
}

// Calendar is the business-day arithmetic the engine consumes.
type Calendar interface {
	IsBusinessDay(date time.Time) bool
	AddBusinessDays(start time.Time, days int) time.Time
	BusinessDayDiff(start, end time.Time) int
	TradingDays(start, end time.Time) ([]time.Time, error)
}

// Recorder persists engine output as it is produced. A nil Recorder disables
// persistence (unit tests).
type Recorder interface {
	RecordTrade(trade *models.Trade) error
	RecordPosition(position *models.Position) error
	RecordValuation(valuation *models.Valuation) error
}

// SignalRecord is one line of the signal audit log: every signal the
// strategy produced, executed or not, attributable to a ticker and date.
type SignalRecord struct {
	Date         time.Time
	Ticker       string
	Type         string
	Price        float64
	Shares       int
	Executed     bool
	Reason       string
	RejectReason string
}

// pendingDividend tracks an entitlement that outlived its position: the
// position closed after the ex-date but before the payment date. Payment is
// keyed by ticker and record date, not by the live position.
type pendingDividend struct {
	Ticker      string
	RecordDate  time.Time
	PaymentDate time.Time
	NetPerShare float64
	Shares      int
	position    *models.Position // closed record, for reporting
}

// Final backtest results
type Results struct {
	// Trade metrics
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	ProfitFactor  float64

	// Performance metrics
	TotalReturn          float64
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	SharpeRatio          float64
	MaxDrawdown          float64
	FinalValue           float64

	// Cost and income totals
	TotalCommission float64
	TotalDividend   float64

	// Detailed records
	Trades          []models.Trade
	Valuations      []models.Valuation
	ClosedPositions []*models.Position
	Signals         []SignalRecord
}
