package repositories

import (
	"DividendCaptureBot/internal/models"
)

// BacktestRecorder persists engine output through the gorm repositories. The
// engine only sees the backtest.Recorder interface, so runs without a
// database (tests) pass nil instead.
type BacktestRecorder struct {
	positions  *PositionRepository
	trades     *TradeRepository
	valuations *ValuationRepository
}

// NewBacktestRecorder creates a new instance of BacktestRecorder
func NewBacktestRecorder(positions *PositionRepository, trades *TradeRepository, valuations *ValuationRepository) *BacktestRecorder {
	return &BacktestRecorder{
		positions:  positions,
		trades:     trades,
		valuations: valuations,
	}
}

func (r *BacktestRecorder) RecordTrade(trade *models.Trade) error {
	return r.trades.Create(trade)
}

func (r *BacktestRecorder) RecordPosition(position *models.Position) error {
	if position.ID == 0 {
		return r.positions.Create(position)
	}
	return r.positions.Update(position)
}

func (r *BacktestRecorder) RecordValuation(valuation *models.Valuation) error {
	return r.valuations.Create(valuation)
}
