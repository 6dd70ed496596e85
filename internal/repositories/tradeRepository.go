package repositories

import (
	"DividendCaptureBot/internal/models"
	"errors"
	"time"

	"gorm.io/gorm"
)

type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new instance of TradeRepository
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create adds a new Trade record to the database
func (r *TradeRepository) Create(trade *models.Trade) error {
	if trade == nil {
		return errors.New("trade cannot be nil")
	}
	return r.db.Create(trade).Error
}

// FindAll retrieves all Trade records in execution order
func (r *TradeRepository) FindAll() ([]models.Trade, error) {
	var trades []models.Trade
	err := r.db.Order("date ASC, id ASC").Find(&trades).Error
	return trades, err
}

// FindByTicker retrieves all Trade records for a ticker in execution order
func (r *TradeRepository) FindByTicker(ticker string) ([]models.Trade, error) {
	if ticker == "" {
		return nil, errors.New("invalid ticker")
	}
	var trades []models.Trade
	err := r.db.Where("ticker = ?", ticker).Order("date ASC, id ASC").Find(&trades).Error
	return trades, err
}

// GetTotalCommission sums commission paid within a date range
func (r *TradeRepository) GetTotalCommission(start, end time.Time) (float64, error) {
	var total float64
	err := r.db.Model(&models.Trade{}).
		Where("date BETWEEN ? AND ?", start, end).
		Select("COALESCE(SUM(commission), 0) as total").
		Scan(&total).Error
	return total, err
}
