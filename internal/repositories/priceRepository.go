package repositories

import (
	"DividendCaptureBot/internal/models"
	"errors"
	"time"

	"gorm.io/gorm"
)

type PriceRepository struct {
	db *gorm.DB
}

// NewPriceRepository creates a new instance of PriceRepository
func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// Create adds a new Price record to the database
func (r *PriceRepository) Create(price *models.Price) error {
	if price == nil {
		return errors.New("price cannot be nil")
	}
	return r.db.Create(price).Error
}

// CreateBatch inserts a batch of daily closes in one statement
func (r *PriceRepository) CreateBatch(prices []models.Price) error {
	if len(prices) == 0 {
		return nil
	}
	return r.db.CreateInBatches(prices, 500).Error
}

// FindByTickerAndDate retrieves the price record for a ticker on a given day
func (r *PriceRepository) FindByTickerAndDate(ticker string, date time.Time) (*models.Price, error) {
	if ticker == "" {
		return nil, errors.New("invalid ticker")
	}
	var price models.Price
	err := r.db.Where("ticker = ? AND date = ?", ticker, date).First(&price).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return &price, err
}

// GetPriceHistory gets the daily price history for a ticker within a date range
func (r *PriceRepository) GetPriceHistory(ticker string, start, end time.Time) ([]models.Price, error) {
	if ticker == "" {
		return nil, errors.New("invalid ticker")
	}
	var prices []models.Price
	err := r.db.Where("ticker = ? AND date BETWEEN ? AND ?", ticker, start, end).
		Order("date ASC").
		Find(&prices).Error
	return prices, err
}

// CountByTicker returns the number of stored daily closes for a ticker
func (r *PriceRepository) CountByTicker(ticker string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Price{}).Where("ticker = ?", ticker).Count(&count).Error
	return count, err
}
