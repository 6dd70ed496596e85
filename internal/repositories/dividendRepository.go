package repositories

import (
	"DividendCaptureBot/internal/models"
	"errors"
	"time"

	"gorm.io/gorm"
)

type DividendRepository struct {
	db *gorm.DB
}

// NewDividendRepository creates a new instance of DividendRepository
func NewDividendRepository(db *gorm.DB) *DividendRepository {
	return &DividendRepository{db: db}
}

// Create adds a new Dividend record to the database
func (r *DividendRepository) Create(dividend *models.Dividend) error {
	if dividend == nil {
		return errors.New("dividend cannot be nil")
	}
	return r.db.Create(dividend).Error
}

// CreateBatch inserts a batch of dividend events in one statement
func (r *DividendRepository) CreateBatch(dividends []models.Dividend) error {
	if len(dividends) == 0 {
		return nil
	}
	return r.db.CreateInBatches(dividends, 500).Error
}

// FindNext retrieves the next dividend for a ticker whose record date is on
// or after the given date
func (r *DividendRepository) FindNext(ticker string, date time.Time) (*models.Dividend, error) {
	if ticker == "" {
		return nil, errors.New("invalid ticker")
	}
	var dividend models.Dividend
	err := r.db.Where("ticker = ? AND record_date >= ?", ticker, date).
		Order("record_date ASC").
		First(&dividend).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	return &dividend, err
}

// FindByTicker retrieves all dividend events for a ticker ordered by record date
func (r *DividendRepository) FindByTicker(ticker string) ([]models.Dividend, error) {
	if ticker == "" {
		return nil, errors.New("invalid ticker")
	}
	var dividends []models.Dividend
	err := r.db.Where("ticker = ?", ticker).
		Order("record_date ASC").
		Find(&dividends).Error
	return dividends, err
}
