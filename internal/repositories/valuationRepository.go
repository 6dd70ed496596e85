package repositories

import (
	"DividendCaptureBot/internal/models"
	"errors"

	"gorm.io/gorm"
)

type ValuationRepository struct {
	db *gorm.DB
}

// NewValuationRepository creates a new instance of ValuationRepository
func NewValuationRepository(db *gorm.DB) *ValuationRepository {
	return &ValuationRepository{db: db}
}

// Create adds a new Valuation record to the database
func (r *ValuationRepository) Create(valuation *models.Valuation) error {
	if valuation == nil {
		return errors.New("valuation cannot be nil")
	}
	return r.db.Create(valuation).Error
}

// FindAll retrieves the daily valuation series in date order
func (r *ValuationRepository) FindAll() ([]models.Valuation, error) {
	var valuations []models.Valuation
	err := r.db.Order("date ASC").Find(&valuations).Error
	return valuations, err
}
