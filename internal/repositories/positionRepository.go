package repositories

import (
	"DividendCaptureBot/internal/models"
	"errors"
	"time"

	"gorm.io/gorm"
)

type PositionRepository struct {
	db *gorm.DB
}

// NewPositionRepository creates a new instance of PositionRepository
func NewPositionRepository(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Create adds a new Position record to the database
func (r *PositionRepository) Create(position *models.Position) error {
	if position == nil {
		return errors.New("position cannot be nil")
	}
	return r.db.Create(position).Error
}

// Update modifies an existing Position record
func (r *PositionRepository) Update(position *models.Position) error {
	if position == nil {
		return errors.New("position cannot be nil")
	}
	return r.db.Save(position).Error
}

// FindAll retrieves all Position records
func (r *PositionRepository) FindAll() ([]models.Position, error) {
	var positions []models.Position
	err := r.db.Order("entry_date ASC").Find(&positions).Error
	return positions, err
}

// FindOpenPositions retrieves all open Position records
func (r *PositionRepository) FindOpenPositions() ([]models.Position, error) {
	var positions []models.Position
	err := r.db.Where("status = ?", models.PositionStatusOpen).Find(&positions).Error
	return positions, err
}

// FindClosedPositions retrieves all closed Position records
func (r *PositionRepository) FindClosedPositions() ([]models.Position, error) {
	var positions []models.Position
	err := r.db.Where("status = ?", models.PositionStatusClosed).
		Order("exit_date ASC").
		Find(&positions).Error
	return positions, err
}

// GetTotalPnL calculates realized profit and loss for closed positions within a date range
func (r *PositionRepository) GetTotalPnL(start, end time.Time) (float64, error) {
	var totalPnL float64
	err := r.db.Model(&models.Position{}).
		Where("exit_date BETWEEN ? AND ? AND status = ?", start, end, models.PositionStatusClosed).
		Select("COALESCE(SUM(realized_pn_l), 0) as total_pnl").
		Scan(&totalPnL).Error
	return totalPnL, err
}
