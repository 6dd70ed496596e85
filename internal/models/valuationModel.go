package models

import (
	"time"
)

// Valuation is one point of the daily mark-to-market series.
type Valuation struct {
	ID            uint      `gorm:"primaryKey"`
	Date          time.Time `gorm:"index;not null"`
	Cash          float64   `gorm:"type:decimal(20,8);not null"`
	HoldingsValue float64   `gorm:"type:decimal(20,8);not null"`
	TotalValue    float64   `gorm:"type:decimal(20,8);not null"`
	DailyReturn   float64   `gorm:"type:decimal(20,8)"`
	TotalReturn   float64   `gorm:"type:decimal(20,8)"`
	PositionCount int       `gorm:"not null"`
}

// TableName sets the table name for Valuation model
func (Valuation) TableName() string {
	return "valuations"
}
