package models

import (
	"time"
)

type Price struct {
	ID     uint      `gorm:"primaryKey"`
	Ticker string    `gorm:"index;not null"`
	Date   time.Time `gorm:"index;not null"`
	Open   float64   `gorm:"type:decimal(20,8)"`
	High   float64   `gorm:"type:decimal(20,8)"`
	Low    float64   `gorm:"type:decimal(20,8)"`
	Close  float64   `gorm:"type:decimal(20,8)"`
	Volume float64   `gorm:"type:decimal(20,8)"`
}

// TableName sets the table name for Price model
func (Price) TableName() string {
	return "prices"
}
