package models

import (
	"time"
)

// Dividend is one announced dividend event: the record date fixes
// entitlement, the ex-dividend date is the first trading day a purchase no
// longer carries it.
type Dividend struct {
	ID             uint      `gorm:"primaryKey"`
	Ticker         string    `gorm:"index;not null"`
	RecordDate     time.Time `gorm:"index;not null"`
	ExDividendDate time.Time `gorm:"index;not null"`
	Amount         float64   `gorm:"type:decimal(20,8);not null"`
}

// TableName sets the table name for Dividend model
func (Dividend) TableName() string {
	return "dividends"
}
