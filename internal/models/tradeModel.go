package models

import (
	"time"
)

// Trade is one executed fill. Immutable once recorded.
type Trade struct {
	ID         uint      `gorm:"primaryKey"`
	Ticker     string    `gorm:"index;not null"`
	Date       time.Time `gorm:"index;not null"`
	Action     string    `gorm:"not null"`
	Price      float64   `gorm:"type:decimal(20,8);not null"`
	Shares     int       `gorm:"not null"`
	Commission float64   `gorm:"type:decimal(20,8);not null"`
	Amount     float64   `gorm:"type:decimal(20,8);not null"`
	Reason     string

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

const (
	TradeActionBuy  = "BUY"
	TradeActionSell = "SELL"
)

// TableName sets the table name for Trade model
func (Trade) TableName() string {
	return "trades"
}
