package models

import "time"

type Position struct {
	ID            uint      `gorm:"primaryKey"`
	Ticker        string    `gorm:"index;not null"`
	EntryDate     time.Time `gorm:"index;not null"`
	EntryPrice    float64   `gorm:"type:decimal(20,8);not null"`
	AveragePrice  float64   `gorm:"type:decimal(20,8);not null"`
	TotalShares   int       `gorm:"not null"`
	InitialShares int       `gorm:"not null"`

	// Dividend entitlement carried by this position. PreExPrice stays zero
	// until the ex-date is processed.
	RecordDate     time.Time `gorm:"index"`
	ExDividendDate time.Time `gorm:"index"`
	DividendAmount float64   `gorm:"type:decimal(20,8)"`
	PreExPrice     float64   `gorm:"type:decimal(20,8)"`
	DividendPaid   bool      `gorm:"not null;default:false"`

	ExitDate   time.Time `gorm:"index"`
	ExitPrice  float64   `gorm:"type:decimal(20,8)"`
	ExitReason string

	RealizedPnL      float64 `gorm:"type:decimal(20,8)"`
	DividendReceived float64 `gorm:"type:decimal(20,8)"`
	TotalCommission  float64 `gorm:"type:decimal(20,8)"`

	Status string `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

const (
	PositionStatusOpen   = "open"
	PositionStatusClosed = "closed"
)

// TableName sets the table name for Position model
func (Position) TableName() string {
	return "positions"
}

// InitialValue is the cost basis of the opening fill, before any ex-date
// addition. The addition amount is sized against this, not the grown position.
func (p *Position) InitialValue() float64 {
	return p.EntryPrice * float64(p.InitialShares)
}

// UnrealizedPnL values the open position against the current price.
func (p *Position) UnrealizedPnL(currentPrice float64) float64 {
	if p.Status == PositionStatusClosed || p.TotalShares == 0 {
		return 0
	}
	return (currentPrice - p.AveragePrice) * float64(p.TotalShares)
}
