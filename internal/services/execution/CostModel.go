package execution

import (
	"math"
	"time"

	"DividendCaptureBot/config"
	"DividendCaptureBot/internal/models"
)

// CostModel turns a reference closing price into a fill price and a
// commission. Fills within one calendar day of the ex-dividend date use the
// wider ex-date slippage; commission is rate-based and clamped to the broker
// minimum and maximum.
type CostModel struct {
	cfg config.ExecutionConfig
}

func NewCostModel(cfg config.ExecutionConfig) *CostModel {
	return &CostModel{cfg: cfg}
}

// IsNearExDate reports whether date falls within one calendar day of the
// ex-dividend date. A zero ex-date means the position carries no entitlement
// and normal slippage applies.
func (m *CostModel) IsNearExDate(date, exDividendDate time.Time) bool {
	if exDividendDate.IsZero() {
		return false
	}
	days := date.Sub(exDividendDate).Hours() / 24
	return math.Abs(days) <= 1
}

// FillPrice applies slippage to the reference price: buys fill above it,
// sells below it.
func (m *CostModel) FillPrice(referencePrice float64, action string, nearExDate bool) float64 {
	slippage := m.cfg.SlippageNormal
	if nearExDate {
		slippage = m.cfg.SlippageExDate
	}
	if action == models.TradeActionSell {
		return referencePrice * (1 - slippage)
	}
	return referencePrice * (1 + slippage)
}

// Commission computes the rate-based fee on the slippage-adjusted trade
// amount, clamped into [MinCommission, MaxCommission].
func (m *CostModel) Commission(fillAmount float64) float64 {
	commission := fillAmount * m.cfg.CommissionRate
	if commission < m.cfg.MinCommission {
		commission = m.cfg.MinCommission
	}
	if commission > m.cfg.MaxCommission {
		commission = m.cfg.MaxCommission
	}
	return commission
}

// Fill prices a whole order: slippage-adjusted fill price and the commission
// computed on the resulting trade amount.
func (m *CostModel) Fill(referencePrice float64, shares int, action string, nearExDate bool) (fillPrice, commission float64) {
	fillPrice = m.FillPrice(referencePrice, action, nearExDate)
	commission = m.Commission(fillPrice * float64(shares))
	return fillPrice, commission
}
