package backtest

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"DividendCaptureBot/internal/models"
)

// PositionManager owns the set of open positions: at most one per ticker,
// keyed by ticker code. Every mutation appends an immutable trade record.
type PositionManager struct {
	positions map[string]*models.Position
	closed    []*models.Position
	trades    []models.Trade
	log       *zap.SugaredLogger
}

func NewPositionManager(log *zap.SugaredLogger) *PositionManager {
	return &PositionManager{
		positions: make(map[string]*models.Position),
		log:       log,
	}
}

// Open creates a new position from an entry fill. Opening over an existing
// position for the same ticker is a programming error and is refused.
func (pm *PositionManager) Open(ticker string, date time.Time, fillPrice float64, shares int, commission float64, reason string, dividend *models.Dividend) (*models.Position, error) {
	if _, exists := pm.positions[ticker]; exists {
		return nil, fmt.Errorf("position already exists for %s", ticker)
	}
	if shares <= 0 {
		return nil, fmt.Errorf("cannot open %s with %d shares", ticker, shares)
	}

	position := &models.Position{
		Ticker:          ticker,
		EntryDate:       date,
		EntryPrice:      fillPrice,
		AveragePrice:    fillPrice,
		TotalShares:     shares,
		InitialShares:   shares,
		TotalCommission: commission,
		Status:          models.PositionStatusOpen,
	}
	if dividend != nil {
		position.RecordDate = dividend.RecordDate
		position.ExDividendDate = dividend.ExDividendDate
		position.DividendAmount = dividend.Amount
	}

	pm.positions[ticker] = position
	pm.appendTrade(ticker, date, models.TradeActionBuy, fillPrice, shares, commission, reason)

	pm.log.Infow("position opened", "ticker", ticker, "shares", shares, "price", fillPrice)
	return position, nil
}

// Add buys into an existing position. The average price becomes the
// shares-weighted mean of all fills contributing to the current size.
func (pm *PositionManager) Add(ticker string, date time.Time, fillPrice float64, shares int, commission float64, reason string) (*models.Position, error) {
	position, exists := pm.positions[ticker]
	if !exists {
		return nil, fmt.Errorf("no position exists for %s", ticker)
	}
	if shares <= 0 {
		return nil, fmt.Errorf("cannot add %d shares to %s", shares, ticker)
	}

	oldShares := position.TotalShares
	position.AveragePrice = (position.AveragePrice*float64(oldShares) + fillPrice*float64(shares)) /
		float64(oldShares+shares)
	position.TotalShares = oldShares + shares
	position.TotalCommission += commission

	pm.appendTrade(ticker, date, models.TradeActionBuy, fillPrice, shares, commission, reason)

	pm.log.Infow("position added",
		"ticker", ticker, "shares", shares, "price", fillPrice, "avgPrice", position.AveragePrice)
	return position, nil
}

// Close liquidates the full position: all shares in one sell. The realized
// P&L nets cumulative commission, including the closing trade's. Dividend
// income is tracked separately on the position record.
func (pm *PositionManager) Close(ticker string, date time.Time, fillPrice float64, commission float64, reason string) (*models.Trade, *models.Position, error) {
	position, exists := pm.positions[ticker]
	if !exists {
		return nil, nil, fmt.Errorf("no position exists for %s", ticker)
	}

	shares := position.TotalShares
	position.TotalCommission += commission
	position.RealizedPnL = (fillPrice-position.AveragePrice)*float64(shares) - position.TotalCommission
	position.ExitDate = date
	position.ExitPrice = fillPrice
	position.ExitReason = reason
	position.TotalShares = 0
	position.Status = models.PositionStatusClosed

	trade := pm.appendTrade(ticker, date, models.TradeActionSell, fillPrice, shares, commission, reason)

	pm.closed = append(pm.closed, position)
	delete(pm.positions, ticker)

	pm.log.Infow("position closed",
		"ticker", ticker, "shares", shares, "price", fillPrice, "pnl", position.RealizedPnL)
	return trade, position, nil
}

// SetPreExPrice records the prior business day's close once the ex-date is
// reached.
func (pm *PositionManager) SetPreExPrice(ticker string, price float64) {
	if position, exists := pm.positions[ticker]; exists {
		position.PreExPrice = price
	}
}

// Position returns the open position for a ticker, or nil.
func (pm *PositionManager) Position(ticker string) *models.Position {
	return pm.positions[ticker]
}

// OpenPositions returns open positions in ascending ticker order so every
// traversal of the book is deterministic.
func (pm *PositionManager) OpenPositions() []*models.Position {
	tickers := make([]string, 0, len(pm.positions))
	for ticker := range pm.positions {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	positions := make([]*models.Position, 0, len(tickers))
	for _, ticker := range tickers {
		positions = append(positions, pm.positions[ticker])
	}
	return positions
}

// Count returns the number of open positions.
func (pm *PositionManager) Count() int {
	return len(pm.positions)
}

// ClosedPositions returns closed positions in close order.
func (pm *PositionManager) ClosedPositions() []*models.Position {
	return pm.closed
}

// Trades returns every fill in execution order.
func (pm *PositionManager) Trades() []models.Trade {
	return pm.trades
}

// TotalMarketValue prices the open book with the given closes. Tickers
// missing from the map contribute nothing; the caller supplies fallbacks.
// Summation walks the book in ticker order so the floating-point result is
// the same on every call.
func (pm *PositionManager) TotalMarketValue(prices map[string]float64) float64 {
	total := 0.0
	for _, position := range pm.OpenPositions() {
		if price, ok := prices[position.Ticker]; ok {
			total += price * float64(position.TotalShares)
		}
	}
	return total
}

func (pm *PositionManager) appendTrade(ticker string, date time.Time, action string, price float64, shares int, commission float64, reason string) *models.Trade {
	amount := price * float64(shares)
	if action == models.TradeActionBuy {
		amount += commission
	} else {
		amount -= commission
	}
	pm.trades = append(pm.trades, models.Trade{
		Ticker:     ticker,
		Date:       date,
		Action:     action,
		Price:      price,
		Shares:     shares,
		Commission: commission,
		Amount:     amount,
		Reason:     reason,
	})
	return &pm.trades[len(pm.trades)-1]
}
