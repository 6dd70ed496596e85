package backtest

import (
	"time"

	"go.uber.org/zap"

	"DividendCaptureBot/internal/models"
)

// Portfolio owns the cash balance and the daily valuation series. Cash never
// goes negative: the debit check here is authoritative and independent of the
// strategy's pre-validation, so ordering effects within a day cannot
// overdraw.
type Portfolio struct {
	initialCapital float64
	cash           float64
	positions      *PositionManager
	history        []models.Valuation
	lastPrices     map[string]float64

	totalCommission float64
	totalDividend   float64
	winningTrades   int
	losingTrades    int

	log *zap.SugaredLogger
}

func NewPortfolio(initialCapital float64, log *zap.SugaredLogger) *Portfolio {
	return &Portfolio{
		initialCapital: initialCapital,
		cash:           initialCapital,
		positions:      NewPositionManager(log),
		lastPrices:     make(map[string]float64),
		log:            log,
	}
}

func (p *Portfolio) Cash() float64 {
	return p.cash
}

func (p *Portfolio) Positions() *PositionManager {
	return p.positions
}

// ExecuteEntry opens a new position, debiting fill cost plus commission.
// Fails without mutation when cash is insufficient.
func (p *Portfolio) ExecuteEntry(ticker string, date time.Time, fillPrice float64, shares int, commission float64, reason string, dividend *models.Dividend) (*models.Position, error) {
	if err := p.checkCash(ticker, date, fillPrice, shares, commission); err != nil {
		return nil, err
	}

	position, err := p.positions.Open(ticker, date, fillPrice, shares, commission, reason, dividend)
	if err != nil {
		return nil, err
	}

	p.debit(fillPrice, shares, commission)
	return position, nil
}

// ExecuteAddition buys into an existing position, debiting cash the same way
// as an entry.
func (p *Portfolio) ExecuteAddition(ticker string, date time.Time, fillPrice float64, shares int, commission float64, reason string) (*models.Position, error) {
	if err := p.checkCash(ticker, date, fillPrice, shares, commission); err != nil {
		return nil, err
	}

	position, err := p.positions.Add(ticker, date, fillPrice, shares, commission, reason)
	if err != nil {
		return nil, err
	}

	p.debit(fillPrice, shares, commission)
	return position, nil
}

// ExecuteSell liquidates the full position and credits the proceeds.
func (p *Portfolio) ExecuteSell(ticker string, date time.Time, fillPrice float64, commission float64, reason string) (*models.Trade, *models.Position, error) {
	position := p.positions.Position(ticker)
	if position == nil {
		return nil, nil, &models.DataGapError{Ticker: ticker, Date: date, What: "open position"}
	}
	shares := position.TotalShares

	trade, closed, err := p.positions.Close(ticker, date, fillPrice, commission, reason)
	if err != nil {
		return nil, nil, err
	}

	p.cash += fillPrice*float64(shares) - commission
	p.totalCommission += commission
	if closed.RealizedPnL > 0 {
		p.winningTrades++
	} else {
		p.losingTrades++
	}

	p.log.Infow("sell executed",
		"ticker", ticker, "shares", shares, "price", fillPrice,
		"pnl", closed.RealizedPnL, "cash", p.cash)
	return trade, closed, nil
}

// UpdateDividend credits the net dividend for an open position. The paid
// flag flips exactly once; a second credit for the same position is a no-op.
func (p *Portfolio) UpdateDividend(ticker string, netPerShare float64, date time.Time) float64 {
	position := p.positions.Position(ticker)
	if position == nil || position.DividendPaid {
		return 0
	}

	amount := netPerShare * float64(position.TotalShares)
	p.cash += amount
	p.totalDividend += amount
	position.DividendPaid = true
	position.DividendReceived = amount

	p.log.Infow("dividend received", "ticker", ticker, "amount", amount, "date", date.Format("2006-01-02"))
	return amount
}

// CreditClosedDividend credits a payment whose position closed after the
// ex-date but before the payment date. The closed record is updated for
// reporting.
func (p *Portfolio) CreditClosedDividend(closed *models.Position, netPerShare float64, shares int, date time.Time) float64 {
	if closed == nil || closed.DividendPaid {
		return 0
	}

	amount := netPerShare * float64(shares)
	p.cash += amount
	p.totalDividend += amount
	closed.DividendPaid = true
	closed.DividendReceived = amount

	p.log.Infow("dividend received after close",
		"ticker", closed.Ticker, "amount", amount, "date", date.Format("2006-01-02"))
	return amount
}

// MarkToMarket values the portfolio at the day's closes and appends to the
// valuation series. A ticker without a close today is valued at its last
// known price rather than zero.
func (p *Portfolio) MarkToMarket(date time.Time, prices map[string]float64) models.Valuation {
	for ticker, price := range prices {
		p.lastPrices[ticker] = price
	}

	effective := make(map[string]float64, len(prices))
	for _, position := range p.positions.OpenPositions() {
		if price, ok := prices[position.Ticker]; ok {
			effective[position.Ticker] = price
		} else if last, ok := p.lastPrices[position.Ticker]; ok {
			effective[position.Ticker] = last
		}
	}

	holdings := p.positions.TotalMarketValue(effective)
	totalValue := p.cash + holdings

	dailyReturn := 0.0
	if len(p.history) > 0 {
		prev := p.history[len(p.history)-1].TotalValue
		if prev > 0 {
			dailyReturn = (totalValue - prev) / prev
		}
	}

	valuation := models.Valuation{
		Date:          date,
		Cash:          p.cash,
		HoldingsValue: holdings,
		TotalValue:    totalValue,
		DailyReturn:   dailyReturn,
		TotalReturn:   (totalValue - p.initialCapital) / p.initialCapital,
		PositionCount: p.positions.Count(),
	}
	p.history = append(p.history, valuation)
	return valuation
}

func (p *Portfolio) History() []models.Valuation {
	return p.history
}

func (p *Portfolio) checkCash(ticker string, date time.Time, fillPrice float64, shares int, commission float64) error {
	required := fillPrice*float64(shares) + commission
	if required > p.cash {
		return &models.InsufficientCashError{
			Ticker:    ticker,
			Date:      date,
			Required:  required,
			Available: p.cash,
		}
	}
	return nil
}

func (p *Portfolio) debit(fillPrice float64, shares int, commission float64) {
	p.cash -= fillPrice*float64(shares) + commission
	p.totalCommission += commission
}
