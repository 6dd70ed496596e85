package strategy

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"DividendCaptureBot/config"
	"DividendCaptureBot/internal/models"
)

// Calendar is the business-day arithmetic the strategy depends on.
type Calendar interface {
	AddBusinessDays(start time.Time, days int) time.Time
	BusinessDayDiff(start, end time.Time) int
}

// DividendStrategy produces entry, addition and exit signals for the
// dividend-capture strategy. It holds no mutable state; all position state
// comes in through the arguments.
type DividendStrategy struct {
	entry    config.EntryConfig
	addition config.AdditionConfig
	exit     config.ExitConfig
	cal      Calendar
	log      *zap.SugaredLogger
}

func NewDividendStrategy(entry config.EntryConfig, addition config.AdditionConfig, exit config.ExitConfig, cal Calendar, log *zap.SugaredLogger) *DividendStrategy {
	return &DividendStrategy{
		entry:    entry,
		addition: addition,
		exit:     exit,
		cal:      cal,
		log:      log,
	}
}

// CheckEntry fires when the current date is exactly the configured number of
// business days before the dividend's record date, no position is open for
// the ticker, and at least one lot is affordable at the reference price.
func (s *DividendStrategy) CheckEntry(ticker string, date time.Time, dividend *models.Dividend, price float64, position *models.Position) *Signal {
	if dividend == nil || position != nil {
		return nil
	}

	entryDate := s.cal.AddBusinessDays(dividend.RecordDate, -s.entry.DaysBeforeRecord)
	if !sameDay(date, entryDate) {
		return nil
	}

	shares := s.positionSize(price, s.entry.PositionSize)
	if shares <= 0 {
		return nil
	}

	return &Signal{
		Ticker:         ticker,
		Type:           SignalEntry,
		Date:           date,
		ReferencePrice: price,
		Shares:         shares,
		Reason:         fmt.Sprintf("entry %d business days before record date", s.entry.DaysBeforeRecord),
		RecordDate:     dividend.RecordDate,
		ExDividendDate: dividend.ExDividendDate,
		DividendAmount: dividend.Amount,
	}
}

// CheckAddition fires on the ex-dividend date when the price has dropped
// below the prior business day's close. The addition is sized against the
// position's opening value, lot-rounded like an entry. The enabled flag is
// enforced inside the signal constructor.
func (s *DividendStrategy) CheckAddition(ticker string, date time.Time, position *models.Position, price, preExPrice float64) *Signal {
	if position == nil || position.ExDividendDate.IsZero() {
		return nil
	}
	if !sameDay(date, position.ExDividendDate) {
		return nil
	}
	if price >= preExPrice {
		return nil
	}

	addAmount := position.InitialValue() * s.addition.AddRatio
	shares := s.positionSize(price, addAmount)
	dropPct := (preExPrice - price) / preExPrice * 100

	return newAdditionSignal(s.addition, ticker, date, price, shares, preExPrice,
		fmt.Sprintf("add on ex-dividend drop (%.1f%%)", dropPct))
}

// CheckExit evaluates the exit conditions in strict priority order; the
// first match wins. The pre-ex reference for the window-fill check is the
// close of the business day before the ex-date, falling back to the entry
// price while that close is unknown.
func (s *DividendStrategy) CheckExit(ticker string, date time.Time, position *models.Position, price float64) *Signal {
	if position == nil || position.TotalShares <= 0 {
		return nil
	}

	holdingDays := s.cal.BusinessDayDiff(position.EntryDate, date)
	pnlRate := (price - position.AveragePrice) / position.AveragePrice

	preExPrice := position.PreExPrice
	if preExPrice == 0 {
		preExPrice = position.EntryPrice
	}

	var reason ExitReason
	var text string

	switch {
	case s.exit.WindowFillExit && holdingDays >= s.exit.MinHoldingDays && price >= preExPrice:
		reason = ExitWindowFilled
		text = fmt.Sprintf("window filled (reached pre-ex price %.0f)", preExPrice)
	case holdingDays >= s.exit.MaxHoldingDays:
		reason = ExitMaxHoldingPeriod
		text = fmt.Sprintf("max holding period reached (%d days)", holdingDays)
	case pnlRate <= -s.exit.StopLossPct:
		reason = ExitStopLoss
		text = fmt.Sprintf("stop loss triggered (%.1f%%)", pnlRate*100)
	default:
		return nil
	}

	return &Signal{
		Ticker:         ticker,
		Type:           SignalExit,
		Date:           date,
		ReferencePrice: price,
		Shares:         position.TotalShares, // full liquidation
		Reason:         text,
		ExitReason:     reason,
		HoldingDays:    holdingDays,
		PnLRate:        pnlRate,
	}
}

// Validate checks a buy-side signal against the current portfolio snapshot.
// A nil return means the signal may execute; otherwise the typed error names
// why it was dropped.
func (s *DividendStrategy) Validate(signal *Signal, positionCount int, availableCash float64) error {
	switch signal.Type {
	case SignalEntry:
		if positionCount >= s.entry.MaxPositions {
			s.log.Warnw("max positions reached, dropping entry",
				"ticker", signal.Ticker, "count", positionCount)
			return fmt.Errorf("max positions reached (%d)", positionCount)
		}
	case SignalAdd:
		// falls through to the cash check
	case SignalExit:
		return nil
	}

	required := signal.ReferencePrice * float64(signal.Shares)
	if required > availableCash {
		err := &models.InsufficientCashError{
			Ticker:    signal.Ticker,
			Date:      signal.Date,
			Required:  required,
			Available: availableCash,
		}
		s.log.Warnw("insufficient cash, dropping signal",
			"ticker", signal.Ticker, "required", required, "available", availableCash)
		return err
	}

	return nil
}

// positionSize rounds the affordable share count down to a whole number of
// lots.
func (s *DividendStrategy) positionSize(price, investment float64) int {
	if price <= 0 {
		return 0
	}
	maxShares := int(investment / price)
	return (maxShares / s.entry.LotSize) * s.entry.LotSize
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
