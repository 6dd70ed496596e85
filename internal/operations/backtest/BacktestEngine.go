// backtest/engine.go

package backtest

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"DividendCaptureBot/internal/models"
	"DividendCaptureBot/internal/services/execution"
	"DividendCaptureBot/internal/services/strategy"
)

// Engine drives the daily simulation: exits and additions on the open book
// first, then new entries, then dividend payments, then mark-to-market. The
// loop is single threaded and visits tickers in ascending order, so a rerun
// over the same inputs reproduces the trade log exactly.
type Engine struct {
	config    Config
	data      MarketData
	cal       Calendar
	strategy  *strategy.DividendStrategy
	costs     *execution.CostModel
	scheduler *execution.DividendScheduler
	portfolio *Portfolio
	recorder  Recorder
	log       *zap.SugaredLogger

	signals  []SignalRecord
	pending  []pendingDividend
	paidKeys map[string]bool // ticker + record date, at most one payment each
}

func NewEngine(config Config, data MarketData, cal Calendar, strat *strategy.DividendStrategy, costs *execution.CostModel, scheduler *execution.DividendScheduler, recorder Recorder, log *zap.SugaredLogger) *Engine {
	return &Engine{
		config:    config,
		data:      data,
		cal:       cal,
		strategy:  strat,
		costs:     costs,
		scheduler: scheduler,
		portfolio: NewPortfolio(config.InitialCapital, log),
		recorder:  recorder,
		log:       log,
		paidKeys:  make(map[string]bool),
	}
}

// Run executes the backtest over every trading day in the configured range.
func (e *Engine) Run() (*Results, error) {
	tradingDays, err := e.cal.TradingDays(e.config.StartDate, e.config.EndDate)
	if err != nil {
		return nil, err
	}

	e.log.Infow("backtest starting",
		"start", e.config.StartDate.Format("2006-01-02"),
		"end", e.config.EndDate.Format("2006-01-02"),
		"days", len(tradingDays),
		"capital", e.config.InitialCapital,
		"tickers", len(e.config.Universe))

	for i, day := range tradingDays {
		if i%20 == 0 {
			e.log.Infof("progress: %.1f%% (%s)",
				float64(i)/float64(len(tradingDays))*100, day.Format("2006-01-02"))
		}
		if err := e.processDay(day); err != nil {
			return nil, err
		}
	}

	results := e.calculateResults()
	e.log.Infow("backtest completed",
		"trades", results.TotalTrades, "finalValue", results.FinalValue)
	return results, nil
}

func (e *Engine) processDay(date time.Time) error {
	prices := e.currentPrices(date)

	// 1. Existing positions: exit first, addition only if no exit fired.
	e.processExistingPositions(date, prices)

	// 2. New entries against the current cash/position snapshot.
	e.checkNewEntries(date, prices)

	// 3. Dividend payments due today.
	e.processDividends(date)

	// 4. Mark to market.
	valuation := e.portfolio.MarkToMarket(date, prices)
	if e.recorder != nil {
		if err := e.recorder.RecordValuation(&valuation); err != nil {
			return fmt.Errorf("recording valuation: %w", err)
		}
	}

	return nil
}

func (e *Engine) processExistingPositions(date time.Time, prices map[string]float64) {
	for _, position := range e.portfolio.Positions().OpenPositions() {
		ticker := position.Ticker

		price, ok := prices[ticker]
		if !ok {
			gap := &models.DataGapError{Ticker: ticker, Date: date, What: "price"}
			e.log.Warnw("skipping position check", "error", gap.Error())
			continue
		}

		if exitSignal := e.strategy.CheckExit(ticker, date, position, price); exitSignal != nil {
			e.executeExit(exitSignal, position)
			continue // no same-day addition after an exit
		}

		if !position.ExDividendDate.IsZero() && sameDay(date, position.ExDividendDate) {
			e.processExDate(date, position, price)
		}
	}
}

// processExDate runs on a position's ex-dividend date: pin the prior
// business day's close and evaluate the drop-triggered addition.
func (e *Engine) processExDate(date time.Time, position *models.Position, price float64) {
	ticker := position.Ticker

	preExDate := e.cal.AddBusinessDays(date, -1)
	preExPrice, ok := e.data.PriceOn(ticker, preExDate)
	if !ok {
		gap := &models.DataGapError{Ticker: ticker, Date: preExDate, What: "pre-ex price"}
		e.log.Warnw("skipping addition check", "error", gap.Error())
		return
	}

	e.portfolio.Positions().SetPreExPrice(ticker, preExPrice)

	addSignal := e.strategy.CheckAddition(ticker, date, position, price, preExPrice)
	if addSignal == nil {
		return
	}

	if err := e.strategy.Validate(addSignal, e.portfolio.Positions().Count(), e.portfolio.Cash()); err != nil {
		e.recordSignal(addSignal, addSignal.ReferencePrice, false, err.Error())
		return
	}

	fillPrice, commission := e.costs.Fill(addSignal.ReferencePrice, addSignal.Shares,
		models.TradeActionBuy, e.costs.IsNearExDate(date, position.ExDividendDate))

	if _, err := e.portfolio.ExecuteAddition(ticker, date, fillPrice, addSignal.Shares, commission, addSignal.Reason); err != nil {
		e.recordSignal(addSignal, fillPrice, false, err.Error())
		return
	}

	e.recordSignal(addSignal, fillPrice, true, "")
	e.persistLastTradeAndPosition(position)
}

func (e *Engine) checkNewEntries(date time.Time, prices map[string]float64) {
	if e.portfolio.Positions().Count() >= e.config.MaxPositions {
		return
	}

	for _, ticker := range sortedUniverse(e.config.Universe) {
		position := e.portfolio.Positions().Position(ticker)
		if position != nil {
			continue
		}

		price, ok := prices[ticker]
		if !ok {
			gap := &models.DataGapError{Ticker: ticker, Date: date, What: "price"}
			e.log.Warnw("skipping entry check", "error", gap.Error())
			continue
		}

		dividend := e.data.NextDividend(ticker, date)
		if dividend == nil {
			continue
		}

		entrySignal := e.strategy.CheckEntry(ticker, date, dividend, price, position)
		if entrySignal == nil {
			continue
		}

		// Validation sees cash already consumed by earlier entries today.
		if err := e.strategy.Validate(entrySignal, e.portfolio.Positions().Count(), e.portfolio.Cash()); err != nil {
			e.recordSignal(entrySignal, entrySignal.ReferencePrice, false, err.Error())
			continue
		}

		fillPrice, commission := e.costs.Fill(entrySignal.ReferencePrice, entrySignal.Shares,
			models.TradeActionBuy, e.costs.IsNearExDate(date, dividend.ExDividendDate))

		opened, err := e.portfolio.ExecuteEntry(ticker, date, fillPrice, entrySignal.Shares, commission, entrySignal.Reason, dividend)
		if err != nil {
			var insufficient *models.InsufficientCashError
			if !errors.As(err, &insufficient) {
				e.log.Errorw("entry execution failed", "ticker", ticker, "error", err)
			}
			e.recordSignal(entrySignal, fillPrice, false, err.Error())
			continue
		}

		e.recordSignal(entrySignal, fillPrice, true, "")
		e.persistLastTradeAndPosition(opened)
	}
}

func (e *Engine) executeExit(signal *strategy.Signal, position *models.Position) {
	fillPrice, commission := e.costs.Fill(signal.ReferencePrice, signal.Shares,
		models.TradeActionSell, e.costs.IsNearExDate(signal.Date, position.ExDividendDate))

	trade, closed, err := e.portfolio.ExecuteSell(signal.Ticker, signal.Date, fillPrice, commission, signal.Reason)
	if err != nil {
		e.log.Errorw("exit execution failed", "ticker", signal.Ticker, "error", err)
		e.recordSignal(signal, fillPrice, false, err.Error())
		return
	}

	// An entitlement that survives the close is still paid later, tracked
	// by ticker and record date.
	if e.entitledButUnpaid(closed, signal.Date) {
		e.pending = append(e.pending, pendingDividend{
			Ticker:      closed.Ticker,
			RecordDate:  closed.RecordDate,
			PaymentDate: e.scheduler.PaymentDate(closed.RecordDate),
			NetPerShare: e.scheduler.NetAmount(closed.DividendAmount),
			Shares:      trade.Shares,
			position:    closed,
		})
	}

	e.recordSignal(signal, fillPrice, true, "")
	if e.recorder != nil {
		if err := e.recorder.RecordTrade(trade); err != nil {
			e.log.Errorw("recording trade failed", "error", err)
		}
		if err := e.recorder.RecordPosition(closed); err != nil {
			e.log.Errorw("recording position failed", "error", err)
		}
	}
}

func (e *Engine) processDividends(date time.Time) {
	for _, position := range e.portfolio.Positions().OpenPositions() {
		if !e.entitledButUnpaid(position, date) {
			continue
		}
		// Paid on the first trading day at or after the scheduled date;
		// heuristic dates can land on weekends.
		if date.Before(e.scheduler.PaymentDate(position.RecordDate)) {
			continue
		}
		key := paymentKey(position.Ticker, position.RecordDate)
		if e.paidKeys[key] {
			continue
		}
		e.portfolio.UpdateDividend(position.Ticker, e.scheduler.NetAmount(position.DividendAmount), date)
		e.paidKeys[key] = true
	}

	remaining := e.pending[:0]
	for _, p := range e.pending {
		if date.Before(p.PaymentDate) {
			remaining = append(remaining, p)
			continue
		}
		key := paymentKey(p.Ticker, p.RecordDate)
		if !e.paidKeys[key] {
			e.portfolio.CreditClosedDividend(p.position, p.NetPerShare, p.Shares, date)
			e.paidKeys[key] = true
			if e.recorder != nil {
				if err := e.recorder.RecordPosition(p.position); err != nil {
					e.log.Errorw("recording position failed", "error", err)
				}
			}
		}
	}
	e.pending = remaining
}

// entitledButUnpaid reports whether the position holds a dividend claim that
// has crossed its ex-date without being paid yet.
func (e *Engine) entitledButUnpaid(position *models.Position, date time.Time) bool {
	if position.DividendPaid || position.DividendAmount <= 0 {
		return false
	}
	if position.ExDividendDate.IsZero() || position.RecordDate.IsZero() {
		return false
	}
	return !date.Before(position.ExDividendDate)
}

func (e *Engine) currentPrices(date time.Time) map[string]float64 {
	prices := make(map[string]float64, len(e.config.Universe))
	for _, ticker := range e.config.Universe {
		if price, ok := e.data.PriceOn(ticker, date); ok {
			prices[ticker] = price
		}
	}
	return prices
}

func (e *Engine) recordSignal(signal *strategy.Signal, price float64, executed bool, rejectReason string) {
	e.signals = append(e.signals, SignalRecord{
		Date:         signal.Date,
		Ticker:       signal.Ticker,
		Type:         signal.Type.String(),
		Price:        price,
		Shares:       signal.Shares,
		Executed:     executed,
		Reason:       signal.Reason,
		RejectReason: rejectReason,
	})
}

func (e *Engine) persistLastTradeAndPosition(position *models.Position) {
	if e.recorder == nil {
		return
	}
	trades := e.portfolio.Positions().Trades()
	if len(trades) > 0 {
		if err := e.recorder.RecordTrade(&trades[len(trades)-1]); err != nil {
			e.log.Errorw("recording trade failed", "error", err)
		}
	}
	if err := e.recorder.RecordPosition(position); err != nil {
		e.log.Errorw("recording position failed", "error", err)
	}
}

func sortedUniverse(tickers []string) []string {
	sorted := make([]string, len(tickers))
	copy(sorted, tickers)
	sort.Strings(sorted)
	return sorted
}

func paymentKey(ticker string, recordDate time.Time) string {
	return ticker + "|" + recordDate.Format("2006-01-02")
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
