package backtest

import (
	"math"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"DividendCaptureBot/config"
	"DividendCaptureBot/internal/models"
	"DividendCaptureBot/internal/services/calendar"
	"DividendCaptureBot/internal/services/execution"
	"DividendCaptureBot/internal/services/strategy"
)

// fakeMarketData serves canned closes and dividends, the same shape the
// preloaded repository-backed service presents.
type fakeMarketData struct {
	prices    map[string]map[string]float64
	dividends map[string][]models.Dividend
}

func (f *fakeMarketData) PriceOn(ticker string, date time.Time) (float64, bool) {
	price, ok := f.prices[ticker][date.Format("2006-01-02")]
	return price, ok
}

func (f *fakeMarketData) NextDividend(ticker string, date time.Time) *models.Dividend {
	var next *models.Dividend
	for i := range f.dividends[ticker] {
		d := &f.dividends[ticker][i]
		if d.RecordDate.Before(date) {
			continue
		}
		if next == nil || d.RecordDate.Before(next.RecordDate) {
			next = d
		}
	}
	return next
}

// scenarioData builds one dividend cycle for ticker 8306: record 2023-03-31,
// ex-date 2023-03-29, entry window opening 2023-03-28. The closing series
// runs flat except where a day is overridden.
func scenarioData(t *testing.T, flat float64, overrides map[string]float64) *fakeMarketData {
	t.Helper()
	cal := calendar.NewJapanCalendar()

	days, err := cal.TradingDays(date(2023, time.March, 27), date(2023, time.June, 30))
	if err != nil {
		t.Fatalf("trading days: %v", err)
	}

	prices := make(map[string]float64, len(days))
	for _, day := range days {
		key := day.Format("2006-01-02")
		if v, ok := overrides[key]; ok {
			prices[key] = v
		} else {
			prices[key] = flat
		}
	}

	return &fakeMarketData{
		prices: map[string]map[string]float64{"8306": prices},
		dividends: map[string][]models.Dividend{
			"8306": {{
				Ticker:         "8306",
				RecordDate:     date(2023, time.March, 31),
				ExDividendDate: date(2023, time.March, 29),
				Amount:         50,
			}},
		},
	}
}

func newTestEngine(data MarketData, addition config.AdditionConfig) *Engine {
	log := zap.NewNop().Sugar()
	cal := calendar.NewJapanCalendar()

	entry := config.EntryConfig{
		DaysBeforeRecord: 3,
		PositionSize:     1_000_000,
		MaxPositions:     5,
		LotSize:          100,
	}
	exit := config.ExitConfig{
		MaxHoldingDays: 20,
		StopLossPct:    0.1,
		WindowFillExit: true,
		MinHoldingDays: 2,
	}
	// Frictionless execution keeps the cash arithmetic exact
	execCfg := config.ExecutionConfig{DividendTaxRate: 0.2}

	strat := strategy.NewDividendStrategy(entry, addition, exit, cal, log)
	costs := execution.NewCostModel(execCfg)
	scheduler := execution.NewDividendScheduler(execCfg.DividendTaxRate)

	engineCfg := Config{
		StartDate:      date(2023, time.March, 27),
		EndDate:        date(2023, time.June, 30),
		InitialCapital: 2_000_000,
		Universe:       []string{"8306"},
		MaxPositions:   5,
	}
	return NewEngine(engineCfg, data, cal, strat, costs, scheduler, nil, log)
}

// Full cycle: entry three business days before the record date, addition on
// the ex-date drop, window-fill exit on recovery, and the dividend paid out
// after the position has already closed.
func TestEngineRun_DividendCaptureCycle(t *testing.T) {
	data := scenarioData(t, 1950, map[string]float64{
		"2023-03-27": 1990,
		"2023-03-28": 2000, // entry
		"2023-03-29": 1900, // ex-date drop, addition
		"2023-04-14": 2010, // recovery, window fill
	})
	addition := config.AdditionConfig{Enabled: true, AddRatio: 0.5, AddOnDrop: true}

	results, err := newTestEngine(data, addition).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if results.TotalTrades != 3 {
		t.Fatalf("trades = %d, want 3", results.TotalTrades)
	}
	trades := results.Trades
	if trades[0].Shares != 500 || trades[0].Price != 2000 {
		t.Errorf("entry trade: %+v", trades[0])
	}
	if trades[1].Shares != 200 || trades[1].Price != 1900 {
		t.Errorf("addition trade: %+v", trades[1])
	}
	if trades[2].Shares != 700 || trades[2].Action != models.TradeActionSell {
		t.Errorf("exit trade: %+v", trades[2])
	}

	if len(results.ClosedPositions) != 1 {
		t.Fatalf("closed positions = %d, want 1", len(results.ClosedPositions))
	}
	closed := results.ClosedPositions[0]
	if math.Abs(closed.AveragePrice-1971.428571) > 1e-3 {
		t.Errorf("average = %f, want 1971.43", closed.AveragePrice)
	}
	if !strings.Contains(closed.ExitReason, "window filled") {
		t.Errorf("exit reason = %q", closed.ExitReason)
	}

	// Dividend lands after the close: 700 shares * 50 * (1 - 0.2)
	if !closed.DividendPaid || math.Abs(closed.DividendReceived-28_000) > 1e-9 {
		t.Errorf("dividend on closed position: paid=%v received=%f",
			closed.DividendPaid, closed.DividendReceived)
	}
	if math.Abs(results.TotalDividend-28_000) > 1e-9 {
		t.Errorf("total dividend = %f, want 28,000", results.TotalDividend)
	}

	// 2,000,000 - 1,000,000 - 380,000 + 1,407,000 + 28,000
	if math.Abs(results.FinalValue-2_055_000) > 1e-6 {
		t.Errorf("final value = %f, want 2,055,000", results.FinalValue)
	}
	if results.WinningTrades != 1 || results.LosingTrades != 0 {
		t.Errorf("win/loss = %d/%d", results.WinningTrades, results.LosingTrades)
	}

	// Every produced signal executed in this scenario
	for _, s := range results.Signals {
		if !s.Executed {
			t.Errorf("rejected signal: %+v", s)
		}
	}
	if len(results.Signals) != 3 {
		t.Errorf("signals = %d, want 3", len(results.Signals))
	}
}

func TestEngineRun_Deterministic(t *testing.T) {
	addition := config.AdditionConfig{Enabled: true, AddRatio: 0.5, AddOnDrop: true}
	overrides := map[string]float64{
		"2023-03-27": 1990,
		"2023-03-28": 2000,
		"2023-03-29": 1900,
		"2023-04-14": 2010,
	}

	first, err := newTestEngine(scenarioData(t, 1950, overrides), addition).Run()
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := newTestEngine(scenarioData(t, 1950, overrides), addition).Run()
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(first.Trades) != len(second.Trades) {
		t.Fatalf("trade counts differ: %d vs %d", len(first.Trades), len(second.Trades))
	}
	for i := range first.Trades {
		a, b := first.Trades[i], second.Trades[i]
		if !a.Date.Equal(b.Date) || a.Ticker != b.Ticker || a.Action != b.Action ||
			a.Price != b.Price || a.Shares != b.Shares {
			t.Errorf("trade %d differs: %+v vs %+v", i, a, b)
		}
	}
	if first.FinalValue != second.FinalValue {
		t.Errorf("final values differ: %f vs %f", first.FinalValue, second.FinalValue)
	}
}

// multiTickerData mirrors the single-ticker scenario across several tickers
// so the valuation loop carries an open book of more than one position.
func multiTickerData(t *testing.T, tickers []string) *fakeMarketData {
	t.Helper()
	overrides := map[string]float64{
		"2023-03-27": 1990,
		"2023-03-28": 2000,
		"2023-03-29": 1900,
		"2023-04-14": 2010,
	}
	base := scenarioData(t, 1950, overrides)

	data := &fakeMarketData{
		prices:    map[string]map[string]float64{},
		dividends: map[string][]models.Dividend{},
	}
	for _, ticker := range tickers {
		data.prices[ticker] = base.prices["8306"]
		event := base.dividends["8306"][0]
		event.Ticker = ticker
		data.dividends[ticker] = []models.Dividend{event}
	}
	return data
}

// Replaying the same inputs over a multi-position book must reproduce the
// valuation series bit for bit, not just the trade log.
func TestEngineRun_DeterministicMultiTicker(t *testing.T) {
	tickers := []string{"9984", "7203", "8306", "6758"}
	addition := config.AdditionConfig{Enabled: true, AddRatio: 0.5, AddOnDrop: true}

	run := func() *Results {
		engine := newTestEngine(multiTickerData(t, tickers), addition)
		engine.config.Universe = tickers
		engine.config.InitialCapital = 10_000_000
		engine.portfolio = NewPortfolio(10_000_000, zap.NewNop().Sugar())

		results, err := engine.Run()
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return results
	}

	first := run()
	second := run()

	if len(first.Valuations) != len(second.Valuations) {
		t.Fatalf("valuation counts differ: %d vs %d", len(first.Valuations), len(second.Valuations))
	}
	for i := range first.Valuations {
		a, b := first.Valuations[i], second.Valuations[i]
		if a.TotalValue != b.TotalValue || a.HoldingsValue != b.HoldingsValue || a.Cash != b.Cash {
			t.Errorf("valuation %d differs: %.17g vs %.17g", i, a.TotalValue, b.TotalValue)
		}
	}
	if len(first.Trades) != len(second.Trades) {
		t.Fatalf("trade counts differ: %d vs %d", len(first.Trades), len(second.Trades))
	}
	for i := range first.Trades {
		a, b := first.Trades[i], second.Trades[i]
		if a.Ticker != b.Ticker || !a.Date.Equal(b.Date) || a.Shares != b.Shares || a.Price != b.Price {
			t.Errorf("trade %d differs: %+v vs %+v", i, a, b)
		}
	}

	// Sanity: the book really held several positions at once
	peak := 0
	for _, v := range first.Valuations {
		if v.PositionCount > peak {
			peak = v.PositionCount
		}
	}
	if peak < 2 {
		t.Fatalf("peak open positions = %d, want a multi-position book", peak)
	}
}

func TestEngineRun_AdditionDisabled(t *testing.T) {
	data := scenarioData(t, 1950, map[string]float64{
		"2023-03-27": 1990,
		"2023-03-28": 2000,
		"2023-03-29": 1700, // steep ex-date drop, still no addition
		"2023-04-14": 2010,
	})
	addition := config.AdditionConfig{Enabled: false}

	results, err := newTestEngine(data, addition).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, trade := range results.Trades {
		if trade.Action == models.TradeActionBuy && trade.Shares != 500 {
			t.Errorf("unexpected buy: %+v", trade)
		}
	}
	if results.TotalTrades != 2 {
		t.Errorf("trades = %d, want entry and exit only", results.TotalTrades)
	}
	for _, s := range results.Signals {
		if s.Type == "ADD" {
			t.Errorf("addition signal produced while disabled: %+v", s)
		}
	}
}

func TestEngineRun_StopLoss(t *testing.T) {
	data := scenarioData(t, 1790, map[string]float64{
		"2023-03-27": 1990,
		"2023-03-28": 2000, // entry at 2000, stop threshold 1800
		"2023-03-29": 1950, // no drop below pre-ex, no addition either way
	})
	addition := config.AdditionConfig{Enabled: false}

	results, err := newTestEngine(data, addition).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(results.ClosedPositions) != 1 {
		t.Fatalf("closed positions = %d, want 1", len(results.ClosedPositions))
	}
	closed := results.ClosedPositions[0]
	if !strings.Contains(closed.ExitReason, "stop loss") {
		t.Errorf("exit reason = %q, want stop loss", closed.ExitReason)
	}
	// First flat day after the ex-date trades at 1790, 10.5% under entry
	if !closed.ExitDate.Equal(date(2023, time.March, 30)) {
		t.Errorf("exit date = %s", closed.ExitDate.Format("2006-01-02"))
	}
	if closed.RealizedPnL >= 0 {
		t.Errorf("stop loss pnl = %f, want negative", closed.RealizedPnL)
	}
	if results.LosingTrades != 1 {
		t.Errorf("losing trades = %d, want 1", results.LosingTrades)
	}
}

func TestEngineRun_DividendOnOpenPosition(t *testing.T) {
	// Price never recovers and never breaches the stop: the position is
	// still open when the June payment arrives.
	data := scenarioData(t, 1900, map[string]float64{
		"2023-03-27": 1990,
		"2023-03-28": 2000,
	})
	addition := config.AdditionConfig{Enabled: false}

	engine := newTestEngine(data, addition)
	engine.strategy = strategy.NewDividendStrategy(
		config.EntryConfig{DaysBeforeRecord: 3, PositionSize: 1_000_000, MaxPositions: 5, LotSize: 100},
		addition,
		config.ExitConfig{MaxHoldingDays: 100, StopLossPct: 0.1, WindowFillExit: true, MinHoldingDays: 2},
		calendar.NewJapanCalendar(),
		zap.NewNop().Sugar(),
	)

	results, err := engine.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(results.ClosedPositions) != 0 {
		t.Fatalf("expected the position to stay open, closed %d", len(results.ClosedPositions))
	}
	// 500 shares * 50 * (1 - 0.2), credited once
	if math.Abs(results.TotalDividend-20_000) > 1e-9 {
		t.Errorf("total dividend = %f, want 20,000", results.TotalDividend)
	}

	last := results.Valuations[len(results.Valuations)-1]
	if last.PositionCount != 1 {
		t.Errorf("open positions at end = %d, want 1", last.PositionCount)
	}
	// Cash 1,000,000 + dividend, stock 500 @ 1900
	if math.Abs(last.TotalValue-(1_020_000+950_000)) > 1e-6 {
		t.Errorf("final value = %f, want 1,970,000", last.TotalValue)
	}
}

func TestEngineRun_PaymentBeyondRangeNeverPays(t *testing.T) {
	data := scenarioData(t, 1950, map[string]float64{
		"2023-03-27": 1990,
		"2023-03-28": 2000,
		"2023-03-29": 1900,
		"2023-04-14": 2010,
	})
	addition := config.AdditionConfig{Enabled: true, AddRatio: 0.5, AddOnDrop: true}

	// The run ends in April; the June payment date is never reached.
	engine := newTestEngine(data, addition)
	engine.config.EndDate = date(2023, time.April, 28)

	results, err := engine.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if results.TotalDividend != 0 {
		t.Errorf("total dividend = %f, want 0 when the pay date is out of range", results.TotalDividend)
	}
	if len(results.ClosedPositions) != 1 {
		t.Fatalf("closed positions = %d, want 1", len(results.ClosedPositions))
	}
	if results.ClosedPositions[0].DividendPaid {
		t.Error("dividend marked paid without a payment day in range")
	}
	// Proceeds of the April exit are the only cash movement
	if math.Abs(results.FinalValue-2_027_000) > 1e-6 {
		t.Errorf("final value = %f, want 2,027,000", results.FinalValue)
	}
}

func TestEngineRun_MissingEntryPriceLogged(t *testing.T) {
	data := scenarioData(t, 1950, map[string]float64{
		"2023-03-28": 2000,
		"2023-03-29": 1900,
		"2023-04-14": 2010,
	})
	// No close for the entry candidate on 2023-03-27
	delete(data.prices["8306"], "2023-03-27")

	core, logs := observer.New(zap.WarnLevel)
	engine := newTestEngine(data, config.AdditionConfig{Enabled: false})
	engine.log = zap.New(core).Sugar()

	if _, err := engine.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	entries := logs.FilterMessage("skipping entry check").All()
	if len(entries) == 0 {
		t.Fatal("missing entry price was not logged")
	}
	msg := entries[0].ContextMap()["error"].(string)
	if !strings.Contains(msg, "8306") || !strings.Contains(msg, "2023-03-27") {
		t.Errorf("gap not attributable to ticker and date: %q", msg)
	}
}

func TestEngineRun_InvertedRangeFails(t *testing.T) {
	data := scenarioData(t, 1950, nil)
	engine := newTestEngine(data, config.AdditionConfig{Enabled: false})
	engine.config.StartDate = date(2023, time.June, 30)
	engine.config.EndDate = date(2023, time.March, 27)

	if _, err := engine.Run(); err == nil {
		t.Error("inverted date range must fail the run")
	}
}
