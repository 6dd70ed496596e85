package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"DividendCaptureBot/internal/operations/backtest"
)

// Writer dumps a finished run into the results directory: metrics as JSON,
// trades, valuations, positions and the signal log as CSV. Files are written
// to a temp name and renamed into place so a crash never leaves a partial
// report behind.
type Writer struct {
	dir string
	log *zap.SugaredLogger
}

func NewWriter(dir string, log *zap.SugaredLogger) *Writer {
	return &Writer{dir: dir, log: log}
}

// Write saves every artifact of the run, stamped with the current time.
func (w *Writer) Write(results *backtest.Results) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("creating results dir: %w", err)
	}

	stamp := time.Now().Format("20060102_150405")

	if err := w.writeMetrics(results, stamp); err != nil {
		return err
	}
	if err := w.writeTrades(results, stamp); err != nil {
		return err
	}
	if err := w.writeValuations(results, stamp); err != nil {
		return err
	}
	if err := w.writePositions(results, stamp); err != nil {
		return err
	}
	if err := w.writeSignals(results, stamp); err != nil {
		return err
	}

	w.log.Infow("reports written", "dir", w.dir, "stamp", stamp)
	return nil
}

func (w *Writer) writeMetrics(results *backtest.Results, stamp string) error {
	// JSON has no +Inf; a run without losing trades reports null
	var profitFactor interface{} = results.ProfitFactor
	if math.IsInf(results.ProfitFactor, 0) {
		profitFactor = nil
	}

	metrics := map[string]interface{}{
		"total_return":          results.TotalReturn,
		"annualized_return":     results.AnnualizedReturn,
		"annualized_volatility": results.AnnualizedVolatility,
		"sharpe_ratio":          results.SharpeRatio,
		"max_drawdown":          results.MaxDrawdown,
		"win_rate":              results.WinRate,
		"profit_factor":         profitFactor,
		"total_trades":          results.TotalTrades,
		"winning_trades":        results.WinningTrades,
		"losing_trades":         results.LosingTrades,
		"total_commission":      results.TotalCommission,
		"total_dividend":        results.TotalDividend,
		"final_value":           results.FinalValue,
	}

	b, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	return w.atomicWrite(fmt.Sprintf("metrics_%s.json", stamp), b)
}

func (w *Writer) writeTrades(results *backtest.Results, stamp string) error {
	rows := [][]string{{"date", "ticker", "action", "price", "shares", "commission", "amount", "reason"}}
	for _, t := range results.Trades {
		rows = append(rows, []string{
			t.Date.Format("2006-01-02"),
			t.Ticker,
			t.Action,
			formatFloat(t.Price),
			strconv.Itoa(t.Shares),
			formatFloat(t.Commission),
			formatFloat(t.Amount),
			t.Reason,
		})
	}
	return w.writeCSV(fmt.Sprintf("trades_%s.csv", stamp), rows)
}

func (w *Writer) writeValuations(results *backtest.Results, stamp string) error {
	rows := [][]string{{"date", "cash", "holdings_value", "total_value", "daily_return", "total_return", "position_count"}}
	for _, v := range results.Valuations {
		rows = append(rows, []string{
			v.Date.Format("2006-01-02"),
			formatFloat(v.Cash),
			formatFloat(v.HoldingsValue),
			formatFloat(v.TotalValue),
			formatFloat(v.DailyReturn),
			formatFloat(v.TotalReturn),
			strconv.Itoa(v.PositionCount),
		})
	}
	return w.writeCSV(fmt.Sprintf("portfolio_%s.csv", stamp), rows)
}

func (w *Writer) writePositions(results *backtest.Results, stamp string) error {
	rows := [][]string{{"ticker", "entry_date", "entry_price", "average_price", "exit_date", "exit_price", "exit_reason", "realized_pnl", "dividend_received", "total_commission"}}
	for _, p := range results.ClosedPositions {
		rows = append(rows, []string{
			p.Ticker,
			p.EntryDate.Format("2006-01-02"),
			formatFloat(p.EntryPrice),
			formatFloat(p.AveragePrice),
			p.ExitDate.Format("2006-01-02"),
			formatFloat(p.ExitPrice),
			p.ExitReason,
			formatFloat(p.RealizedPnL),
			formatFloat(p.DividendReceived),
			formatFloat(p.TotalCommission),
		})
	}
	return w.writeCSV(fmt.Sprintf("positions_%s.csv", stamp), rows)
}

func (w *Writer) writeSignals(results *backtest.Results, stamp string) error {
	rows := [][]string{{"date", "ticker", "type", "price", "shares", "executed", "reason", "reject_reason"}}
	for _, s := range results.Signals {
		rows = append(rows, []string{
			s.Date.Format("2006-01-02"),
			s.Ticker,
			s.Type,
			formatFloat(s.Price),
			strconv.Itoa(s.Shares),
			strconv.FormatBool(s.Executed),
			s.Reason,
			s.RejectReason,
		})
	}
	return w.writeCSV(fmt.Sprintf("signals_%s.csv", stamp), rows)
}

func (w *Writer) writeCSV(name string, rows [][]string) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	cw.Flush()
	return w.atomicWrite(name, buf.Bytes())
}

// atomicWrite writes to a temp file and renames it into place.
func (w *Writer) atomicWrite(name string, data []byte) error {
	final := filepath.Join(w.dir, name)
	tmp := final + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	return os.Rename(tmp, final)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
