package report

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"DividendCaptureBot/internal/models"
	"DividendCaptureBot/internal/operations/backtest"
)

func sampleResults() *backtest.Results {
	day := time.Date(2023, time.March, 28, 0, 0, 0, 0, time.UTC)
	return &backtest.Results{
		TotalTrades:   2,
		WinningTrades: 1,
		WinRate:       1.0,
		ProfitFactor:  math.Inf(1), // no losing trades
		TotalReturn:   0.0275,
		FinalValue:    2_055_000,
		Trades: []models.Trade{
			{Ticker: "8306", Date: day, Action: "BUY", Price: 2000, Shares: 500, Amount: 1_000_550, Commission: 550, Reason: "entry"},
		},
		Valuations: []models.Valuation{
			{Date: day, Cash: 999_450, HoldingsValue: 1_000_000, TotalValue: 1_999_450, PositionCount: 1},
		},
		ClosedPositions: []*models.Position{
			{Ticker: "8306", EntryDate: day, EntryPrice: 2000, AveragePrice: 2000, ExitDate: day.AddDate(0, 0, 17), ExitPrice: 2010, ExitReason: "window filled", RealizedPnL: 3850},
		},
		Signals: []backtest.SignalRecord{
			{Date: day, Ticker: "8306", Type: "ENTRY", Price: 2000, Shares: 500, Executed: true, Reason: "entry"},
		},
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, zap.NewNop().Sugar())

	if err := w.Write(sampleResults()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading results dir: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 report files, got %d", len(entries))
	}

	found := map[string]bool{}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
		for _, prefix := range []string{"metrics_", "trades_", "portfolio_", "positions_", "signals_"} {
			if strings.HasPrefix(e.Name(), prefix) {
				found[prefix] = true
			}
		}
	}
	for _, prefix := range []string{"metrics_", "trades_", "portfolio_", "positions_", "signals_"} {
		if !found[prefix] {
			t.Errorf("missing %s file", prefix)
		}
	}
}

func TestWrite_MetricsSurviveInfiniteProfitFactor(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, zap.NewNop().Sugar())

	if err := w.Write(sampleResults()); err != nil {
		t.Fatalf("Write with +Inf profit factor: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	var metricsPath string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "metrics_") {
			metricsPath = filepath.Join(dir, e.Name())
		}
	}
	if metricsPath == "" {
		t.Fatal("metrics file not written")
	}

	b, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("reading metrics: %v", err)
	}
	var metrics map[string]interface{}
	if err := json.Unmarshal(b, &metrics); err != nil {
		t.Fatalf("metrics are not valid JSON: %v", err)
	}
	if metrics["profit_factor"] != nil {
		t.Errorf("profit_factor = %v, want null for an all-winning run", metrics["profit_factor"])
	}
	if metrics["final_value"].(float64) != 2_055_000 {
		t.Errorf("final_value = %v", metrics["final_value"])
	}
}

func TestWrite_CreatesResultsDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "results")
	w := NewWriter(dir, zap.NewNop().Sugar())

	if err := w.Write(sampleResults()); err != nil {
		t.Fatalf("Write into missing dir: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("results dir not created: %v", err)
	}
}
