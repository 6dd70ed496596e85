package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"DividendCaptureBot/internal/models"
	"DividendCaptureBot/internal/repositories"
)

// MarketDataHandler loads daily price and dividend CSV files into the
// database before a run. Retrieval from an upstream vendor is out of scope;
// whatever produced the CSVs owns retries and caching.
//
// Price rows: ticker,date,open,high,low,close,volume
// Dividend rows: ticker,record_date,ex_dividend_date,amount
// Dates are yyyy-mm-dd. The first row is a header and is skipped.
type MarketDataHandler struct {
	priceRepo    *repositories.PriceRepository
	dividendRepo *repositories.DividendRepository
	log          *zap.SugaredLogger
}

func NewMarketDataHandler(priceRepo *repositories.PriceRepository, dividendRepo *repositories.DividendRepository, log *zap.SugaredLogger) *MarketDataHandler {
	return &MarketDataHandler{
		priceRepo:    priceRepo,
		dividendRepo: dividendRepo,
		log:          log,
	}
}

// LoadPricesCSV ingests a daily-close CSV into the prices table.
func (h *MarketDataHandler) LoadPricesCSV(path string) error {
	rows, err := readCSV(path)
	if err != nil {
		return fmt.Errorf("reading prices csv: %w", err)
	}

	prices := make([]models.Price, 0, len(rows))
	for i, row := range rows {
		if len(row) < 7 {
			return fmt.Errorf("prices csv row %d: expected 7 columns, got %d", i+2, len(row))
		}
		date, err := time.Parse("2006-01-02", row[1])
		if err != nil {
			return fmt.Errorf("prices csv row %d: %w", i+2, err)
		}
		open, err1 := strconv.ParseFloat(row[2], 64)
		high, err2 := strconv.ParseFloat(row[3], 64)
		low, err3 := strconv.ParseFloat(row[4], 64)
		clos, err4 := strconv.ParseFloat(row[5], 64)
		volume, err5 := strconv.ParseFloat(row[6], 64)
		for _, err := range []error{err1, err2, err3, err4, err5} {
			if err != nil {
				return fmt.Errorf("prices csv row %d: %w", i+2, err)
			}
		}
		prices = append(prices, models.Price{
			Ticker: row[0],
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  clos,
			Volume: volume,
		})
	}

	if err := h.priceRepo.CreateBatch(prices); err != nil {
		return fmt.Errorf("storing prices: %w", err)
	}
	h.log.Infow("prices loaded", "file", path, "rows", len(prices))
	return nil
}

// LoadDividendsCSV ingests a dividend calendar CSV into the dividends table.
func (h *MarketDataHandler) LoadDividendsCSV(path string) error {
	rows, err := readCSV(path)
	if err != nil {
		return fmt.Errorf("reading dividends csv: %w", err)
	}

	dividends := make([]models.Dividend, 0, len(rows))
	for i, row := range rows {
		if len(row) < 4 {
			return fmt.Errorf("dividends csv row %d: expected 4 columns, got %d", i+2, len(row))
		}
		recordDate, err := time.Parse("2006-01-02", row[1])
		if err != nil {
			return fmt.Errorf("dividends csv row %d: %w", i+2, err)
		}
		exDate, err := time.Parse("2006-01-02", row[2])
		if err != nil {
			return fmt.Errorf("dividends csv row %d: %w", i+2, err)
		}
		amount, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return fmt.Errorf("dividends csv row %d: %w", i+2, err)
		}
		dividends = append(dividends, models.Dividend{
			Ticker:         row[0],
			RecordDate:     recordDate,
			ExDividendDate: exDate,
			Amount:         amount,
		})
	}

	if err := h.dividendRepo.CreateBatch(dividends); err != nil {
		return fmt.Errorf("storing dividends: %w", err)
	}
	h.log.Infow("dividends loaded", "file", path, "rows", len(dividends))
	return nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	return reader.ReadAll()
}
