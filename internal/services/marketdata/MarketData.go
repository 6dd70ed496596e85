package marketdata

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"DividendCaptureBot/internal/models"
	"DividendCaptureBot/internal/repositories"
)

// Service answers the engine's price and dividend lookups. Everything is
// pre-resolved from the repositories into memory before the simulation
// starts, so no lookup inside the daily loop touches the database.
type Service struct {
	priceRepo    *repositories.PriceRepository
	dividendRepo *repositories.DividendRepository
	log          *zap.SugaredLogger

	prices    map[string]map[string]float64 // ticker -> yyyy-mm-dd -> close
	dividends map[string][]models.Dividend  // ticker -> events by record date
	loaded    bool
}

func NewService(priceRepo *repositories.PriceRepository, dividendRepo *repositories.DividendRepository, log *zap.SugaredLogger) *Service {
	return &Service{
		priceRepo:    priceRepo,
		dividendRepo: dividendRepo,
		log:          log,
		prices:       make(map[string]map[string]float64),
		dividends:    make(map[string][]models.Dividend),
	}
}

// Preload pulls every price and dividend for the universe into memory and
// validates coverage. A ticker with no price at all in the window is a fatal
// data error; the run must abort before the first simulation step.
func (s *Service) Preload(tickers []string, start, end time.Time) error {
	for _, ticker := range tickers {
		history, err := s.priceRepo.GetPriceHistory(ticker, start, end)
		if err != nil {
			return fmt.Errorf("loading prices for %s: %w", ticker, err)
		}
		if len(history) == 0 {
			return fmt.Errorf("data validation failed: no prices for %s between %s and %s",
				ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))
		}

		byDay := make(map[string]float64, len(history))
		for _, p := range history {
			byDay[dayKey(p.Date)] = p.Close
		}
		s.prices[ticker] = byDay

		events, err := s.dividendRepo.FindByTicker(ticker)
		if err != nil {
			return fmt.Errorf("loading dividends for %s: %w", ticker, err)
		}
		s.dividends[ticker] = events

		s.log.Infow("market data loaded",
			"ticker", ticker, "prices", len(history), "dividends", len(events))
	}

	s.loaded = true
	return nil
}

// PriceOn returns the closing price for a ticker on a date, if one exists.
func (s *Service) PriceOn(ticker string, date time.Time) (float64, bool) {
	byDay, ok := s.prices[ticker]
	if !ok {
		return 0, false
	}
	price, ok := byDay[dayKey(date)]
	return price, ok
}

// NextDividend returns the earliest dividend event for a ticker whose record
// date is on or after the given date, or nil.
func (s *Service) NextDividend(ticker string, date time.Time) *models.Dividend {
	for i := range s.dividends[ticker] {
		d := s.dividends[ticker][i]
		if !d.RecordDate.Before(truncateDay(date)) {
			return &d
		}
	}
	return nil
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
