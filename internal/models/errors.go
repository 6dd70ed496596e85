package models

import (
	"fmt"
	"time"
)

// DataGapError reports a missing price or dividend on a date the simulation
// needed one. Non-fatal: the ticker is skipped for that day.
type DataGapError struct {
	Ticker string
	Date   time.Time
	What   string
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("data gap: no %s for %s on %s", e.What, e.Ticker, e.Date.Format("2006-01-02"))
}

// InsufficientCashError reports a signal that could not be funded.
// Non-fatal: the signal is dropped and logged.
type InsufficientCashError struct {
	Ticker    string
	Date      time.Time
	Required  float64
	Available float64
}

func (e *InsufficientCashError) Error() string {
	return fmt.Sprintf("insufficient cash for %s on %s: required=%.0f available=%.0f",
		e.Ticker, e.Date.Format("2006-01-02"), e.Required, e.Available)
}

// InvalidConfigurationError reports a missing or contradictory parameter.
// Fatal at startup: the run aborts before any simulation step.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// CalendarComputationError reports malformed date arithmetic. Fatal: the run
// aborts.
type CalendarComputationError struct {
	Reason string
}

func (e *CalendarComputationError) Error() string {
	return fmt.Sprintf("calendar computation failed: %s", e.Reason)
}
