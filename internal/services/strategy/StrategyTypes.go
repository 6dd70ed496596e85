package strategy

import (
	"time"

	"DividendCaptureBot/config"
)

// SignalType enumerates the three decisions the strategy can make.
type SignalType int

const (
	SignalEntry SignalType = iota
	SignalAdd
	SignalExit
)

func (t SignalType) String() string {
	switch t {
	case SignalEntry:
		return "ENTRY"
	case SignalAdd:
		return "ADD"
	case SignalExit:
		return "EXIT"
	}
	return "UNKNOWN"
}

// ExitReason enumerates why an exit fired, in evaluation priority order.
type ExitReason int

const (
	ExitWindowFilled ExitReason = iota
	ExitMaxHoldingPeriod
	ExitStopLoss
)

func (r ExitReason) String() string {
	switch r {
	case ExitWindowFilled:
		return "WINDOW_FILLED"
	case ExitMaxHoldingPeriod:
		return "MAX_HOLDING_PERIOD"
	case ExitStopLoss:
		return "STOP_LOSS"
	}
	return "UNKNOWN"
}

// Signal is one trading decision for one ticker on one day. Signals are
// produced and consumed within a single simulation step and never mutated.
type Signal struct {
	Ticker         string
	Type           SignalType
	Date           time.Time
	ReferencePrice float64
	Shares         int
	Reason         string

	// Entry metadata: the dividend event the position is opened against.
	RecordDate     time.Time
	ExDividendDate time.Time
	DividendAmount float64

	// Addition metadata.
	PreExPrice     float64
	DropPercentage float64

	// Exit metadata.
	ExitReason  ExitReason
	HoldingDays int
	PnLRate     float64
}

// newAdditionSignal is the only constructor for ADD signals. The enabled and
// add-on-drop flags are preconditions here rather than at the call sites, so
// no caller can produce an addition while the feature is switched off.
func newAdditionSignal(cfg config.AdditionConfig, ticker string, date time.Time, price float64, shares int, preExPrice float64, reason string) *Signal {
	if !cfg.Enabled || !cfg.AddOnDrop {
		return nil
	}
	if shares <= 0 {
		return nil
	}
	return &Signal{
		Ticker:         ticker,
		Type:           SignalAdd,
		Date:           date,
		ReferencePrice: price,
		Shares:         shares,
		Reason:         reason,
		PreExPrice:     preExPrice,
		DropPercentage: (preExPrice - price) / preExPrice * 100,
	}
}
