package backtest

import (
	"math"
)

const (
	tradingDaysPerYear = 252
	riskFreeRate       = 0.01
)

func (e *Engine) calculateResults() *Results {
	history := e.portfolio.History()
	closed := e.portfolio.Positions().ClosedPositions()
	trades := e.portfolio.Positions().Trades()

	results := &Results{
		Trades:          trades,
		Valuations:      history,
		ClosedPositions: closed,
		Signals:         e.signals,
		TotalTrades:     len(trades),
		WinningTrades:   e.portfolio.winningTrades,
		LosingTrades:    e.portfolio.losingTrades,
		TotalCommission: e.portfolio.totalCommission,
		TotalDividend:   e.portfolio.totalDividend,
		FinalValue:      e.config.InitialCapital,
	}

	if len(history) == 0 {
		return results
	}

	final := history[len(history)-1].TotalValue
	results.FinalValue = final
	results.TotalReturn = (final - e.config.InitialCapital) / e.config.InitialCapital

	if closedCount := results.WinningTrades + results.LosingTrades; closedCount > 0 {
		results.WinRate = float64(results.WinningTrades) / float64(closedCount)
	}

	// Profit factor over closed positions
	profits, losses := 0.0, 0.0
	for _, p := range closed {
		if p.RealizedPnL > 0 {
			profits += p.RealizedPnL
		} else {
			losses += math.Abs(p.RealizedPnL)
		}
	}
	if losses > 0 {
		results.ProfitFactor = profits / losses
	} else if profits > 0 {
		results.ProfitFactor = math.Inf(1)
	}

	// Daily return statistics; flat days carry no information
	var returns []float64
	for _, v := range history {
		if v.DailyReturn != 0 {
			returns = append(returns, v.DailyReturn)
		}
	}
	if len(returns) == 0 {
		return results
	}

	avgReturn := 0.0
	for _, r := range returns {
		avgReturn += r
	}
	avgReturn /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += math.Pow(r-avgReturn, 2)
	}
	if len(returns) > 1 {
		variance /= float64(len(returns) - 1)
	}
	stdDev := math.Sqrt(variance)

	results.AnnualizedReturn = math.Pow(1+avgReturn, tradingDaysPerYear) - 1
	results.AnnualizedVolatility = stdDev * math.Sqrt(tradingDaysPerYear)
	if results.AnnualizedVolatility > 0 {
		results.SharpeRatio = (results.AnnualizedReturn - riskFreeRate) / results.AnnualizedVolatility
	}

	// Max drawdown against the running peak
	maxDrawdown := 0.0
	peak := e.config.InitialCapital
	for _, v := range history {
		if v.TotalValue > peak {
			peak = v.TotalValue
		}
		drawdown := (peak - v.TotalValue) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	results.MaxDrawdown = maxDrawdown

	return results
}
