// Package metrics turns backtest output into performance reports and
// cross-run strategy aggregates.
package metrics

import (
	"math"

	"analog-lab/internal/domain"
	"analog-lab/internal/stats"
)

// Evaluate summarizes an equity curve, its per-bar returns and the closed
// trades into a PerformanceReport.
//
// Equity-curve metrics:
//   - total_return = final/initial - 1
//   - annualized_return = (1+total_return)^(252/n) - 1, n = number of bars
//   - sharpe, sortino = (mean(returns) - rf) / std * sqrt(252)
//   - max_drawdown = min((equity - running_max) / running_max)
//   - calmar = annualized_return / |max_drawdown|, 0 when there is no drawdown
//
// Trade metrics: win rate, average win/loss, longest losing streak and
// profit_factor = sum(wins) / |sum(losses)|, nil when nothing lost.
func Evaluate(equity, returns []float64, trades []domain.Trade, initialCapital, riskFreeDaily float64) domain.PerformanceReport {
	report := domain.PerformanceReport{
		Bars:        len(equity),
		FinalEquity: initialCapital,
	}

	if len(equity) > 0 && initialCapital > 0 {
		report.FinalEquity = equity[len(equity)-1]
		report.TotalReturn = report.FinalEquity/initialCapital - 1
		report.AnnualizedReturn = annualize(report.TotalReturn, len(returns))
	}

	mean := stats.Mean(returns)
	excess := mean - riskFreeDaily
	annualFactor := math.Sqrt(stats.TradingDaysPerYear)
	report.SharpeRatio = stats.Ratio(excess, stats.Stddev(returns, mean)) * annualFactor
	report.SortinoRatio = stats.Ratio(excess, stats.DownsideStddev(returns, mean)) * annualFactor

	report.MaxDrawdown = MaxDrawdown(equity)
	if report.MaxDrawdown < 0 {
		report.CalmarRatio = report.AnnualizedReturn / math.Abs(report.MaxDrawdown)
	}

	applyTradeMetrics(&report, trades)
	return report
}

// annualize compounds a total return over n daily bars to a yearly rate.
// A wiped-out account annualizes to -1.
func annualize(total float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	growth := 1 + total
	if growth <= 0 {
		return -1
	}
	return math.Pow(growth, stats.TradingDaysPerYear/float64(n)) - 1
}

// MaxDrawdown returns the worst peak-to-trough decline of the curve as a
// fraction of the running peak. The result is <= 0.
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}

	peak := equity[0]
	maxDrawdown := 0.0
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak <= 0 {
			continue
		}
		if dd := (e - peak) / peak; dd < maxDrawdown {
			maxDrawdown = dd
		}
	}
	return maxDrawdown
}

// applyTradeMetrics fills the trade-ledger section of the report.
// Trades must be in chronological order.
func applyTradeMetrics(report *domain.PerformanceReport, trades []domain.Trade) {
	report.TotalTrades = len(trades)
	if len(trades) == 0 {
		return
	}

	var grossWin, grossLoss float64
	held := 0
	for i := range trades {
		pnl := trades[i].PnL
		held += trades[i].HoldingBars()
		switch {
		case trades[i].IsWin():
			report.WinningTrades++
			grossWin += pnl
		case pnl < 0:
			report.LosingTrades++
			grossLoss += pnl
		}
	}

	report.WinRate = float64(report.WinningTrades) / float64(report.TotalTrades)
	report.AvgHoldingBars = float64(held) / float64(report.TotalTrades)
	if report.WinningTrades > 0 {
		report.AvgWin = grossWin / float64(report.WinningTrades)
	}
	if report.LosingTrades > 0 {
		report.AvgLoss = grossLoss / float64(report.LosingTrades)
		pf := grossWin / math.Abs(grossLoss)
		report.ProfitFactor = &pf
	}
	report.MaxConsecutiveLosses = maxConsecutiveLosses(trades)
}

// maxConsecutiveLosses finds the longest streak of pnl <= 0.
func maxConsecutiveLosses(trades []domain.Trade) int {
	maxStreak := 0
	currentStreak := 0

	for i := range trades {
		if !trades[i].IsWin() {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}
