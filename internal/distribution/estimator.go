// Package distribution turns forward-return samples into probability and
// risk estimates.
package distribution

import (
	"analog-lab/internal/domain"
	"analog-lab/internal/stats"
)

// DefaultBreachLevel is the drawdown treated as a breach, -5%.
const DefaultBreachLevel = -0.05

// Params controls the estimator.
type Params struct {
	Horizon       int
	RiskFreeDaily float64
	BreachLevel   float64 // negative; zero means DefaultBreachLevel
}

func (p Params) breachLevel() float64 {
	if p.BreachLevel == 0 {
		return DefaultBreachLevel
	}
	return p.BreachLevel
}

// Estimate computes distribution statistics from raw returns.
// Up and down counts are strict: an exact zero is neither.
// With no returns the result is flagged Insufficient and every field is zero.
func Estimate(returns []float64, params Params) domain.DistributionStats {
	n := len(returns)
	if n == 0 {
		return domain.DistributionStats{Horizon: params.Horizon, Insufficient: true}
	}

	up, down := 0, 0
	for _, r := range returns {
		switch {
		case r > 0:
			up++
		case r < 0:
			down++
		}
	}

	sorted := stats.Sorted(returns)
	mean := stats.Mean(returns)
	std := stats.Stddev(returns, mean)
	downside := stats.DownsideStddev(returns, mean)
	var95 := stats.Percentile(sorted, 0.05)

	return domain.DistributionStats{
		Horizon:    params.Horizon,
		SampleSize: n,

		UpProbability:   float64(up) / float64(n),
		DownProbability: float64(down) / float64(n),

		MeanReturn:   mean,
		MedianReturn: stats.Percentile(sorted, 0.50),
		Std:          std,
		Percentile25: stats.Percentile(sorted, 0.25),
		Percentile75: stats.Percentile(sorted, 0.75),
		Skewness:     stats.Skewness(returns, mean),
		Kurtosis:     stats.Kurtosis(returns, mean),

		SharpeRatio:  stats.Ratio(mean-params.RiskFreeDaily, std),
		SortinoRatio: stats.Ratio(mean-params.RiskFreeDaily, downside),
		VaR95:        var95,
		CVaR95:       stats.TailMean(returns, var95),
	}
}

// EstimateHorizon computes statistics for one horizon's samples and attaches
// the drawdown analysis over the same matches.
func EstimateHorizon(series *domain.PriceSeries, samples []domain.ForwardReturnSample, params Params) domain.DistributionStats {
	result := Estimate(domain.SampleReturns(samples), params)
	if result.Insufficient {
		return result
	}

	dd := AnalyzeDrawdowns(series, samples, params.Horizon, params.breachLevel())
	result.MaxDrawdown = dd.Max
	result.AvgDrawdown = dd.Mean
	result.DrawdownBreachProbability = dd.BreachProbability
	result.CalmarRatio = Calmar(result.MeanReturn, dd.Max, params.Horizon)

	return result
}

// Calmar annualizes the mean horizon return and divides by the worst
// drawdown. Returns 0 when there was no drawdown.
func Calmar(meanReturn, maxDrawdown float64, horizon int) float64 {
	if maxDrawdown >= 0 || horizon <= 0 {
		return 0
	}
	annualized := meanReturn * stats.TradingDaysPerYear / float64(horizon)
	return annualized / -maxDrawdown
}
