package distribution

import (
	"math"

	"analog-lab/internal/domain"
)

// DrawdownSummary aggregates per-match drawdowns. All drawdowns are <= 0.
type DrawdownSummary struct {
	PerMatch          []float64
	Max               float64 // most negative
	Mean              float64
	BreachProbability float64
}

// MatchDrawdown walks horizon bars after the match, tracking the running max
// close (seeded with the match close), and returns the worst
// (close - running_max) / match_close. Returns ok=false when fewer than
// horizon bars follow the match.
func MatchDrawdown(series *domain.PriceSeries, matchIndex, horizon int) (float64, bool) {
	if matchIndex < 0 || matchIndex+horizon >= series.Len() {
		return 0, false
	}

	matchClose := series.Bars[matchIndex].Close
	runningMax := matchClose
	worst := 0.0

	for k := 1; k <= horizon; k++ {
		price := series.Bars[matchIndex+k].Close
		runningMax = math.Max(runningMax, price)
		dd := (price - runningMax) / matchClose
		if dd < worst {
			worst = dd
		}
	}
	return worst, true
}

// AnalyzeDrawdowns computes drawdowns for every sample's match and aggregates
// them. breachLevel is negative; a match breaches when its drawdown is below it.
func AnalyzeDrawdowns(series *domain.PriceSeries, samples []domain.ForwardReturnSample, horizon int, breachLevel float64) DrawdownSummary {
	var summary DrawdownSummary
	breaches := 0
	sum := 0.0

	for _, s := range samples {
		dd, ok := MatchDrawdown(series, s.MatchIndex, horizon)
		if !ok {
			continue
		}
		summary.PerMatch = append(summary.PerMatch, dd)
		sum += dd
		if dd < summary.Max {
			summary.Max = dd
		}
		if dd < breachLevel {
			breaches++
		}
	}

	if n := len(summary.PerMatch); n > 0 {
		summary.Mean = sum / float64(n)
		summary.BreachProbability = float64(breaches) / float64(n)
	}
	return summary
}
