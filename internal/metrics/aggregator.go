package metrics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"analog-lab/internal/domain"
	"analog-lab/internal/stats"
	"analog-lab/internal/storage"
)

// ErrNoRuns is returned when a strategy has no stored backtest runs.
var ErrNoRuns = errors.New("no backtest runs available for aggregation")

// Aggregator computes strategy aggregates from stored backtest runs.
type Aggregator struct {
	runStore storage.BacktestRunStore
	aggStore storage.StrategyAggregateStore
	now      func() time.Time
}

// NewAggregator creates a new metrics aggregator. aggStore may be nil when
// aggregates are only computed, never persisted.
func NewAggregator(runStore storage.BacktestRunStore, aggStore storage.StrategyAggregateStore) *Aggregator {
	return &Aggregator{
		runStore: runStore,
		aggStore: aggStore,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ComputeAggregate loads every run of a strategy and summarizes it.
// Returns ErrNoRuns if the strategy has none.
func (a *Aggregator) ComputeAggregate(ctx context.Context, strategyID string) (*domain.StrategyAggregate, error) {
	runs, err := a.runStore.GetByStrategy(ctx, strategyID)
	if err != nil {
		return nil, fmt.Errorf("load runs for %s: %w", strategyID, err)
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}

	agg := Aggregate(runs)
	agg.StrategyID = strategyID
	agg.ComputedAt = a.now()
	return agg, nil
}

// ComputeAndStore computes and persists an aggregate.
// Returns storage.ErrDuplicateKey if the same version already exists.
func (a *Aggregator) ComputeAndStore(ctx context.Context, strategyID string) (*domain.StrategyAggregate, error) {
	if a.aggStore == nil {
		return nil, fmt.Errorf("aggregate store not configured")
	}

	agg, err := a.ComputeAggregate(ctx, strategyID)
	if err != nil {
		return nil, err
	}

	if err := a.aggStore.Insert(ctx, agg); err != nil {
		return nil, err
	}

	return agg, nil
}

// Aggregate summarizes run reports. StrategyID and ComputedAt are left to
// the caller. runs must not be empty.
func Aggregate(runs []*domain.BacktestResult) *domain.StrategyAggregate {
	agg := &domain.StrategyAggregate{Runs: len(runs)}

	symbols := make(map[string]struct{}, len(runs))
	totals := make([]float64, 0, len(runs))
	sharpes := make([]float64, 0, len(runs))
	var winningTrades, positiveRuns int

	for _, r := range runs {
		symbols[r.Symbol] = struct{}{}
		totals = append(totals, r.Report.TotalReturn)
		sharpes = append(sharpes, r.Report.SharpeRatio)

		agg.TotalTrades += r.Report.TotalTrades
		winningTrades += r.Report.WinningTrades
		if r.Report.TotalReturn > 0 {
			positiveRuns++
		}
		agg.WorstDrawdown = math.Min(agg.WorstDrawdown, r.Report.MaxDrawdown)
	}

	agg.Symbols = len(symbols)

	sorted := stats.Sorted(totals)
	agg.ReturnMean = stats.Mean(totals)
	agg.ReturnMedian = stats.Percentile(sorted, 0.50)
	agg.ReturnP25 = stats.Percentile(sorted, 0.25)
	agg.ReturnP75 = stats.Percentile(sorted, 0.75)
	agg.ReturnStddev = stats.Stddev(totals, agg.ReturnMean)
	agg.ReturnMin = sorted[0]
	agg.ReturnMax = sorted[len(sorted)-1]

	agg.MeanSharpe = stats.Mean(sharpes)
	agg.RunWinRate = float64(positiveRuns) / float64(len(runs))
	if agg.TotalTrades > 0 {
		agg.TradeWinRate = float64(winningTrades) / float64(agg.TotalTrades)
	}

	return agg
}
