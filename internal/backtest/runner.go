package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"analog-lab/internal/domain"
	"analog-lab/internal/idhash"
	"analog-lab/internal/storage"
)

// Runner executes backtests for strategies and persists the results.
type Runner struct {
	engine     *Engine
	runStore   storage.BacktestRunStore
	tradeStore storage.TradeStore
	now        func() time.Time
	newRunID   func() string
}

// RunnerOptions contains configuration for creating a Runner.
// Stores are optional; without them results are returned but not persisted.
type RunnerOptions struct {
	Config     domain.BacktestConfig
	RunStore   storage.BacktestRunStore
	TradeStore storage.TradeStore

	// Now and NewRunID default to the wall clock and random UUIDs.
	Now      func() time.Time
	NewRunID func() string
}

// NewRunner creates a backtest runner. Returns domain.ErrInvalidParameter for a bad config.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	engine, err := NewEngine(opts.Config)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		engine:     engine,
		runStore:   opts.RunStore,
		tradeStore: opts.TradeStore,
		now:        opts.Now,
		newRunID:   opts.NewRunID,
	}
	if r.now == nil {
		r.now = func() time.Time { return time.Now().UTC() }
	}
	if r.newRunID == nil {
		r.newRunID = func() string { return uuid.NewString() }
	}
	return r, nil
}

// Run executes a backtest of strat over series.
// Steps:
//  1. Generate signals via strat.Signals
//  2. Replay them through the engine
//  3. Stamp run id, strategy id and deterministic trade ids
//  4. Persist the run, then its trades
func (r *Runner) Run(ctx context.Context, series *domain.PriceSeries, strat Strategy) (*domain.BacktestResult, error) {
	startedAt := r.now()

	// 1. Generate signals
	signals, err := strat.Signals(ctx, series)
	if err != nil {
		return nil, fmt.Errorf("generate signals for %s: %w", strat.Name(), err)
	}

	// 2. Replay
	result, err := r.engine.Run(ctx, series, signals)
	if err != nil {
		return nil, err
	}

	// 3. Identify
	result.RunID = r.newRunID()
	result.StrategyID = strat.Name()
	result.StartedAt = startedAt
	for i := range result.Trades {
		result.Trades[i].RunID = result.RunID
		result.Trades[i].ID = idhash.ComputeTradeID(result.RunID, series.Symbol, result.Trades[i].EntryIndex)
	}

	// 4. Persist
	if r.runStore != nil {
		if err := r.runStore.Insert(ctx, result); err != nil {
			return nil, fmt.Errorf("store backtest run: %w", err)
		}
	}
	if r.tradeStore != nil {
		if err := r.tradeStore.InsertBulk(ctx, result.Trades); err != nil {
			return nil, fmt.Errorf("store trades: %w", err)
		}
	}

	return result, nil
}
