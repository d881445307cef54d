// Package orchestrator runs analyses and backtests across symbols on a
// bounded worker pool.
// It coordinates: load series → analyse (symbol × horizon) → backtest
// (symbol × strategy) → aggregate per strategy
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"analog-lab/internal/analysis"
	"analog-lab/internal/backtest"
	"analog-lab/internal/cache"
	"analog-lab/internal/domain"
	"analog-lab/internal/logging"
	"analog-lab/internal/metrics"
	"analog-lab/internal/observability"
	"analog-lab/internal/signals"
	"analog-lab/internal/storage"
)

// DefaultWorkers bounds the pool when Options.Workers is not set.
const DefaultWorkers = 4

// Orchestrator coordinates pipeline execution.
// It is safe for concurrent use; Run calls share only the stores and cache.
type Orchestrator struct {
	// Stores
	barStore       storage.PriceBarStore
	aggregateStore storage.StrategyAggregateStore
	runStore       storage.BacktestRunStore
	tradeStore     storage.TradeStore

	// Pipeline components
	cache      cache.SeriesCache
	analyzer   *analysis.Analyzer
	runner     *backtest.Runner
	aggregator *metrics.Aggregator

	// Configs
	strategies []domain.StrategyConfig
	symbols    []string
	period     string
	workers    int

	logger  zerolog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	PriceBarStore  storage.PriceBarStore
	RunStore       storage.BacktestRunStore
	TradeStore     storage.TradeStore
	AggregateStore storage.StrategyAggregateStore

	// Optional series cache
	Cache cache.SeriesCache

	// Pipeline configs
	Analyzer   *analysis.Analyzer
	Backtest   domain.BacktestConfig
	Strategies []domain.StrategyConfig

	// Symbols to process; empty means every stored symbol
	Symbols []string
	Period  string
	Workers int

	Logger  zerolog.Logger
	Metrics *observability.Metrics
	Now     func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.PriceBarStore == nil || opts.RunStore == nil || opts.TradeStore == nil || opts.AggregateStore == nil {
		return nil, errors.New("orchestrator: all stores are required")
	}
	if opts.Analyzer == nil {
		return nil, errors.New("orchestrator: analyzer is required")
	}

	runner, err := backtest.NewRunner(backtest.RunnerOptions{
		Config:     opts.Backtest,
		RunStore:   opts.RunStore,
		TradeStore: opts.TradeStore,
		Now:        opts.Now,
	})
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		barStore:       opts.PriceBarStore,
		aggregateStore: opts.AggregateStore,
		runStore:       opts.RunStore,
		tradeStore:     opts.TradeStore,
		cache:          opts.Cache,
		analyzer:       opts.Analyzer,
		runner:         runner,
		aggregator:     metrics.NewAggregator(opts.RunStore, opts.AggregateStore),
		strategies:     opts.Strategies,
		symbols:        opts.Symbols,
		period:         opts.Period,
		workers:        opts.Workers,
		logger:         logging.Component(opts.Logger, "orchestrator"),
		metrics:        opts.Metrics,
		now:            opts.Now,
	}
	if o.workers <= 0 {
		o.workers = DefaultWorkers
	}
	if o.period == "" {
		o.period = domain.PeriodMax
	}
	if o.now == nil {
		o.now = func() time.Time { return time.Now().UTC() }
	}
	return o, nil
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	Symbols           int
	AnalysesCreated   int
	BacktestsRun      int
	TradesCreated     int
	AggregatesCreated int
	Errors            []string
}

// collector accumulates task outcomes from concurrent workers.
type collector struct {
	mu     sync.Mutex
	result RunResult
}

func (c *collector) add(f func(r *RunResult)) {
	c.mu.Lock()
	f(&c.result)
	c.mu.Unlock()
}

func (c *collector) fail(format string, args ...any) {
	c.add(func(r *RunResult) { r.Errors = append(r.Errors, fmt.Sprintf(format, args...)) })
}

// Run executes the full pipeline. Per-task failures are collected in
// RunResult.Errors; only cancellation and symbol resolution abort the run.
// Phases:
//  1. Resolve symbols
//  2. Load series through the cache
//  3. Analyse every (symbol, horizon)
//  4. Backtest every (symbol, strategy)
//  5. Aggregate per strategy
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	started := o.now()
	res, err := o.run(ctx)
	o.metrics.RecordPipelineRun(o.now().Sub(started), o.now(), err)
	return res, err
}

func (o *Orchestrator) run(ctx context.Context) (*RunResult, error) {
	c := &collector{}

	// Phase 1: Resolve symbols
	symbols, err := o.resolveSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (resolve symbols) failed: %w", err)
	}
	c.result.Symbols = len(symbols)
	o.logger.Info().Int("symbols", len(symbols)).Str("period", o.period).Msg("phase 1: symbols resolved")
	if len(symbols) == 0 {
		return &c.result, nil
	}

	// Phase 2: Load series
	series, err := o.loadAll(ctx, symbols, c)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (load series) failed: %w", err)
	}
	o.logger.Info().Int("loaded", len(series)).Msg("phase 2: series loaded")

	// Phase 3: Analyses
	if err := o.runAnalyses(ctx, series, c); err != nil {
		return nil, fmt.Errorf("phase 3 (analysis) failed: %w", err)
	}
	o.logger.Info().Int("results", c.result.AnalysesCreated).Msg("phase 3: analyses done")

	// Phase 4: Backtests
	names, err := o.runBacktests(ctx, series, c)
	if err != nil {
		return nil, fmt.Errorf("phase 4 (backtest) failed: %w", err)
	}
	o.logger.Info().Int("runs", c.result.BacktestsRun).Int("trades", c.result.TradesCreated).Msg("phase 4: backtests done")

	// Phase 5: Aggregation
	o.runAggregation(ctx, names, c)

	o.logger.Info().
		Int("symbols", c.result.Symbols).
		Int("analyses", c.result.AnalysesCreated).
		Int("backtests", c.result.BacktestsRun).
		Int("aggregates", c.result.AggregatesCreated).
		Int("errors", len(c.result.Errors)).
		Msg("pipeline completed")

	return &c.result, nil
}

// resolveSymbols returns the configured symbols or every stored one.
func (o *Orchestrator) resolveSymbols(ctx context.Context) ([]string, error) {
	if len(o.symbols) > 0 {
		return o.symbols, nil
	}
	return o.barStore.Symbols(ctx)
}

// LoadSeries returns the series for symbol over the configured period.
func (o *Orchestrator) LoadSeries(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	return o.LoadSeriesPeriod(ctx, symbol, o.period)
}

// LoadSeriesPeriod returns the series for symbol over period; an empty
// period uses the configured one.
func (o *Orchestrator) LoadSeriesPeriod(ctx context.Context, symbol, period string) (*domain.PriceSeries, error) {
	if period == "" {
		period = o.period
	}
	key := cache.Key{Symbol: symbol, Period: period}
	if o.cache != nil {
		if s, ok := o.cache.Get(key); ok {
			o.metrics.RecordCache(true)
			return s, nil
		}
		o.metrics.RecordCache(false)
	}
	return cache.ReadThrough(ctx, o.cache, key, cache.StoreLoader(o.barStore))
}

// loadAll loads every symbol concurrently. Symbols that fail are skipped.
func (o *Orchestrator) loadAll(ctx context.Context, symbols []string, c *collector) (map[string]*domain.PriceSeries, error) {
	var mu sync.Mutex
	out := make(map[string]*domain.PriceSeries, len(symbols))

	err := o.forEach(ctx, len(symbols), func(ctx context.Context, i int) error {
		s, err := o.LoadSeries(ctx, symbols[i])
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.fail("load %s: %v", symbols[i], err)
			o.logger.Warn().Err(err).Str("symbol", symbols[i]).Msg("load failed")
			return nil
		}
		mu.Lock()
		out[symbols[i]] = s
		mu.Unlock()
		return nil
	})
	return out, err
}

// AnalyzeRequest describes one on-demand analysis.
type AnalyzeRequest struct {
	Symbol         string
	Period         string     // empty uses the configured period
	AsOf           *time.Time // bars after AsOf are ignored
	ReferencePrice *float64   // overrides the last close
}

// Analyze loads the requested series and analyses it for every configured horizon.
func (o *Orchestrator) Analyze(ctx context.Context, req AnalyzeRequest) ([]*domain.AnalysisResult, error) {
	series, err := o.LoadSeriesPeriod(ctx, req.Symbol, req.Period)
	if err != nil {
		return nil, err
	}

	analyzer := o.analyzer
	if req.ReferencePrice != nil {
		if analyzer, err = analyzer.WithReferencePrice(*req.ReferencePrice); err != nil {
			return nil, err
		}
	}
	if req.AsOf != nil {
		started := time.Now()
		results, err := analyzer.AnalyzeAt(ctx, series, *req.AsOf)
		matches := 0
		if len(results) > 0 {
			matches = results[0].MatchCount
		}
		o.metrics.RecordAnalysis(matches, time.Since(started), err)
		return results, err
	}
	return o.analyzeSeries(ctx, analyzer, series)
}

// AnalyzeSeries analyses one series for every configured horizon in parallel
// and returns the results ordered by horizon.
func (o *Orchestrator) AnalyzeSeries(ctx context.Context, series *domain.PriceSeries) ([]*domain.AnalysisResult, error) {
	return o.analyzeSeries(ctx, o.analyzer, series)
}

func (o *Orchestrator) analyzeSeries(ctx context.Context, analyzer *analysis.Analyzer, series *domain.PriceSeries) ([]*domain.AnalysisResult, error) {
	horizons := analyzer.Config().Horizons
	out := make([]*domain.AnalysisResult, len(horizons))
	errs := make([]error, len(horizons))

	err := o.forEach(ctx, len(horizons), func(ctx context.Context, i int) error {
		started := time.Now()
		results, err := analyzer.ForHorizon(horizons[i]).Analyze(ctx, series)
		matches := 0
		if err == nil && len(results) == 1 {
			out[i] = results[0]
			matches = results[0].MatchCount
		}
		o.metrics.RecordAnalysis(matches, time.Since(started), err)
		errs[i] = err
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return sortedByHorizon(out), nil
}

// runAnalyses analyses every (symbol, horizon) pair.
func (o *Orchestrator) runAnalyses(ctx context.Context, series map[string]*domain.PriceSeries, c *collector) error {
	type task struct {
		series  *domain.PriceSeries
		horizon int
	}
	var tasks []task
	for _, sym := range sortedKeys(series) {
		for _, h := range o.analyzer.Config().Horizons {
			tasks = append(tasks, task{series: series[sym], horizon: h})
		}
	}

	return o.forEach(ctx, len(tasks), func(ctx context.Context, i int) error {
		t := tasks[i]
		started := time.Now()
		results, err := o.analyzer.ForHorizon(t.horizon).Analyze(ctx, t.series)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		matches := 0
		if len(results) > 0 {
			matches = results[0].MatchCount
		}
		o.metrics.RecordAnalysis(matches, time.Since(started), err)

		if err != nil {
			c.fail("analyze %s/h%d: %v", t.series.Symbol, t.horizon, err)
			return nil
		}
		c.add(func(r *RunResult) { r.AnalysesCreated += len(results) })
		return nil
	})
}

// BacktestSymbol loads symbol over period and backtests the strategy described by cfg.
func (o *Orchestrator) BacktestSymbol(ctx context.Context, symbol, period string, cfg domain.StrategyConfig) (*domain.BacktestResult, error) {
	series, err := o.LoadSeriesPeriod(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	return o.Backtest(ctx, series, cfg)
}

// Backtest builds the strategy described by cfg and runs it over series.
func (o *Orchestrator) Backtest(ctx context.Context, series *domain.PriceSeries, cfg domain.StrategyConfig) (*domain.BacktestResult, error) {
	strat, err := signals.FromConfig(cfg, o.analyzer)
	if err != nil {
		return nil, err
	}
	return o.backtest(ctx, series, strat)
}

// ExternalStrategyID names runs replaying a supplied signal series.
const ExternalStrategyID = "EXTERNAL"

// BacktestSymbolSignals loads symbol over period and replays a supplied
// signal series, one label per loaded bar.
func (o *Orchestrator) BacktestSymbolSignals(ctx context.Context, symbol, period string, labels []domain.Signal) (*domain.BacktestResult, error) {
	series, err := o.LoadSeriesPeriod(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	return o.BacktestSignals(ctx, series, labels)
}

// BacktestSignals replays labels over series. A length mismatch is
// domain.ErrInvalidParameter.
func (o *Orchestrator) BacktestSignals(ctx context.Context, series *domain.PriceSeries, labels []domain.Signal) (*domain.BacktestResult, error) {
	return o.backtest(ctx, series, backtest.StaticSignals{ID: ExternalStrategyID, Series: labels})
}

func (o *Orchestrator) backtest(ctx context.Context, series *domain.PriceSeries, strat backtest.Strategy) (*domain.BacktestResult, error) {
	started := time.Now()
	res, err := o.runner.Run(ctx, series, strat)
	trades := 0
	if res != nil {
		trades = len(res.Trades)
	}
	o.metrics.RecordBacktest(strat.Name(), trades, time.Since(started), err)
	return res, err
}

// runBacktests runs every (symbol, strategy) pair and returns the names of
// the strategies that were built.
func (o *Orchestrator) runBacktests(ctx context.Context, series map[string]*domain.PriceSeries, c *collector) ([]string, error) {
	var strategies []backtest.Strategy
	for _, cfg := range o.strategies {
		strat, err := signals.FromConfig(cfg, o.analyzer)
		if err != nil {
			c.fail("build strategy %s: %v", cfg.Type, err)
			continue
		}
		strategies = append(strategies, strat)
	}

	type task struct {
		series *domain.PriceSeries
		strat  backtest.Strategy
	}
	var tasks []task
	for _, sym := range sortedKeys(series) {
		for _, strat := range strategies {
			tasks = append(tasks, task{series: series[sym], strat: strat})
		}
	}

	err := o.forEach(ctx, len(tasks), func(ctx context.Context, i int) error {
		t := tasks[i]
		res, err := o.backtest(ctx, t.series, t.strat)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			c.fail("backtest %s/%s: %v", t.series.Symbol, t.strat.Name(), err)
			return nil
		}
		c.add(func(r *RunResult) {
			r.BacktestsRun++
			r.TradesCreated += len(res.Trades)
		})
		return nil
	})

	names := make([]string, 0, len(strategies))
	for _, s := range strategies {
		names = append(names, s.Name())
	}
	return names, err
}

// runAggregation recomputes the aggregate of every strategy.
func (o *Orchestrator) runAggregation(ctx context.Context, names []string, c *collector) {
	for _, name := range names {
		_, err := o.aggregator.ComputeAndStore(ctx, name)
		if err != nil {
			// Skip strategies without runs (every backtest failed) and
			// versions already stored
			if errors.Is(err, metrics.ErrNoRuns) || errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			c.fail("aggregate %s: %v", name, err)
			continue
		}
		o.metrics.RecordAggregate()
		c.add(func(r *RunResult) { r.AggregatesCreated++ })
	}
}

// forEach runs fn for indexes [0, n) on the worker pool. The first non-nil
// error cancels the remaining tasks and is returned.
func (o *Orchestrator) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error { return fn(gctx, i) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Aggregates returns the latest aggregate of every strategy.
func (o *Orchestrator) Aggregates(ctx context.Context) ([]*domain.StrategyAggregate, error) {
	return o.aggregateStore.GetAll(ctx)
}

// Aggregate returns the latest aggregate of one strategy.
func (o *Orchestrator) Aggregate(ctx context.Context, strategyID string) (*domain.StrategyAggregate, error) {
	return o.aggregateStore.GetLatest(ctx, strategyID)
}

// BacktestRun returns a stored run together with its trades.
func (o *Orchestrator) BacktestRun(ctx context.Context, runID string) (*domain.BacktestResult, error) {
	run, err := o.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	trades, err := o.tradeStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	run.Trades = trades
	return run, nil
}
