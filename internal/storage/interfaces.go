package storage

import (
	"context"
	"time"

	"analog-lab/internal/domain"
)

// PriceBarStore provides access to price_bars storage.
type PriceBarStore interface {
	// InsertBulk adds bars for a symbol. Fails entire batch on duplicate (symbol, date).
	InsertBulk(ctx context.Context, symbol string, bars []domain.PriceBar) error

	// GetSeries retrieves every bar for a symbol, ordered by date ASC.
	// An unknown symbol yields a series with no bars.
	GetSeries(ctx context.Context, symbol string) (*domain.PriceSeries, error)

	// GetByDateRange retrieves bars for a symbol within [start, end] (inclusive).
	GetByDateRange(ctx context.Context, symbol string, start, end time.Time) (*domain.PriceSeries, error)

	// Symbols lists every symbol with at least one bar, sorted.
	Symbols(ctx context.Context) ([]string, error)
}

// AnalysisResultStore provides access to analysis_results storage.
type AnalysisResultStore interface {
	// Insert adds a result. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, r *domain.AnalysisResult) error

	// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.AnalysisResult, error)

	// GetBySymbol retrieves all results for a symbol, ordered by as_of ASC, horizon ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.AnalysisResult, error)
}

// BacktestRunStore provides access to backtest_runs storage.
// Trades are stored separately in TradeStore.
type BacktestRunStore interface {
	// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.BacktestResult) error

	// GetByID retrieves a run without trades. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.BacktestResult, error)

	// GetByStrategy retrieves all runs for a strategy, ordered by started_at ASC.
	GetByStrategy(ctx context.Context, strategyID string) ([]*domain.BacktestResult, error)
}

// TradeStore provides access to trades storage.
type TradeStore interface {
	// InsertBulk adds trades atomically. Fails entire batch on any duplicate id.
	InsertBulk(ctx context.Context, trades []domain.Trade) error

	// GetByRunID retrieves all trades for a run, ordered by entry_index ASC.
	GetByRunID(ctx context.Context, runID string) ([]domain.Trade, error)
}

// StrategyAggregateStore provides access to strategy_aggregates storage.
type StrategyAggregateStore interface {
	// Insert adds an aggregate. Returns ErrDuplicateKey if (strategy_id, computed_at) exists.
	Insert(ctx context.Context, a *domain.StrategyAggregate) error

	// GetLatest retrieves the most recent aggregate for a strategy. Returns ErrNotFound if none.
	GetLatest(ctx context.Context, strategyID string) (*domain.StrategyAggregate, error)

	// GetAll retrieves the most recent aggregate of every strategy, ordered by strategy_id.
	GetAll(ctx context.Context) ([]*domain.StrategyAggregate, error)
}
