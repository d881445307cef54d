// Package app wires configuration into stores, the analyzer and the
// orchestrator shared by the command binaries.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"analog-lab/internal/analysis"
	"analog-lab/internal/cache"
	"analog-lab/internal/config"
	"analog-lab/internal/decision"
	"analog-lab/internal/observability"
	"analog-lab/internal/orchestrator"
	"analog-lab/internal/regime"
	"analog-lab/internal/storage"
	chstore "analog-lab/internal/storage/clickhouse"
	"analog-lab/internal/storage/memory"
	"analog-lab/internal/storage/migrations"
	pgstore "analog-lab/internal/storage/postgres"
)

// Stores holds every storage implementation.
type Stores struct {
	PriceBars  storage.PriceBarStore
	Results    storage.AnalysisResultStore
	Runs       storage.BacktestRunStore
	Trades     storage.TradeStore
	Aggregates storage.StrategyAggregateStore
}

// App is a fully wired application.
type App struct {
	Config       *config.Config
	Logger       zerolog.Logger
	Registry     *prometheus.Registry
	Metrics      *observability.Metrics
	Stores       Stores
	Analyzer     *analysis.Analyzer
	Orchestrator *orchestrator.Orchestrator

	closers []func()
}

// New builds the application from cfg. Callers must Close it.
// Steps:
//  1. Open stores (memory, or Postgres + ClickHouse with optional migrations)
//  2. Register metrics on a private registry
//  3. Build the analyzer with scoring, sizing and optional regime classification
//  4. Build the orchestrator over a TTL series cache
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	// 1. Stores
	if err := a.openStores(ctx); err != nil {
		a.Close()
		return nil, err
	}

	// 2. Metrics
	a.Registry = prometheus.NewRegistry()
	a.Metrics = observability.NewMetrics(observability.DefaultNamespace, a.Registry)

	// 3. Analyzer
	var classifier *regime.Classifier
	if cfg.Regime.Enabled {
		classifier = regime.NewClassifier(cfg.Regime.Options)
	}
	analyzer, err := analysis.NewAnalyzer(analysis.Options{
		Config:      cfg.Analysis,
		Weights:     cfg.Scoring,
		Sizer:       decision.NewSizer(cfg.Sizing, nil),
		Classifier:  classifier,
		ResultStore: a.Stores.Results,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build analyzer: %w", err)
	}
	a.Analyzer = analyzer

	// 4. Orchestrator
	orch, err := orchestrator.New(orchestrator.Options{
		PriceBarStore:  a.Stores.PriceBars,
		RunStore:       a.Stores.Runs,
		TradeStore:     a.Stores.Trades,
		AggregateStore: a.Stores.Aggregates,
		Cache:          cache.NewTTLCache(cfg.Cache.TTL, nil),
		Analyzer:       analyzer,
		Backtest:       cfg.Backtest,
		Strategies:     cfg.Strategies,
		Symbols:        cfg.Symbols,
		Period:         cfg.Period,
		Workers:        cfg.Workers,
		Logger:         logger,
		Metrics:        a.Metrics,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}
	a.Orchestrator = orch

	return a, nil
}

func (a *App) openStores(ctx context.Context) error {
	sc := a.Config.Storage
	if sc.Driver != config.DriverDatabase {
		a.Stores = Stores{
			PriceBars:  memory.NewPriceBarStore(),
			Results:    memory.NewAnalysisResultStore(),
			Runs:       memory.NewBacktestRunStore(),
			Trades:     memory.NewTradeStore(),
			Aggregates: memory.NewStrategyAggregateStore(),
		}
		a.Logger.Info().Str("driver", config.DriverMemory).Msg("stores ready")
		return nil
	}

	// PostgreSQL for analyses, runs and trades
	pool, err := pgstore.NewPool(ctx, sc.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	if sc.Migrate {
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			return fmt.Errorf("postgres migrations: %w", err)
		}
		a.Logger.Info().Strs("files", applied).Msg("postgres migrations applied")
	}

	// ClickHouse for price bars and aggregates
	var conn *chstore.Conn
	switch {
	case sc.Migrate:
		conn, err = migrations.RunClickhouseMigrations(ctx, sc.ClickHouseDSN)
	case sc.ClickHouseDatabase != "":
		conn, err = chstore.NewConnWithDatabase(ctx, sc.ClickHouseDSN, sc.ClickHouseDatabase)
	default:
		conn, err = chstore.NewConn(ctx, sc.ClickHouseDSN)
	}
	if err != nil {
		return fmt.Errorf("connect to clickhouse: %w", err)
	}
	a.closers = append(a.closers, func() { _ = conn.Close() })

	a.Stores = Stores{
		PriceBars:  chstore.NewPriceBarStore(conn),
		Results:    pgstore.NewAnalysisResultStore(pool),
		Runs:       pgstore.NewBacktestRunStore(pool),
		Trades:     pgstore.NewTradeStore(pool),
		Aggregates: chstore.NewStrategyAggregateStore(conn),
	}
	a.Logger.Info().Str("driver", config.DriverDatabase).Msg("stores ready")
	return nil
}

// Close releases store connections in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
