// Package main provides the unified server that runs all components together:
// - HTTP API: on-demand analyses, backtests and aggregates, plus /metrics
// - Pipeline (scheduled): analyses → backtests → aggregates over all symbols
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"analog-lab/internal/app"
	"analog-lab/internal/config"
	"analog-lab/internal/logging"
	"analog-lab/internal/transport/httpapi"
)

// Server holds all components of the unified service.
type Server struct {
	app    *app.App
	api    *httpapi.Server
	logger zerolog.Logger

	interval time.Duration

	// State
	mu              sync.Mutex
	pipelineRunning bool
	lastPipelineRun time.Time
	pipelineRuns    int
}

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file")
	csvDir := flag.String("csv-dir", "", "Import every SYMBOL.csv in this directory at startup")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build app")
	}
	defer a.Close()

	if *csvDir != "" {
		if _, err := a.ImportDir(ctx, *csvDir); err != nil {
			logger.Fatal().Err(err).Msg("import bars")
		}
	}

	api, err := httpapi.NewServer(httpapi.Config{
		Addr:         cfg.Server.Addr,
		Service:      a.Orchestrator,
		Metrics:      a.Metrics,
		Gatherer:     a.Registry,
		RateLimit:    cfg.Server.RateLimit,
		RateBurst:    cfg.Server.RateBurst,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("build http server")
	}

	server := &Server{
		app:      a,
		api:      api,
		logger:   logging.Component(logger, "server"),
		interval: cfg.Server.RunInterval,
	}

	// Channel to signal completion
	done := make(chan struct{})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		server.logger.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			server.logger.Warn().Str("signal", sig.String()).Msg("forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			server.logger.Warn().Msg("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = server.Run(ctx)
	close(done)

	if err != nil && !errors.Is(err, context.Canceled) {
		server.logger.Fatal().Err(err).Msg("server error")
	}
	server.logger.Info().Msg("shutdown complete")
}

// Run starts the HTTP API and, when an interval is set, the pipeline scheduler.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info().Dur("pipeline_interval", s.interval).Msg("starting server")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.api.Run(ctx); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if s.interval > 0 {
		g.Go(func() error {
			return s.runPipelineScheduler(ctx)
		})
	}

	return g.Wait()
}

// runPipelineScheduler runs pipeline on schedule.
func (s *Server) runPipelineScheduler(ctx context.Context) error {
	// Run immediately on start
	s.runPipeline(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runPipeline(ctx)
		}
	}
}

// runPipeline executes the orchestrator unless a run is already in progress.
func (s *Server) runPipeline(ctx context.Context) {
	s.mu.Lock()
	if s.pipelineRunning {
		s.mu.Unlock()
		s.logger.Info().Msg("pipeline already running, skipping")
		return
	}
	s.pipelineRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.pipelineRunning = false
		s.lastPipelineRun = time.Now()
		s.pipelineRuns++
		s.mu.Unlock()
	}()

	start := time.Now()
	result, err := s.app.Orchestrator.Run(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("pipeline failed")
		return
	}
	for _, e := range result.Errors {
		s.logger.Warn().Str("error", e).Msg("pipeline task failed")
	}
	s.logger.Info().
		Int("symbols", result.Symbols).
		Int("analyses", result.AnalysesCreated).
		Int("backtests", result.BacktestsRun).
		Int("aggregates", result.AggregatesCreated).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline completed")
}
