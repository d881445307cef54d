// Package httpapi exposes analyses, backtests and strategy aggregates over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"analog-lab/internal/domain"
	"analog-lab/internal/logging"
	"analog-lab/internal/observability"
	"analog-lab/internal/orchestrator"
)

// Service is the application surface the API serves.
type Service interface {
	Analyze(ctx context.Context, req orchestrator.AnalyzeRequest) ([]*domain.AnalysisResult, error)
	BacktestSymbol(ctx context.Context, symbol, period string, cfg domain.StrategyConfig) (*domain.BacktestResult, error)
	BacktestSymbolSignals(ctx context.Context, symbol, period string, labels []domain.Signal) (*domain.BacktestResult, error)
	BacktestRun(ctx context.Context, runID string) (*domain.BacktestResult, error)
	Aggregates(ctx context.Context) ([]*domain.StrategyAggregate, error)
	Aggregate(ctx context.Context, strategyID string) (*domain.StrategyAggregate, error)
}

var _ Service = (*orchestrator.Orchestrator)(nil)

// Server serves the HTTP API.
type Server struct {
	addr         string
	svc          Service
	router       *gin.Engine
	metrics      *observability.Metrics
	gatherer     prometheus.Gatherer
	logger       zerolog.Logger
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Config describes the server dependencies.
type Config struct {
	Addr    string
	Service Service

	// Metrics records request counters; Gatherer backs /metrics.
	// A nil Gatherer serves the default registry.
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer

	// RateLimit is requests per second across all clients; 0 disables throttling.
	RateLimit float64
	RateBurst int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       zerolog.Logger
}

// NewServer builds the router.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("httpapi: service is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:         cfg.Addr,
		svc:          cfg.Service,
		router:       router,
		metrics:      cfg.Metrics,
		gatherer:     cfg.Gatherer,
		logger:       logging.Component(cfg.Logger, "httpapi"),
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
	}

	router.Use(s.observe())
	if cfg.RateLimit > 0 {
		router.Use(rateLimit(cfg.RateLimit, cfg.RateBurst))
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	if s.gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(observability.HandlerFor(s.gatherer)))
	} else {
		s.router.GET("/metrics", gin.WrapH(observability.Handler()))
	}

	api := s.router.Group("/api/v1")
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/backtest", s.handleBacktest)
	api.GET("/backtest/:id", s.handleBacktestRun)
	api.GET("/aggregates", s.handleAggregates)
	api.GET("/aggregates/:strategy", s.handleAggregate)
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
