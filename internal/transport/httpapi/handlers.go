package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"analog-lab/internal/domain"
	"analog-lab/internal/orchestrator"
	"analog-lab/internal/signals"
	"analog-lab/internal/storage"
)

type analyzeRequest struct {
	Symbol         string   `json:"symbol" binding:"required"`
	Period         string   `json:"period"`
	AsOf           string   `json:"as_of"` // YYYY-MM-DD
	ReferencePrice *float64 `json:"reference_price"`
}

// backtestRequest runs either a configured strategy or, when Signals is set,
// a supplied label series aligned with the loaded bars.
type backtestRequest struct {
	Symbol   string                `json:"symbol" binding:"required"`
	Period   string                `json:"period"`
	Strategy domain.StrategyConfig `json:"strategy"`
	Signals  []string              `json:"signals"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ar := orchestrator.AnalyzeRequest{
		Symbol:         req.Symbol,
		Period:         req.Period,
		ReferencePrice: req.ReferencePrice,
	}
	if req.AsOf != "" {
		asOf, err := time.Parse(time.DateOnly, req.AsOf)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be YYYY-MM-DD"})
			return
		}
		ar.AsOf = &asOf
	}

	results, err := s.svc.Analyze(c.Request.Context(), ar)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) handleBacktest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		res *domain.BacktestResult
		err error
	)
	if len(req.Signals) > 0 {
		labels, perr := domain.ParseSignals(req.Signals)
		if perr != nil {
			s.fail(c, perr)
			return
		}
		res, err = s.svc.BacktestSymbolSignals(c.Request.Context(), req.Symbol, req.Period, labels)
	} else {
		res, err = s.svc.BacktestSymbol(c.Request.Context(), req.Symbol, req.Period, req.Strategy)
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res})
}

func (s *Server) handleBacktestRun(c *gin.Context) {
	res, err := s.svc.BacktestRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res})
}

func (s *Server) handleAggregates(c *gin.Context) {
	aggs, err := s.svc.Aggregates(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"aggregates": aggs})
}

func (s *Server) handleAggregate(c *gin.Context) {
	agg, err := s.svc.Aggregate(c.Request.Context(), c.Param("strategy"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"aggregate": agg})
}

// fail maps domain and storage errors onto status codes.
func (s *Server) fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidParameter),
		errors.Is(err, signals.ErrUnknownStrategyType),
		errors.Is(err, signals.ErrMissingHorizon),
		errors.Is(err, signals.ErrMissingAnalyzer),
		errors.Is(err, signals.ErrHorizonNotAnalyzed),
		errors.Is(err, signals.ErrMissingRSIPeriod),
		errors.Is(err, signals.ErrMissingThresholds),
		errors.Is(err, signals.ErrInvalidThresholds):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
