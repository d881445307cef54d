package memory

import (
	"context"
	"sort"
	"sync"

	"analog-lab/internal/domain"
	"analog-lab/internal/storage"
)

// BacktestRunStore is an in-memory implementation of storage.BacktestRunStore.
// Trades are dropped on insert; they belong in TradeStore.
type BacktestRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BacktestResult // keyed by run_id
}

// NewBacktestRunStore creates a new in-memory backtest run store.
func NewBacktestRunStore() *BacktestRunStore {
	return &BacktestRunStore{
		data: make(map[string]*domain.BacktestResult),
	}
}

// copyRun returns a trade-less copy that shares no slices or pointers with r.
func copyRun(r *domain.BacktestResult) *domain.BacktestResult {
	c := *r
	c.Trades = nil
	c.EquityCurve = append([]float64(nil), r.EquityCurve...)
	c.DailyReturns = append([]float64(nil), r.DailyReturns...)
	if r.Config.StopLoss != nil {
		v := *r.Config.StopLoss
		c.Config.StopLoss = &v
	}
	if r.Config.TakeProfit != nil {
		v := *r.Config.TakeProfit
		c.Config.TakeProfit = &v
	}
	if r.Report.ProfitFactor != nil {
		v := *r.Report.ProfitFactor
		c.Report.ProfitFactor = &v
	}
	return &c
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *BacktestRunStore) Insert(_ context.Context, r *domain.BacktestResult) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.RunID] = copyRun(r)
	return nil
}

// GetByID retrieves a run without trades. Returns ErrNotFound if not exists.
func (s *BacktestRunStore) GetByID(_ context.Context, runID string) (*domain.BacktestResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copyRun(r), nil
}

// GetByStrategy retrieves all runs for a strategy, ordered by started_at ASC.
func (s *BacktestRunStore) GetByStrategy(_ context.Context, strategyID string) ([]*domain.BacktestResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BacktestResult
	for _, r := range s.data {
		if r.StrategyID == strategyID {
			result = append(result, copyRun(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].StartedAt.Before(result[j].StartedAt)
		}
		return result[i].RunID < result[j].RunID
	})

	return result, nil
}

var _ storage.BacktestRunStore = (*BacktestRunStore)(nil)
