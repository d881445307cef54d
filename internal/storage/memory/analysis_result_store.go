package memory

import (
	"context"
	"sort"
	"sync"

	"analog-lab/internal/domain"
	"analog-lab/internal/storage"
)

// AnalysisResultStore is an in-memory implementation of storage.AnalysisResultStore.
type AnalysisResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AnalysisResult // keyed by id
}

// NewAnalysisResultStore creates a new in-memory analysis result store.
func NewAnalysisResultStore() *AnalysisResultStore {
	return &AnalysisResultStore{
		data: make(map[string]*domain.AnalysisResult),
	}
}

// copyResult returns a copy that shares no pointers with r.
func copyResult(r *domain.AnalysisResult) *domain.AnalysisResult {
	c := *r
	if r.Advice != nil {
		advice := *r.Advice
		c.Advice = &advice
	}
	return &c
}

// Insert adds a new result. Returns ErrDuplicateKey if id exists.
func (s *AnalysisResultStore) Insert(_ context.Context, r *domain.AnalysisResult) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.ID] = copyResult(r)
	return nil
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *AnalysisResultStore) GetByID(_ context.Context, id string) (*domain.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copyResult(r), nil
}

// GetBySymbol retrieves all results for a symbol, ordered by as_of ASC, horizon ASC.
func (s *AnalysisResultStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AnalysisResult
	for _, r := range s.data {
		if r.Symbol == symbol {
			result = append(result, copyResult(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].AsOf.Equal(result[j].AsOf) {
			return result[i].AsOf.Before(result[j].AsOf)
		}
		if result[i].Horizon != result[j].Horizon {
			return result[i].Horizon < result[j].Horizon
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

var _ storage.AnalysisResultStore = (*AnalysisResultStore)(nil)
