package memory

import (
	"context"
	"sort"
	"sync"

	"analog-lab/internal/domain"
	"analog-lab/internal/storage"
)

// StrategyAggregateStore is an in-memory implementation of storage.StrategyAggregateStore.
type StrategyAggregateStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.StrategyAggregate // strategy_id -> versions, oldest first
}

// NewStrategyAggregateStore creates a new in-memory strategy aggregate store.
func NewStrategyAggregateStore() *StrategyAggregateStore {
	return &StrategyAggregateStore{
		data: make(map[string][]*domain.StrategyAggregate),
	}
}

// Insert adds a new aggregate. Returns ErrDuplicateKey if (strategy_id, computed_at) exists.
func (s *StrategyAggregateStore) Insert(_ context.Context, a *domain.StrategyAggregate) error {
	if a == nil || a.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	versions := s.data[a.StrategyID]
	for _, v := range versions {
		if v.ComputedAt.Equal(a.ComputedAt) {
			return storage.ErrDuplicateKey
		}
	}

	aggCopy := *a
	versions = append(versions, &aggCopy)
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].ComputedAt.Before(versions[j].ComputedAt)
	})
	s.data[a.StrategyID] = versions
	return nil
}

// GetLatest retrieves the most recent aggregate for a strategy. Returns ErrNotFound if none.
func (s *StrategyAggregateStore) GetLatest(_ context.Context, strategyID string) (*domain.StrategyAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.data[strategyID]
	if len(versions) == 0 {
		return nil, storage.ErrNotFound
	}

	aggCopy := *versions[len(versions)-1]
	return &aggCopy, nil
}

// GetAll retrieves the most recent aggregate of every strategy, ordered by strategy_id.
func (s *StrategyAggregateStore) GetAll(_ context.Context) ([]*domain.StrategyAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.StrategyAggregate
	for _, versions := range s.data {
		if len(versions) == 0 {
			continue
		}
		aggCopy := *versions[len(versions)-1]
		result = append(result, &aggCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StrategyID < result[j].StrategyID
	})

	return result, nil
}

var _ storage.StrategyAggregateStore = (*StrategyAggregateStore)(nil)
