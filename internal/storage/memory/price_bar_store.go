package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"analog-lab/internal/domain"
	"analog-lab/internal/storage"
)

// PriceBarStore is an in-memory implementation of storage.PriceBarStore.
type PriceBarStore struct {
	mu   sync.RWMutex
	data map[string]map[string]domain.PriceBar // symbol -> day -> bar
}

// NewPriceBarStore creates a new in-memory price bar store.
func NewPriceBarStore() *PriceBarStore {
	return &PriceBarStore{
		data: make(map[string]map[string]domain.PriceBar),
	}
}

// dayKey truncates a bar date to day granularity.
func dayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// InsertBulk adds bars for a symbol. Fails entire batch on duplicate (symbol, date).
func (s *PriceBarStore) InsertBulk(_ context.Context, symbol string, bars []domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	if symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[symbol]

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(bars))
	for _, b := range bars {
		key := dayKey(b.Date)
		if _, exists := existing[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	if existing == nil {
		existing = make(map[string]domain.PriceBar, len(bars))
		s.data[symbol] = existing
	}
	for _, b := range bars {
		existing[dayKey(b.Date)] = b
	}

	return nil
}

// GetSeries retrieves every bar for a symbol, ordered by date ASC.
func (s *PriceBarStore) GetSeries(_ context.Context, symbol string) (*domain.PriceSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars := s.collect(symbol, func(domain.PriceBar) bool { return true })
	return &domain.PriceSeries{Symbol: symbol, Period: domain.PeriodMax, Bars: bars}, nil
}

// GetByDateRange retrieves bars for a symbol within [start, end] (inclusive, by day).
func (s *PriceBarStore) GetByDateRange(_ context.Context, symbol string, start, end time.Time) (*domain.PriceSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to := dayKey(start), dayKey(end)
	bars := s.collect(symbol, func(b domain.PriceBar) bool {
		k := dayKey(b.Date)
		return k >= from && k <= to
	})
	return &domain.PriceSeries{Symbol: symbol, Bars: bars}, nil
}

// Symbols lists every symbol with at least one bar, sorted.
func (s *PriceBarStore) Symbols(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols := make([]string, 0, len(s.data))
	for sym, bars := range s.data {
		if len(bars) > 0 {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// collect returns matching bars sorted by date. Caller holds the read lock.
func (s *PriceBarStore) collect(symbol string, keep func(domain.PriceBar) bool) []domain.PriceBar {
	var result []domain.PriceBar
	for _, b := range s.data[symbol] {
		if keep(b) {
			result = append(result, b)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result
}

var _ storage.PriceBarStore = (*PriceBarStore)(nil)
