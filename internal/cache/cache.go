// Package cache holds price series between analyses. Expiry belongs to the
// caller: the TTL and clock are supplied at construction.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"analog-lab/internal/domain"
)

// Key identifies a cached series.
type Key struct {
	Symbol string
	Period string
}

func (k Key) normalize() Key {
	return Key{
		Symbol: strings.ToUpper(strings.TrimSpace(k.Symbol)),
		Period: strings.ToLower(strings.TrimSpace(k.Period)),
	}
}

// String returns "SYMBOL/period".
func (k Key) String() string {
	n := k.normalize()
	return n.Symbol + "/" + n.Period
}

// SeriesCache stores price series by key.
type SeriesCache interface {
	Get(key Key) (*domain.PriceSeries, bool)
	Set(key Key, series *domain.PriceSeries)
}

// Loader fetches a series on a cache miss.
type Loader func(ctx context.Context, key Key) (*domain.PriceSeries, error)

type entry struct {
	series   *domain.PriceSeries
	storedAt time.Time
}

// TTLCache is an in-memory SeriesCache whose entries expire ttl after Set.
// Cached series are shared; callers treat them as read-only.
type TTLCache struct {
	mu   sync.RWMutex
	data map[Key]entry
	ttl  time.Duration
	now  func() time.Time
}

// NewTTLCache creates a cache. A nil clock uses time.Now; ttl <= 0 disables expiry.
func NewTTLCache(ttl time.Duration, now func() time.Time) *TTLCache {
	if now == nil {
		now = time.Now
	}
	return &TTLCache{data: make(map[Key]entry), ttl: ttl, now: now}
}

var _ SeriesCache = (*TTLCache)(nil)

// Get returns a live entry. Expired entries are dropped on access.
func (c *TTLCache) Get(key Key) (*domain.PriceSeries, bool) {
	key = key.normalize()

	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.expired(e) {
		c.mu.Lock()
		if cur, ok := c.data[key]; ok && c.expired(cur) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.series, true
}

// Set stores series under key, replacing any previous entry.
func (c *TTLCache) Set(key Key, series *domain.PriceSeries) {
	if series == nil {
		return
	}
	c.mu.Lock()
	c.data[key.normalize()] = entry{series: series, storedAt: c.now()}
	c.mu.Unlock()
}

// Delete removes an entry.
func (c *TTLCache) Delete(key Key) {
	c.mu.Lock()
	delete(c.data, key.normalize())
	c.mu.Unlock()
}

// Purge removes every expired entry and returns how many were removed.
func (c *TTLCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.data {
		if c.expired(e) {
			delete(c.data, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *TTLCache) expired(e entry) bool {
	return c.ttl > 0 && c.now().Sub(e.storedAt) >= c.ttl
}

// ReadThrough returns the cached series for key, loading and storing it on a miss.
// A nil cache always loads. Loader failures and empty series surface as
// domain.ErrInsufficientData and are not cached. Invalid keys and context
// errors are returned unchanged.
func ReadThrough(ctx context.Context, c SeriesCache, key Key, load Loader) (*domain.PriceSeries, error) {
	if c != nil {
		if s, ok := c.Get(key); ok {
			return s, nil
		}
	}

	s, err := load(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientData) ||
			errors.Is(err, domain.ErrInvalidParameter) ||
			errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load %s: %v", domain.ErrInsufficientData, key, err)
	}
	if s.Len() == 0 {
		return nil, fmt.Errorf("%w: no bars for %s", domain.ErrInsufficientData, key)
	}

	if c != nil {
		c.Set(key, s)
	}
	return s, nil
}
