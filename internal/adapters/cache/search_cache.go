package cache

import (
	"context"
	"sync"
	"time"

	"analytics-service/internal/adapters/metrics"
	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"

	"github.com/goccy/go-json"
)

var _ port.SearchCachePort = (*SearchCache)(nil)

type entry struct {
	page      *domain.RankedPage
	expiresAt time.Time
}

// SearchCache - in-memory TTL cache of ranked pages keyed by the serialized query
type SearchCache struct {
	mu       sync.RWMutex
	items    map[string]entry
	ttl      time.Duration
	maxItems int
	now      func() time.Time
}

func NewSearchCache(ttl time.Duration, maxItems int) *SearchCache {
	if maxItems <= 0 {
		maxItems = 1000
	}
	return &SearchCache{
		items:    make(map[string]entry),
		ttl:      ttl,
		maxItems: maxItems,
		now:      time.Now,
	}
}

func cacheKey(query domain.SearchQuery) (string, bool) {
	b, err := json.Marshal(query)
	if err != nil {
		return "", false
	}
	return string(b), true
}

func (c *SearchCache) Get(ctx context.Context, query domain.SearchQuery) (*domain.RankedPage, bool) {
	key, ok := cacheKey(query)
	if !ok {
		return nil, false
	}

	c.mu.RLock()
	e, found := c.items[key]
	c.mu.RUnlock()

	if !found || !c.now().Before(e.expiresAt) {
		metrics.SearchCacheMisses.Inc()
		return nil, false
	}
	metrics.SearchCacheHits.Inc()
	return e.page, true
}

func (c *SearchCache) Set(ctx context.Context, query domain.SearchQuery, page *domain.RankedPage) {
	if c.ttl <= 0 || page == nil {
		return
	}
	key, ok := cacheKey(query)
	if !ok {
		contextkeys.LoggerFromContext(ctx).Warn("Search query is not serializable, skipping cache", nil)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxItems {
		c.evictLocked(now)
	}
	c.items[key] = entry{page: page, expiresAt: now.Add(c.ttl)}
	metrics.SearchCacheEntries.Set(float64(len(c.items)))
}

// evictLocked drops expired entries, then the entry closest to expiry if
// the cache is still full.
func (c *SearchCache) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
			continue
		}
		if oldestKey == "" || e.expiresAt.Before(oldest) {
			oldestKey, oldest = k, e.expiresAt
		}
	}
	if len(c.items) >= c.maxItems && oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

// Invalidate drops everything; called after writes that change results.
func (c *SearchCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.items = make(map[string]entry)
	c.mu.Unlock()
	metrics.SearchCacheEntries.Set(0)
}

// Len reports the number of stored entries, expired ones included.
func (c *SearchCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
