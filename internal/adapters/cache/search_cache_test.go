package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"analytics-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(ttl time.Duration, maxItems int) (*SearchCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewSearchCache(ttl, maxItems)
	c.now = clock.now
	return c, clock
}

func query(zip string) domain.SearchQuery {
	return domain.SearchQuery{Filter: domain.SearchFilter{ZipCode: zip}, Sort: domain.DefaultSort, Page: domain.Page{Limit: 50}}
}

func TestSearchCache_HitAndExpiry(t *testing.T) {
	c, clock := newTestCache(30*time.Second, 10)
	ctx := context.Background()
	page := &domain.RankedPage{Total: 3}

	_, ok := c.Get(ctx, query("62701"))
	assert.False(t, ok)

	c.Set(ctx, query("62701"), page)
	got, ok := c.Get(ctx, query("62701"))
	require.True(t, ok)
	assert.Same(t, page, got)

	_, ok = c.Get(ctx, query("62702"))
	assert.False(t, ok, "different filters are a different key")

	clock.advance(30 * time.Second)
	_, ok = c.Get(ctx, query("62701"))
	assert.False(t, ok)
}

func TestSearchCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(time.Minute, 10)
	ctx := context.Background()

	c.Set(ctx, query("a"), &domain.RankedPage{})
	c.Set(ctx, query("b"), &domain.RankedPage{})
	require.Equal(t, 2, c.Len())

	c.Invalidate(ctx)
	assert.Zero(t, c.Len())
	_, ok := c.Get(ctx, query("a"))
	assert.False(t, ok)
}

func TestSearchCache_EvictsWhenFull(t *testing.T) {
	c, clock := newTestCache(time.Minute, 2)
	ctx := context.Background()

	c.Set(ctx, query("first"), &domain.RankedPage{})
	clock.advance(time.Second)
	c.Set(ctx, query("second"), &domain.RankedPage{})
	clock.advance(time.Second)
	c.Set(ctx, query("third"), &domain.RankedPage{})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(ctx, query("first"))
	assert.False(t, ok)
	_, ok = c.Get(ctx, query("third"))
	assert.True(t, ok)
}

func TestSearchCache_ZeroTTLDisables(t *testing.T) {
	c, _ := newTestCache(0, 10)
	c.Set(context.Background(), query("a"), &domain.RankedPage{})
	assert.Zero(t, c.Len())
}

func TestSearchCache_ConcurrentAccess(t *testing.T) {
	c, _ := newTestCache(time.Minute, 50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q := query(string(rune('a' + (i+j)%26)))
				c.Set(ctx, q, &domain.RankedPage{Total: j})
				c.Get(ctx, q)
				if j%25 == 0 {
					c.Invalidate(ctx)
				}
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 50)
}
