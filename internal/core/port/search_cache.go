package port

import (
	"context"

	"analytics-service/internal/core/domain"
)

// SearchCachePort - optional memoization of ranked search pages keyed by the
// serialized query. Absence or misses must never change results.
type SearchCachePort interface {
	Get(ctx context.Context, query domain.SearchQuery) (*domain.RankedPage, bool)
	Set(ctx context.Context, query domain.SearchQuery, page *domain.RankedPage)
	Invalidate(ctx context.Context)
}
