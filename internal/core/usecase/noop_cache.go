package usecase

import (
	"context"

	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"
)

type noopSearchCache struct{}

func (noopSearchCache) Get(context.Context, domain.SearchQuery) (*domain.RankedPage, bool) {
	return nil, false
}

func (noopSearchCache) Set(context.Context, domain.SearchQuery, *domain.RankedPage) {}

func (noopSearchCache) Invalidate(context.Context) {}

func cacheOrNoop(c port.SearchCachePort) port.SearchCachePort {
	if c == nil {
		return noopSearchCache{}
	}
	return c
}
