package usecase

import (
	"context"

	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/analytics"
	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"
)

type FindPropertiesUseCase struct {
	storage port.PropertySearchPort
	ranker  *analytics.Ranker
	cache   port.SearchCachePort
	page    domain.PagePolicy
}

// NewFindPropertiesUseCase: cache may be nil.
func NewFindPropertiesUseCase(storage port.PropertySearchPort, ranker *analytics.Ranker, cache port.SearchCachePort, page domain.PagePolicy) *FindPropertiesUseCase {
	return &FindPropertiesUseCase{
		storage: storage,
		ranker:  ranker,
		cache:   cacheOrNoop(cache),
		page:    page,
	}
}

func (uc *FindPropertiesUseCase) Execute(ctx context.Context, query domain.SearchQuery) (*domain.RankedPage, error) {
	query.Page = uc.page.Clamp(query.Page)
	query.Sort = query.Sort.Resolved()

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "FindProperties",
		"sort":     string(query.Sort.Field) + " " + string(query.Sort.Direction),
		"limit":    query.Page.Limit,
		"offset":   query.Page.Offset,
	})

	if cached, ok := uc.cache.Get(ctx, query); ok {
		ucLogger.Debug("Search served from cache", port.Fields{"total_found": cached.Total})
		return cached, nil
	}

	ucLogger.Info("Use case started", nil)

	result, err := uc.storage.FindWithFilters(ctx, query)
	if err != nil {
		ucLogger.Error("Storage returned an error", err, nil)
		return nil, err
	}

	page := &domain.RankedPage{
		Properties: uc.ranker.RankAll(result.Rows),
		Total:      result.Total,
		Page:       result.Page,
		HasMore:    result.HasMore(),
		Filter:     query.Filter,
		Sort:       query.Sort,
	}
	uc.cache.Set(ctx, query, page)

	ucLogger.Info("Use case finished successfully", port.Fields{
		"total_found":   page.Total,
		"items_on_page": len(page.Properties),
	})
	return page, nil
}
