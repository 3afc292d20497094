package usecase

import (
	"context"
	"testing"

	"analytics-service/internal/core/analytics"
	"analytics-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var anomalyPolicy = domain.PagePolicy{DefaultLimit: 20, MaxLimit: 100}

func TestFindAnomalies_DefaultsToRelativeThreshold(t *testing.T) {
	storage := new(mockSearchStorage)
	uc := NewFindAnomaliesUseCase(storage, analytics.NewRanker(analytics.DefaultThresholds, analytics.DefaultScoring), anomalyPolicy)

	storage.On("FindWithFilters", mock.Anything, mock.MatchedBy(func(q domain.SearchQuery) bool {
		return q.Filter.MarketImprovementMin != nil && *q.Filter.MarketImprovementMin == 10 &&
			q.Filter.ZipCode == "62701" &&
			q.Sort == domain.Sort{Field: domain.SortByRatioVsMarket, Direction: domain.SortDesc} &&
			q.Page == domain.Page{Limit: 20}
	})).Return(&domain.PaginatedProperties{
		Rows: []domain.PropertyRow{
			{Property: domain.Property{ListPrice: 20000000, PriceToRentRatio: ptr(0.9)}, Market: fivePeerMarket()},
			{Property: domain.Property{ListPrice: 20000000, PriceToRentRatio: ptr(0.8)}, Market: fivePeerMarket()},
		},
		Total: 2,
		Page:  domain.Page{Limit: 20},
	}, nil)

	res, err := uc.Execute(context.Background(), domain.AnomalyCriteria{ZipCode: "62701"})
	require.NoError(t, err)

	require.Len(t, res.Anomalies, 2)
	assert.Equal(t, 0.9, *res.Anomalies[0].PriceToRentRatio)
	assert.Equal(t, 10.0, *res.Criteria.MinImprovement)
	assert.Equal(t, 20, res.Criteria.Limit)
	storage.AssertExpectations(t)
}

func TestFindAnomalies_CustomCriteria(t *testing.T) {
	storage := new(mockSearchStorage)
	uc := NewFindAnomaliesUseCase(storage, analytics.NewRanker(analytics.DefaultThresholds, analytics.DefaultScoring), anomalyPolicy)

	maxPrice := int64(25000000)
	storage.On("FindWithFilters", mock.Anything, mock.MatchedBy(func(q domain.SearchQuery) bool {
		return *q.Filter.MarketImprovementMin == 25 && *q.Filter.PriceMax == maxPrice && q.Page.Limit == 100
	})).Return(&domain.PaginatedProperties{
		Rows: []domain.PropertyRow{
			// no market context: dropped
			{Property: domain.Property{ListPrice: 20000000, PriceToRentRatio: ptr(0.9)}},
		},
		Total: 1,
	}, nil)

	res, err := uc.Execute(context.Background(), domain.AnomalyCriteria{MinImprovement: ptr(25.0), MaxPrice: &maxPrice, Limit: 1000})
	require.NoError(t, err)
	assert.Empty(t, res.Anomalies)
	assert.Equal(t, 100, res.Criteria.Limit)
}
