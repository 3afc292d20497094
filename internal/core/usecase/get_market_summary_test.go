package usecase

import (
	"context"
	"testing"

	"analytics-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sample(ratio *float64, price int64, rent *int64) domain.PeerSample {
	return domain.PeerSample{Key: domain.PeerGroupKey{ZipCode: "62701", Bedrooms: 2}, Ratio: ratio, ListPrice: price, MonthlyRent: rent}
}

func TestGetMarketSummary_StateRequired(t *testing.T) {
	storage := new(mockMarketStorage)

	_, err := NewGetMarketSummaryUseCase(storage, 3).Execute(context.Background(), domain.MarketQuery{City: "Springfield", State: "  "})
	assert.ErrorIs(t, err, domain.ErrMissingRequiredFilter)

	var mf *domain.MissingFilterError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, "state", mf.Field)
	storage.AssertNotCalled(t, "ListMarketSamples", mock.Anything, mock.Anything)
}

func TestGetMarketSummary_Stats(t *testing.T) {
	storage := new(mockMarketStorage)
	storage.On("ListMarketSamples", mock.Anything, domain.MarketQuery{State: "IL", City: "Springfield"}).Return([]domain.PeerSample{
		sample(ptr(0.5), 20000000, ptr(int64(100000))),
		sample(ptr(0.6), 20000000, ptr(int64(120000))),
		sample(ptr(0.7), 30000000, ptr(int64(210000))),
		sample(nil, 40000000, nil),
	}, nil)

	summary, err := NewGetMarketSummaryUseCase(storage, 3).Execute(context.Background(), domain.MarketQuery{State: "il", City: " Springfield "})
	require.NoError(t, err)

	assert.True(t, summary.Sufficient())
	assert.Equal(t, 4, summary.SampleSize)
	assert.Equal(t, "IL", summary.Query.State)

	require.NotNil(t, summary.Ratio)
	assert.Equal(t, 3, summary.Ratio.Count)
	assert.Equal(t, 0.6, summary.Ratio.Median)

	require.NotNil(t, summary.ListPrice)
	assert.Equal(t, 4, summary.ListPrice.Count)
	assert.Equal(t, 25000000.0, summary.ListPrice.Median)

	require.NotNil(t, summary.MonthlyRent)
	assert.Equal(t, 120000.0, summary.MonthlyRent.Median)
}

func TestGetMarketSummary_InsufficientSample(t *testing.T) {
	storage := new(mockMarketStorage)
	storage.On("ListMarketSamples", mock.Anything, mock.Anything).Return([]domain.PeerSample{
		sample(ptr(0.5), 20000000, ptr(int64(100000))),
		sample(ptr(0.6), 20000000, ptr(int64(120000))),
	}, nil)

	summary, err := NewGetMarketSummaryUseCase(storage, 3).Execute(context.Background(), domain.MarketQuery{State: "IL"})
	require.NoError(t, err)

	assert.False(t, summary.Sufficient())
	assert.Equal(t, 2, summary.SampleSize)
	assert.Nil(t, summary.Ratio)
	assert.Nil(t, summary.ListPrice)
	assert.Nil(t, summary.MonthlyRent)
}
