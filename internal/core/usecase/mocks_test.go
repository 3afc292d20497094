package usecase

import (
	"context"
	"time"

	"analytics-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockSearchStorage struct {
	mock.Mock
}

func (m *mockSearchStorage) FindWithFilters(ctx context.Context, query domain.SearchQuery) (*domain.PaginatedProperties, error) {
	args := m.Called(ctx, query)
	res, _ := args.Get(0).(*domain.PaginatedProperties)
	return res, args.Error(1)
}

func (m *mockSearchStorage) GetPropertyByID(ctx context.Context, id uuid.UUID) (*domain.PropertyRow, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*domain.PropertyRow)
	return res, args.Error(1)
}

func (m *mockSearchStorage) FindComparables(ctx context.Context, subject domain.Property, limit int) ([]domain.PropertyRow, error) {
	args := m.Called(ctx, subject, limit)
	res, _ := args.Get(0).([]domain.PropertyRow)
	return res, args.Error(1)
}

func (m *mockSearchStorage) GetPeerRatios(ctx context.Context, key domain.PeerGroupKey) ([]float64, error) {
	args := m.Called(ctx, key)
	res, _ := args.Get(0).([]float64)
	return res, args.Error(1)
}

func (m *mockSearchStorage) GetRentalCompRents(ctx context.Context, key domain.PeerGroupKey) ([]int64, error) {
	args := m.Called(ctx, key)
	res, _ := args.Get(0).([]int64)
	return res, args.Error(1)
}

type mockMarketStorage struct {
	mock.Mock
}

func (m *mockMarketStorage) ListPeerSamples(ctx context.Context) ([]domain.PeerSample, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).([]domain.PeerSample)
	return res, args.Error(1)
}

func (m *mockMarketStorage) ReplaceMarketAggregates(ctx context.Context, aggregates []domain.MarketAggregate) error {
	return m.Called(ctx, aggregates).Error(0)
}

func (m *mockMarketStorage) GetMarketAggregates(ctx context.Context, keys []domain.PeerGroupKey) (map[domain.PeerGroupKey]domain.MarketAggregate, error) {
	args := m.Called(ctx, keys)
	res, _ := args.Get(0).(map[domain.PeerGroupKey]domain.MarketAggregate)
	return res, args.Error(1)
}

func (m *mockMarketStorage) ListMarketSamples(ctx context.Context, query domain.MarketQuery) ([]domain.PeerSample, error) {
	args := m.Called(ctx, query)
	res, _ := args.Get(0).([]domain.PeerSample)
	return res, args.Error(1)
}

type mockListingStorage struct {
	mock.Mock
}

func (m *mockListingStorage) UpsertListings(ctx context.Context, listings []domain.Property) ([]domain.Property, *domain.BatchUpsertStats, error) {
	args := m.Called(ctx, listings)
	stored, _ := args.Get(0).([]domain.Property)
	if fn, ok := args.Get(0).(func([]domain.Property) []domain.Property); ok {
		stored = fn(listings)
	}
	stats, _ := args.Get(1).(*domain.BatchUpsertStats)
	return stored, stats, args.Error(2)
}

func (m *mockListingStorage) UpsertRentalComps(ctx context.Context, comps []domain.RentalComp) (int, error) {
	args := m.Called(ctx, comps)
	return args.Int(0), args.Error(1)
}

func (m *mockListingStorage) DeactivateStale(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishDealFlagged(ctx context.Context, flag domain.DealFlag) error {
	return m.Called(ctx, flag).Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, query domain.SearchQuery) (*domain.RankedPage, bool) {
	args := m.Called(ctx, query)
	res, _ := args.Get(0).(*domain.RankedPage)
	return res, args.Bool(1)
}

func (m *mockCache) Set(ctx context.Context, query domain.SearchQuery, page *domain.RankedPage) {
	m.Called(ctx, query, page)
}

func (m *mockCache) Invalidate(ctx context.Context) {
	m.Called(ctx)
}

type refresherFunc func(ctx context.Context) (int, error)

func (f refresherFunc) Execute(ctx context.Context) (int, error) { return f(ctx) }

func ptr[T any](v T) *T { return &v }
