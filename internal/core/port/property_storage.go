package port

import (
	"context"
	"time"

	"analytics-service/internal/core/domain"

	"github.com/google/uuid"
)

// PropertySearchPort - read side used by the search, details and export flows
type PropertySearchPort interface {
	FindWithFilters(ctx context.Context, query domain.SearchQuery) (*domain.PaginatedProperties, error)
	GetPropertyByID(ctx context.Context, id uuid.UUID) (*domain.PropertyRow, error)
	FindComparables(ctx context.Context, subject domain.Property, limit int) ([]domain.PropertyRow, error)
	GetPeerRatios(ctx context.Context, key domain.PeerGroupKey) ([]float64, error)
	GetRentalCompRents(ctx context.Context, key domain.PeerGroupKey) ([]int64, error)
}

// MarketStoragePort - market aggregates, materialized and on demand
type MarketStoragePort interface {
	ListPeerSamples(ctx context.Context) ([]domain.PeerSample, error)
	ReplaceMarketAggregates(ctx context.Context, aggregates []domain.MarketAggregate) error
	GetMarketAggregates(ctx context.Context, keys []domain.PeerGroupKey) (map[domain.PeerGroupKey]domain.MarketAggregate, error)
	ListMarketSamples(ctx context.Context, query domain.MarketQuery) ([]domain.PeerSample, error)
}

// ListingStoragePort - write side used by ingestion and maintenance
type ListingStoragePort interface {
	// UpsertListings inserts or updates on (data_source, external_id) and
	// returns the stored rows with ids assigned
	UpsertListings(ctx context.Context, listings []domain.Property) ([]domain.Property, *domain.BatchUpsertStats, error)
	UpsertRentalComps(ctx context.Context, comps []domain.RentalComp) (int, error)
	DeactivateStale(ctx context.Context, olderThan time.Time) (int64, error)
}
