package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/analytics"
	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"
)

// MarketRefresher rebuilds market aggregates after a batch.
type MarketRefresher interface {
	Execute(ctx context.Context) (int, error)
}

// SaveListingsDeps - collaborators of the ingest flow; Publisher and Cache may be nil
type SaveListingsDeps struct {
	Listings  port.ListingStoragePort
	Search    port.PropertySearchPort
	Market    port.MarketStoragePort
	Refresher MarketRefresher
	Ranker    *analytics.Ranker
	Publisher port.DealPublisherPort
	Cache     port.SearchCachePort
	// MinRentComps - rental comps needed to estimate a missing rent
	MinRentComps int
}

// SaveListingsUseCase: normalize, fill missing rent, compute metrics, upsert,
// refresh aggregates, flag exceptional deals.
type SaveListingsUseCase struct {
	deps SaveListingsDeps
	now  func() time.Time
}

func NewSaveListingsUseCase(deps SaveListingsDeps) *SaveListingsUseCase {
	if deps.MinRentComps <= 0 {
		deps.MinRentComps = DefaultDetailsOptions.MinRentComps
	}
	deps.Cache = cacheOrNoop(deps.Cache)
	return &SaveListingsUseCase{deps: deps, now: time.Now}
}

func (uc *SaveListingsUseCase) Execute(ctx context.Context, records []domain.ListingRecord) (*domain.BatchUpsertStats, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":     "SaveListings",
		"record_count": len(records),
	})

	ucLogger.Info("Use case started: attempting to batch save listings", nil)

	properties, estimated, err := uc.prepare(ctx, ucLogger, records)
	if err != nil {
		return nil, err
	}

	stored, stats, err := uc.deps.Listings.UpsertListings(ctx, properties)
	if err != nil {
		ucLogger.Error("Storage returned an error during batch save", err, nil)
		return nil, fmt.Errorf("failed to save %d listings: %w", len(properties), err)
	}
	stats.RentEstimated = estimated
	uc.deps.Cache.Invalidate(ctx)

	// Сохранение уже прошло: ошибки ниже логируем, но не возвращаем,
	// иначе батч уйдет на повторную обработку.
	if uc.deps.Refresher != nil {
		if _, err := uc.deps.Refresher.Execute(ctx); err != nil {
			ucLogger.Error("Failed to refresh market aggregates after save", err, nil)
		}
	}

	flagged, err := uc.flagDeals(ctx, ucLogger, stored)
	if err != nil {
		ucLogger.Error("Failed to evaluate saved listings", err, nil)
	}
	stats.Flagged = flagged

	ucLogger.Info("Use case finished", port.Fields{
		"created":        stats.Created,
		"updated":        stats.Updated,
		"rent_estimated": stats.RentEstimated,
		"flagged":        stats.Flagged,
	})
	return stats, nil
}

// prepare turns records into properties with freshly computed metrics.
func (uc *SaveListingsUseCase) prepare(ctx context.Context, ucLogger port.LoggerPort, records []domain.ListingRecord) ([]domain.Property, int, error) {
	rentsByGroup := make(map[domain.PeerGroupKey]*int64)
	properties := make([]domain.Property, 0, len(records))
	estimated := 0

	for _, r := range records {
		if r.ExternalID == "" || r.DataSource == "" || r.ListPrice <= 0 {
			ucLogger.Warn("Skipping invalid listing", port.Fields{"external_id": r.ExternalID, "source": r.DataSource})
			continue
		}

		p := domain.Property{
			ExternalID:   r.ExternalID,
			DataSource:   r.DataSource,
			Street:       strings.TrimSpace(r.Street),
			City:         normalizeCity(r.City),
			State:        normalizeState(r.State),
			ZipCode:      strings.TrimSpace(r.ZipCode),
			Latitude:     r.Latitude,
			Longitude:    r.Longitude,
			Bedrooms:     r.Bedrooms,
			Bathrooms:    r.Bathrooms,
			SquareFeet:   r.SquareFeet,
			PropertyType: normalizePropertyType(r.PropertyType),
			ListPrice:    r.ListPrice,
			MonthlyRent:  r.MonthlyRent,
			LastUpdated:  r.SeenAt,
		}
		if p.MonthlyRent != nil && *p.MonthlyRent <= 0 {
			p.MonthlyRent = nil
		}

		if p.MonthlyRent == nil {
			key := domain.PeerGroupKey{ZipCode: p.ZipCode, Bedrooms: p.Bedrooms}
			rent, ok := rentsByGroup[key]
			if !ok {
				rents, err := uc.deps.Search.GetRentalCompRents(ctx, key)
				if err != nil {
					ucLogger.Error("Failed to load rental comps for rent estimate", err, nil)
					return nil, 0, fmt.Errorf("failed to estimate rent for %s/%d: %w", key.ZipCode, key.Bedrooms, err)
				}
				if est := estimateRent(rents, uc.deps.MinRentComps); est.Sufficient {
					rent = est.MedianRent
				}
				rentsByGroup[key] = rent
			}
			if rent != nil {
				v := *rent
				p.MonthlyRent = &v
				estimated++
			}
		}

		m := analytics.ComputeMetrics(p.ListPrice, p.MonthlyRent)
		p.PriceToRentRatio = m.PriceToRentRatio
		p.CapRate = m.CapRate
		properties = append(properties, p)
	}
	return properties, estimated, nil
}

// flagDeals ranks the stored rows against current aggregates and publishes
// every exceptional one.
func (uc *SaveListingsUseCase) flagDeals(ctx context.Context, ucLogger port.LoggerPort, stored []domain.Property) (int, error) {
	if len(stored) == 0 {
		return 0, nil
	}

	keys := make([]domain.PeerGroupKey, 0, len(stored))
	for _, p := range stored {
		keys = append(keys, domain.PeerGroupKey{ZipCode: p.ZipCode, Bedrooms: p.Bedrooms})
	}
	aggregates, err := uc.deps.Market.GetMarketAggregates(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("failed to load market aggregates: %w", err)
	}

	flagged := 0
	now := uc.now().UTC()
	for _, p := range stored {
		row := domain.PropertyRow{Property: p}
		if agg, ok := aggregates[domain.PeerGroupKey{ZipCode: p.ZipCode, Bedrooms: p.Bedrooms}]; ok {
			row.Market = agg.Context()
		}
		ranked := uc.deps.Ranker.Rank(row)
		if !ranked.IsExceptionalDeal {
			continue
		}
		flagged++

		if uc.deps.Publisher == nil {
			continue
		}
		flag := domain.DealFlag{
			PropertyID:           ranked.ID,
			ExternalID:           ranked.ExternalID,
			DataSource:           ranked.DataSource,
			ZipCode:              ranked.ZipCode,
			Bedrooms:             ranked.Bedrooms,
			ListPrice:            ranked.ListPrice,
			MonthlyRent:          ranked.MonthlyRent,
			PriceToRentRatio:     ranked.PriceToRentRatio,
			RatioVsMarketPercent: ranked.RatioVsMarketPercent,
			Score:                ranked.Score,
			FlaggedAt:            now,
		}
		if err := uc.deps.Publisher.PublishDealFlagged(ctx, flag); err != nil {
			ucLogger.Error("Failed to publish deal flag", err, port.Fields{"property_id": ranked.ID.String()})
		}
	}
	return flagged, nil
}
