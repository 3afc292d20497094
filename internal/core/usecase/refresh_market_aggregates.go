package usecase

import (
	"context"
	"sort"
	"time"

	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/analytics"
	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"
)

type RefreshMarketAggregatesUseCase struct {
	storage port.MarketStoragePort
	cache   port.SearchCachePort
	now     func() time.Time
}

func NewRefreshMarketAggregatesUseCase(storage port.MarketStoragePort, cache port.SearchCachePort) *RefreshMarketAggregatesUseCase {
	return &RefreshMarketAggregatesUseCase{storage: storage, cache: cacheOrNoop(cache), now: time.Now}
}

// Execute rebuilds every (zip, bedrooms) aggregate from the active listings
// and returns the number of groups. Small groups are stored too; the search
// join decides how many peers are enough.
func (uc *RefreshMarketAggregatesUseCase) Execute(ctx context.Context) (int, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "RefreshMarketAggregates"})

	ucLogger.Debug("Use case started", nil)

	samples, err := uc.storage.ListPeerSamples(ctx)
	if err != nil {
		ucLogger.Error("Storage returned an error while listing peers", err, nil)
		return 0, err
	}

	aggregates := buildAggregates(samples, uc.now().UTC())

	if err := uc.storage.ReplaceMarketAggregates(ctx, aggregates); err != nil {
		ucLogger.Error("Storage returned an error while replacing aggregates", err, nil)
		return 0, err
	}
	uc.cache.Invalidate(ctx)

	ucLogger.Info("Market aggregates refreshed", port.Fields{"groups": len(aggregates), "samples": len(samples)})
	return len(aggregates), nil
}

type peerGroupValues struct {
	ratios []float64
	prices []float64
	rents  []float64
}

func buildAggregates(samples []domain.PeerSample, refreshedAt time.Time) []domain.MarketAggregate {
	groups := make(map[domain.PeerGroupKey]*peerGroupValues)
	for _, s := range samples {
		if s.Ratio == nil {
			continue
		}
		g, ok := groups[s.Key]
		if !ok {
			g = &peerGroupValues{}
			groups[s.Key] = g
		}
		g.ratios = append(g.ratios, *s.Ratio)
		g.prices = append(g.prices, float64(s.ListPrice))
		if s.MonthlyRent != nil {
			g.rents = append(g.rents, float64(*s.MonthlyRent))
		}
	}

	out := make([]domain.MarketAggregate, 0, len(groups))
	for key, g := range groups {
		stats, err := analytics.Summarize(g.ratios)
		if err != nil {
			continue
		}
		agg := domain.MarketAggregate{
			Key:         key,
			SampleSize:  stats.Count,
			MeanRatio:   stats.Mean,
			MedianRatio: stats.Median,
			P25Ratio:    stats.P25,
			P75Ratio:    stats.P75,
			RefreshedAt: refreshedAt,
		}
		if m, err := analytics.Median(g.prices); err == nil {
			agg.MedianListPrice = int64(m + 0.5)
		}
		if m, err := analytics.Median(g.rents); err == nil {
			agg.MedianMonthlyRent = int64(m + 0.5)
		}
		out = append(out, agg)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.ZipCode != out[j].Key.ZipCode {
			return out[i].Key.ZipCode < out[j].Key.ZipCode
		}
		return out[i].Key.Bedrooms < out[j].Key.Bedrooms
	})
	return out
}
