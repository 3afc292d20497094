package usecase

import (
	"context"
	"errors"
	"strings"

	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/analytics"
	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"
)

type GetMarketSummaryUseCase struct {
	storage   port.MarketStoragePort
	minSample int
}

func NewGetMarketSummaryUseCase(storage port.MarketStoragePort, minSample int) *GetMarketSummaryUseCase {
	if minSample <= 0 {
		minSample = 3
	}
	return &GetMarketSummaryUseCase{storage: storage, minSample: minSample}
}

// Execute aggregates a market on demand. Series below the minimum sample size
// are reported as nil instead of as unreliable statistics.
func (uc *GetMarketSummaryUseCase) Execute(ctx context.Context, query domain.MarketQuery) (*domain.MarketSummary, error) {
	query.State = strings.ToUpper(strings.TrimSpace(query.State))
	query.City = strings.TrimSpace(query.City)
	query.ZipCode = strings.TrimSpace(query.ZipCode)
	if query.State == "" {
		return nil, &domain.MissingFilterError{Field: "state"}
	}

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "GetMarketSummary",
		"state":    query.State,
		"city":     query.City,
	})

	ucLogger.Info("Use case started", nil)

	samples, err := uc.storage.ListMarketSamples(ctx, query)
	if err != nil {
		ucLogger.Error("Storage returned an error", err, nil)
		return nil, err
	}

	ratios := make([]float64, 0, len(samples))
	prices := make([]float64, 0, len(samples))
	rents := make([]float64, 0, len(samples))
	for _, s := range samples {
		prices = append(prices, float64(s.ListPrice))
		if s.Ratio != nil {
			ratios = append(ratios, *s.Ratio)
		}
		if s.MonthlyRent != nil {
			rents = append(rents, float64(*s.MonthlyRent))
		}
	}

	summary := &domain.MarketSummary{
		Query:             query,
		SampleSize:        len(samples),
		MinimumSampleSize: uc.minSample,
	}
	for _, series := range []struct {
		values []float64
		dst    **domain.StatSummary
	}{
		{ratios, &summary.Ratio},
		{prices, &summary.ListPrice},
		{rents, &summary.MonthlyRent},
	} {
		s, err := analytics.SummarizeMinimum(series.values, uc.minSample)
		if err != nil && !errors.Is(err, domain.ErrInsufficientData) {
			return nil, err
		}
		*series.dst = s
	}

	ucLogger.Info("Use case finished successfully", port.Fields{
		"sample_size": summary.SampleSize,
		"sufficient":  summary.Sufficient(),
	})
	return summary, nil
}
