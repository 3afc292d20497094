package usecase

import (
	"context"

	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/analytics"
	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"
)

type FindAnomaliesUseCase struct {
	storage port.PropertySearchPort
	ranker  *analytics.Ranker
	page    domain.PagePolicy
}

func NewFindAnomaliesUseCase(storage port.PropertySearchPort, ranker *analytics.Ranker, page domain.PagePolicy) *FindAnomaliesUseCase {
	return &FindAnomaliesUseCase{storage: storage, ranker: ranker, page: page}
}

// Execute lists properties whose ratio beats the peer median by at least
// MinImprovement percent, best first.
func (uc *FindAnomaliesUseCase) Execute(ctx context.Context, criteria domain.AnomalyCriteria) (*domain.AnomalyResult, error) {
	if criteria.MinImprovement == nil {
		threshold := uc.ranker.Thresholds().RelativeMarketPercent
		criteria.MinImprovement = &threshold
	}
	criteria.Limit = uc.page.Clamp(domain.Page{Limit: criteria.Limit}).Limit

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":        "FindAnomalies",
		"min_improvement": *criteria.MinImprovement,
		"zip_code":        criteria.ZipCode,
		"limit":           criteria.Limit,
	})

	ucLogger.Info("Use case started", nil)

	result, err := uc.storage.FindWithFilters(ctx, domain.SearchQuery{
		Filter: domain.SearchFilter{
			ZipCode:              criteria.ZipCode,
			PriceMax:             criteria.MaxPrice,
			MarketImprovementMin: criteria.MinImprovement,
		},
		Sort: domain.Sort{Field: domain.SortByRatioVsMarket, Direction: domain.SortDesc},
		Page: domain.Page{Limit: criteria.Limit},
	})
	if err != nil {
		ucLogger.Error("Storage returned an error", err, nil)
		return nil, err
	}

	// строки без рыночного контекста сюда не попадают: условие на NULL ложно
	anomalies := make([]domain.RankedProperty, 0, len(result.Rows))
	for _, ranked := range uc.ranker.RankAll(result.Rows) {
		if ranked.RatioVsMarketPercent != nil {
			anomalies = append(anomalies, ranked)
		}
	}

	ucLogger.Info("Use case finished successfully", port.Fields{"anomalies": len(anomalies)})
	return &domain.AnomalyResult{Anomalies: anomalies, Criteria: criteria}, nil
}
