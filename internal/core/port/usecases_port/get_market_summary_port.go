package usecases_port

import (
	"context"

	"analytics-service/internal/core/domain"
)

type GetMarketSummaryUseCase interface {
	Execute(ctx context.Context, query domain.MarketQuery) (*domain.MarketSummary, error)
}
