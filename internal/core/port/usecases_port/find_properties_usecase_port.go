package usecases_port

import (
	"context"

	"analytics-service/internal/core/domain"
)

type FindPropertiesUseCase interface {
	Execute(ctx context.Context, query domain.SearchQuery) (*domain.RankedPage, error)
}
