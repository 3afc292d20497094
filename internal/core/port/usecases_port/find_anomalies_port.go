package usecases_port

import (
	"context"

	"analytics-service/internal/core/domain"
)

type FindAnomaliesUseCase interface {
	Execute(ctx context.Context, criteria domain.AnomalyCriteria) (*domain.AnomalyResult, error)
}
