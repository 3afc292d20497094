package usecases_port

import (
	"context"

	"analytics-service/internal/core/domain"
)

type ExportPropertiesUseCase interface {
	Execute(ctx context.Context, req domain.ExportRequest) (*domain.ExportReport, error)
}
