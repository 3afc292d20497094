package usecases_port

import (
	"context"

	"analytics-service/internal/core/domain"

	"github.com/google/uuid"
)

type GetPropertyDetailsUseCase interface {
	Execute(ctx context.Context, id uuid.UUID) (*domain.PropertyDetailsView, error)
}
