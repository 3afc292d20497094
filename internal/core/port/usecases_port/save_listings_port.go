package usecases_port

import (
	"context"

	"analytics-service/internal/core/domain"
)

type SaveListingsUseCase interface {
	Execute(ctx context.Context, records []domain.ListingRecord) (*domain.BatchUpsertStats, error)
}

type SaveRentalCompsUseCase interface {
	Execute(ctx context.Context, comps []domain.RentalComp) (int, error)
}
