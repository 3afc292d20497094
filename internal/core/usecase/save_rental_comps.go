package usecase

import (
	"context"
	"fmt"

	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"
)

type SaveRentalCompsUseCase struct {
	storage port.ListingStoragePort
}

func NewSaveRentalCompsUseCase(storage port.ListingStoragePort) *SaveRentalCompsUseCase {
	return &SaveRentalCompsUseCase{storage: storage}
}

func (uc *SaveRentalCompsUseCase) Execute(ctx context.Context, comps []domain.RentalComp) (int, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":     "SaveRentalComps",
		"record_count": len(comps),
	})

	valid := make([]domain.RentalComp, 0, len(comps))
	for _, c := range comps {
		if c.ExternalID == "" || c.DataSource == "" || c.MonthlyRent <= 0 {
			ucLogger.Warn("Skipping invalid rental comp", port.Fields{"external_id": c.ExternalID, "source": c.DataSource})
			continue
		}
		c.City = normalizeCity(c.City)
		c.State = normalizeState(c.State)
		c.PropertyType = normalizePropertyType(c.PropertyType)
		valid = append(valid, c)
	}

	saved, err := uc.storage.UpsertRentalComps(ctx, valid)
	if err != nil {
		ucLogger.Error("Storage returned an error during rental comp save", err, nil)
		return 0, fmt.Errorf("failed to save %d rental comps: %w", len(valid), err)
	}

	ucLogger.Info("Use case finished", port.Fields{"saved": saved, "skipped": len(comps) - len(valid)})
	return saved, nil
}
