package usecase

import (
	"context"
	"time"

	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/port"
)

type DeactivateStaleListingsUseCase struct {
	storage   port.ListingStoragePort
	cache     port.SearchCachePort
	retention time.Duration
	now       func() time.Time
}

func NewDeactivateStaleListingsUseCase(storage port.ListingStoragePort, cache port.SearchCachePort, retention time.Duration) *DeactivateStaleListingsUseCase {
	return &DeactivateStaleListingsUseCase{storage: storage, cache: cacheOrNoop(cache), retention: retention, now: time.Now}
}

// Execute soft-deletes listings not seen within the retention window.
func (uc *DeactivateStaleListingsUseCase) Execute(ctx context.Context) (int64, error) {
	cutoff := uc.now().UTC().Add(-uc.retention)

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "DeactivateStaleListings",
		"cutoff":   cutoff.Format(time.RFC3339),
	})

	n, err := uc.storage.DeactivateStale(ctx, cutoff)
	if err != nil {
		ucLogger.Error("Storage returned an error", err, nil)
		return 0, err
	}
	if n > 0 {
		uc.cache.Invalidate(ctx)
		ucLogger.Info("Stale listings deactivated", port.Fields{"deactivated": n})
	}
	return n, nil
}
