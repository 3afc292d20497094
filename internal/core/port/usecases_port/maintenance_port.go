package usecases_port

import "context"

// RefreshMarketAggregatesUseCase rebuilds peer group statistics
type RefreshMarketAggregatesUseCase interface {
	Execute(ctx context.Context) (int, error)
}

// DeactivateStaleListingsUseCase soft-deletes listings past retention
type DeactivateStaleListingsUseCase interface {
	Execute(ctx context.Context) (int64, error)
}
