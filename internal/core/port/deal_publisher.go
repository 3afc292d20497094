package port

import (
	"context"

	"analytics-service/internal/core/domain"
)

// DealPublisherPort - outbound notification of newly exceptional deals
type DealPublisherPort interface {
	PublishDealFlagged(ctx context.Context, flag domain.DealFlag) error
}
