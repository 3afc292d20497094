package usecase

import (
	"context"
	"fmt"

	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/analytics"
	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"

	"github.com/google/uuid"
)

// DetailsOptions - sizes of the secondary sections of a property page
type DetailsOptions struct {
	ComparablesLimit int
	// MinPositionPeers - peers needed before median/percentile are reported
	MinPositionPeers int
	// MinRentComps - rental comps needed before a rent estimate is reported
	MinRentComps int
}

var DefaultDetailsOptions = DetailsOptions{ComparablesLimit: 10, MinPositionPeers: 3, MinRentComps: 3}

type GetPropertyDetailsUseCase struct {
	storage port.PropertySearchPort
	ranker  *analytics.Ranker
	opts    DetailsOptions
}

func NewGetPropertyDetailsUseCase(storage port.PropertySearchPort, ranker *analytics.Ranker, opts DetailsOptions) *GetPropertyDetailsUseCase {
	if opts.ComparablesLimit <= 0 {
		opts.ComparablesLimit = DefaultDetailsOptions.ComparablesLimit
	}
	if opts.MinPositionPeers <= 0 {
		opts.MinPositionPeers = DefaultDetailsOptions.MinPositionPeers
	}
	if opts.MinRentComps <= 0 {
		opts.MinRentComps = DefaultDetailsOptions.MinRentComps
	}
	return &GetPropertyDetailsUseCase{storage: storage, ranker: ranker, opts: opts}
}

func (uc *GetPropertyDetailsUseCase) Execute(ctx context.Context, id uuid.UUID) (*domain.PropertyDetailsView, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":    "GetPropertyDetails",
		"property_id": id.String(),
	})

	ucLogger.Info("Use case started", nil)

	row, err := uc.storage.GetPropertyByID(ctx, id)
	if err != nil {
		ucLogger.Error("Storage returned an error", err, nil)
		return nil, err
	}
	subject := uc.ranker.Rank(*row)
	key := domain.PeerGroupKey{ZipCode: subject.ZipCode, Bedrooms: subject.Bedrooms}

	comparables, err := uc.storage.FindComparables(ctx, row.Property, uc.opts.ComparablesLimit)
	if err != nil {
		ucLogger.Error("Failed to load comparables", err, nil)
		return nil, fmt.Errorf("failed to load comparables: %w", err)
	}

	ratios, err := uc.storage.GetPeerRatios(ctx, key)
	if err != nil {
		ucLogger.Error("Failed to load peer ratios", err, nil)
		return nil, fmt.Errorf("failed to load peer ratios: %w", err)
	}

	rents, err := uc.storage.GetRentalCompRents(ctx, key)
	if err != nil {
		ucLogger.Error("Failed to load rental comps", err, nil)
		return nil, fmt.Errorf("failed to load rental comps: %w", err)
	}

	view := &domain.PropertyDetailsView{
		Property:       subject,
		Comparables:    uc.ranker.RankAll(comparables),
		MarketPosition: marketPosition(subject.PriceToRentRatio, ratios, uc.opts.MinPositionPeers),
		RentEstimate:   estimateRent(rents, uc.opts.MinRentComps),
	}

	ucLogger.Info("Use case finished successfully", port.Fields{
		"comparables": len(view.Comparables),
		"peer_count":  view.MarketPosition.PeerCount,
		"comp_count":  view.RentEstimate.CompCount,
	})
	return view, nil
}

// marketPosition places the subject ratio among its (zip, bedrooms) peers.
func marketPosition(ratio *float64, peers []float64, minPeers int) domain.MarketPosition {
	pos := domain.MarketPosition{PeerCount: len(peers)}
	if len(peers) < minPeers {
		return pos
	}

	sorted := analytics.SortedCopy(peers)
	if median, err := analytics.Percentile(sorted, 50); err == nil {
		pos.MedianRatio = &median
	}
	if ratio != nil {
		if rank, err := analytics.PercentileRank(sorted, *ratio); err == nil {
			pos.PercentileRank = &rank
		}
	}
	return pos
}

// estimateRent returns the median comp rent in cents, rounded to a whole cent.
func estimateRent(rents []int64, minComps int) domain.RentEstimate {
	est := domain.RentEstimate{CompCount: len(rents)}
	if len(rents) < minComps {
		return est
	}
	median, ok := medianCents(rents)
	if !ok {
		return est
	}
	est.MedianRent = &median
	est.Sufficient = true
	return est
}

func medianCents(values []int64) (int64, bool) {
	floats := make([]float64, len(values))
	for i, v := range values {
		floats[i] = float64(v)
	}
	m, err := analytics.Median(floats)
	if err != nil {
		return 0, false
	}
	return int64(m + 0.5), true
}
