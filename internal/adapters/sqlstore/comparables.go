package sqlstore

import (
	"context"
	"fmt"
	"math"
	"sort"

	"analytics-service/internal/core/domain"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// neighbourhood cell size used to widen the comparable pool (~4.9km x 4.9km)
const comparableGeohashPrecision = 5

// FindComparables returns active properties in the subject's peer group or
// geohash neighbourhood, nearest first.
func (r *Repository) FindComparables(ctx context.Context, subject domain.Property, limit int) ([]domain.PropertyRow, error) {
	if limit <= 0 {
		return []domain.PropertyRow{}, nil
	}

	condition := "p.is_active = TRUE AND p.id <> %s AND ((p.zip_code = %s AND p.bedrooms = %s)"
	args := []any{subject.ID, subject.ZipCode, subject.Bedrooms}
	if subject.Geohash != nil && len(*subject.Geohash) >= comparableGeohashPrecision {
		condition += " OR p.geohash LIKE %s"
		args = append(args, (*subject.Geohash)[:comparableGeohashPrecision]+"%")
	}
	condition += ") ORDER BY p.last_updated DESC, p.id ASC LIMIT %s"
	args = append(args, r.opts.ComparableCandidates)

	sql, bound := r.assembler.selectByCondition(condition, args...)

	return read(ctx, r, func(ctx context.Context) ([]domain.PropertyRow, error) {
		rows, err := r.exec.Query(ctx, sql, bound...)
		if err != nil {
			return nil, fmt.Errorf("failed to find comparables: %w", err)
		}
		candidates, err := collectPropertyRows(rows, r.opts.ComparableCandidates)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comparable: %w", err)
		}
		return rankByDistance(subject, candidates, limit), nil
	})
}

func location(p domain.Property) (orb.Point, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return orb.Point{}, false
	}
	return orb.Point{*p.Longitude, *p.Latitude}, true
}

// rankByDistance orders by geodesic distance to the subject (unknown last),
// then by ratio descending, then by id.
func rankByDistance(subject domain.Property, candidates []domain.PropertyRow, limit int) []domain.PropertyRow {
	origin, hasOrigin := location(subject)

	dist := make(map[int]float64, len(candidates))
	for i, c := range candidates {
		dist[i] = math.Inf(1)
		if !hasOrigin {
			continue
		}
		if pt, ok := location(c.Property); ok {
			dist[i] = geo.Distance(origin, pt)
		}
	}

	idx := make([]int, len(candidates))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if dist[ia] != dist[ib] {
			return dist[ia] < dist[ib]
		}
		ra, rb := candidates[ia].Property.PriceToRentRatio, candidates[ib].Property.PriceToRentRatio
		if (ra == nil) != (rb == nil) {
			return ra != nil
		}
		if ra != nil && *ra != *rb {
			return *ra > *rb
		}
		return candidates[ia].Property.ID.String() < candidates[ib].Property.ID.String()
	})

	if len(idx) > limit {
		idx = idx[:limit]
	}
	out := make([]domain.PropertyRow, 0, len(idx))
	for _, i := range idx {
		out = append(out, candidates[i])
	}
	return out
}
