package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"

	"github.com/google/uuid"
	"github.com/mmcloughlin/geohash"
)

const geohashPrecision = 7

const upsertPropertySQL = `INSERT INTO properties (
		id, external_id, data_source, street, city, state, zip_code, latitude, longitude, geohash,
		bedrooms, bathrooms, square_feet, property_type, list_price, monthly_rent,
		price_to_rent_ratio, cap_rate, created_at, last_updated, is_active
	) VALUES (%s, TRUE)
	ON CONFLICT (data_source, external_id) DO UPDATE SET
		street = excluded.street,
		city = excluded.city,
		state = excluded.state,
		zip_code = excluded.zip_code,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		geohash = excluded.geohash,
		bedrooms = excluded.bedrooms,
		bathrooms = excluded.bathrooms,
		square_feet = excluded.square_feet,
		property_type = excluded.property_type,
		list_price = excluded.list_price,
		monthly_rent = excluded.monthly_rent,
		price_to_rent_ratio = excluded.price_to_rent_ratio,
		cap_rate = excluded.cap_rate,
		last_updated = excluded.last_updated,
		is_active = TRUE
	RETURNING id`

const upsertRentalCompSQL = `INSERT INTO rental_comps (
		id, external_id, data_source, street, city, state, zip_code, latitude, longitude,
		bedrooms, bathrooms, square_feet, property_type, monthly_rent, observed_at
	) VALUES (%s)
	ON CONFLICT (data_source, external_id) DO UPDATE SET
		street = excluded.street,
		city = excluded.city,
		state = excluded.state,
		zip_code = excluded.zip_code,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		bedrooms = excluded.bedrooms,
		bathrooms = excluded.bathrooms,
		square_feet = excluded.square_feet,
		property_type = excluded.property_type,
		monthly_rent = excluded.monthly_rent,
		observed_at = excluded.observed_at`

func placeholderList(d Dialect, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = d.Placeholder(i + 1)
	}
	return strings.Join(ph, ", ")
}

// cellFor returns the precision-7 geohash of a coordinate pair, nil without one.
func cellFor(lat, lon *float64) *string {
	if lat == nil || lon == nil {
		return nil
	}
	cell := geohash.EncodeWithPrecision(*lat, *lon, geohashPrecision)
	return &cell
}

// UpsertListings inserts or updates on (data_source, external_id). Metrics on
// the input are stored as given; the caller recomputes them.
func (r *Repository) UpsertListings(ctx context.Context, listings []domain.Property) ([]domain.Property, *domain.BatchUpsertStats, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "sqlstore.Repository",
		"method":    "UpsertListings",
	})

	stats := &domain.BatchUpsertStats{}
	if len(listings) == 0 {
		return []domain.Property{}, stats, nil
	}

	sql := fmt.Sprintf(upsertPropertySQL, placeholderList(r.exec.Dialect(), 20))
	now := nowUTC()
	stored := make([]domain.Property, 0, len(listings))

	err := r.exec.InTx(ctx, func(tx Executor) error {
		for _, p := range listings {
			candidateID := uuid.New()
			seen := p.LastUpdated.UTC().Truncate(time.Microsecond)
			if p.LastUpdated.IsZero() {
				seen = now
			}
			p.Geohash = cellFor(p.Latitude, p.Longitude)

			var id uuid.UUID
			err := tx.QueryRow(ctx, sql,
				candidateID, p.ExternalID, p.DataSource, p.Street, p.City, p.State, p.ZipCode,
				p.Latitude, p.Longitude, p.Geohash, p.Bedrooms, p.Bathrooms, p.SquareFeet, string(p.PropertyType),
				p.ListPrice, p.MonthlyRent, p.PriceToRentRatio, p.CapRate, now, seen,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("failed to upsert listing %s/%s: %w", p.DataSource, p.ExternalID, err)
			}

			// an update keeps the stored id
			if id == candidateID {
				stats.Created++
				p.CreatedAt = now
			} else {
				stats.Updated++
			}
			p.ID = id
			p.LastUpdated = seen
			p.IsActive = true
			stored = append(stored, p)
		}
		return nil
	})
	if err != nil {
		logger.Error("Listing batch upsert failed", err, port.Fields{"batch_size": len(listings)})
		return nil, nil, err
	}

	logger.Info("Listing batch upserted", port.Fields{"created": stats.Created, "updated": stats.Updated})
	return stored, stats, nil
}

// UpsertRentalComps stores rental observations, keyed like listings.
func (r *Repository) UpsertRentalComps(ctx context.Context, comps []domain.RentalComp) (int, error) {
	if len(comps) == 0 {
		return 0, nil
	}
	sql := fmt.Sprintf(upsertRentalCompSQL, placeholderList(r.exec.Dialect(), 15))
	now := nowUTC()

	saved := 0
	err := r.exec.InTx(ctx, func(tx Executor) error {
		for _, c := range comps {
			observed := c.ObservedAt.UTC().Truncate(time.Microsecond)
			if c.ObservedAt.IsZero() {
				observed = now
			}
			_, err := tx.Exec(ctx, sql,
				uuid.New(), c.ExternalID, c.DataSource, c.Street, c.City, c.State, c.ZipCode, c.Latitude, c.Longitude,
				c.Bedrooms, c.Bathrooms, c.SquareFeet, string(c.PropertyType), c.MonthlyRent, observed,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert rental comp %s/%s: %w", c.DataSource, c.ExternalID, err)
			}
			saved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return saved, nil
}

// DeactivateStale soft-deletes active listings not seen since olderThan.
func (r *Repository) DeactivateStale(ctx context.Context, olderThan time.Time) (int64, error) {
	d := r.exec.Dialect()
	sql := fmt.Sprintf(`UPDATE properties SET is_active = FALSE
		WHERE is_active = TRUE AND last_updated < %s`, d.Placeholder(1))

	n, err := r.exec.Exec(ctx, sql, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate stale listings: %w", err)
	}
	return n, nil
}
