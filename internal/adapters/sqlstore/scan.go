package sqlstore

import (
	"time"

	"analytics-service/internal/core/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

// scanPropertyRow reads propertyColumns followed by marketColumns.
func scanPropertyRow(s scanner) (domain.PropertyRow, error) {
	var (
		p            domain.Property
		propertyType string
		sampleSize   *int
		medianRatio  *float64
		p25Ratio     *float64
		p75Ratio     *float64
	)
	err := s.Scan(
		&p.ID, &p.ExternalID, &p.DataSource, &p.Street, &p.City, &p.State, &p.ZipCode,
		&p.Latitude, &p.Longitude, &p.Geohash, &p.Bedrooms, &p.Bathrooms, &p.SquareFeet, &propertyType,
		&p.ListPrice, &p.MonthlyRent, &p.PriceToRentRatio, &p.CapRate, &p.CreatedAt, &p.LastUpdated, &p.IsActive,
		&sampleSize, &medianRatio, &p25Ratio, &p75Ratio,
	)
	if err != nil {
		return domain.PropertyRow{}, err
	}
	p.PropertyType = domain.PropertyType(propertyType)
	p.CreatedAt = p.CreatedAt.UTC()
	p.LastUpdated = p.LastUpdated.UTC()

	row := domain.PropertyRow{Property: p}
	if sampleSize != nil && medianRatio != nil {
		row.Market = &domain.MarketContext{
			SampleSize:  *sampleSize,
			MedianRatio: *medianRatio,
			P25Ratio:    deref(p25Ratio),
			P75Ratio:    deref(p75Ratio),
		}
	}
	return row, nil
}

func collectPropertyRows(rows Rows, capacity int) ([]domain.PropertyRow, error) {
	defer rows.Close()

	out := make([]domain.PropertyRow, 0, capacity)
	for rows.Next() {
		row, err := scanPropertyRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

// nowUTC truncates to microseconds, the Postgres timestamp precision, so
// values read back compare equal to what was written.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
