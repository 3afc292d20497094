package domain

import "time"

// ListingRecord - a listing as received from the ingestion pipeline.
// Derived metrics are never taken from here, the service recomputes them.
type ListingRecord struct {
	ExternalID string
	DataSource string

	Street  string
	City    string
	State   string
	ZipCode string

	Latitude  *float64
	Longitude *float64

	Bedrooms     int
	Bathrooms    float64
	SquareFeet   *int
	PropertyType PropertyType

	ListPrice   int64
	MonthlyRent *int64

	SeenAt time.Time
}

// BatchUpsertStats - outcome of one ingestion batch
type BatchUpsertStats struct {
	Created       int
	Updated       int
	RentEstimated int
	Flagged       int
}
