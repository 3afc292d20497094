package domain

import (
	"time"

	"github.com/google/uuid"
)

// PropertyType - enum-like property classification
type PropertyType string

const (
	PropertyTypeSingleFamily PropertyType = "single_family"
	PropertyTypeCondo        PropertyType = "condo"
	PropertyTypeTownhouse    PropertyType = "townhouse"
	PropertyTypeMultiFamily  PropertyType = "multi_family"
	PropertyTypeApartment    PropertyType = "apartment"
	PropertyTypeOther        PropertyType = "other"
	PropertyTypeUnknown      PropertyType = "unknown"
)

var propertyTypes = map[PropertyType]struct{}{
	PropertyTypeSingleFamily: {},
	PropertyTypeCondo:        {},
	PropertyTypeTownhouse:    {},
	PropertyTypeMultiFamily:  {},
	PropertyTypeApartment:    {},
	PropertyTypeOther:        {},
	PropertyTypeUnknown:      {},
}

// IsValid checks the value against the known set.
func (t PropertyType) IsValid() bool {
	_, ok := propertyTypes[t]
	return ok
}

// Property - a listing as stored. Money is in cents.
type Property struct {
	ID         uuid.UUID
	ExternalID string
	DataSource string

	Street  string
	City    string
	State   string
	ZipCode string

	Latitude  *float64
	Longitude *float64
	Geohash   *string

	Bedrooms     int
	Bathrooms    float64
	SquareFeet   *int
	PropertyType PropertyType

	ListPrice   int64
	MonthlyRent *int64

	PriceToRentRatio *float64
	CapRate          *float64

	CreatedAt   time.Time
	LastUpdated time.Time
	IsActive    bool
}

// MarketContext - peer group statistics joined to a row by the search query.
// Nil when the (zip, bedrooms) group has no aggregate with enough peers.
type MarketContext struct {
	SampleSize  int
	MedianRatio float64
	P25Ratio    float64
	P75Ratio    float64
}

// PropertyRow - one search result row: the property plus its market context
type PropertyRow struct {
	Property Property
	Market   *MarketContext
}

// DealQuality - banding of a ratio against the peer distribution
type DealQuality string

const (
	DealQualityPoor      DealQuality = "poor"
	DealQualityFair      DealQuality = "fair"
	DealQualityGood      DealQuality = "good"
	DealQualityExcellent DealQuality = "excellent"
)

// RankedProperty - property enriched by the ranker
type RankedProperty struct {
	Property

	GrossRentMultiplier  *float64
	RatioVsMarketPercent *float64
	DealQuality          *DealQuality
	IsExceptionalDeal    bool
	Score                int
}

// RentalComp - an observed rental listing used as a comparable
type RentalComp struct {
	ID           uuid.UUID
	ExternalID   string
	DataSource   string
	Street       string
	City         string
	State        string
	ZipCode      string
	Latitude     *float64
	Longitude    *float64
	Bedrooms     int
	Bathrooms    float64
	SquareFeet   *int
	PropertyType PropertyType
	MonthlyRent  int64
	ObservedAt   time.Time
}
