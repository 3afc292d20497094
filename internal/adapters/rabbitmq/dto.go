package rabbitmq

import (
	"math"
	"strings"
	"time"

	"analytics-service/internal/core/domain"

	"github.com/google/uuid"
)

// ListingUpsertedDTO - body of ListingUpsertedEvent/1.0.0. Money is in dollars.
type ListingUpsertedDTO struct {
	ExternalID   string     `json:"external_id"`
	DataSource   string     `json:"data_source"`
	Street       string     `json:"street"`
	City         string     `json:"city"`
	State        string     `json:"state"`
	ZipCode      string     `json:"zip_code"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	Bedrooms     int        `json:"bedrooms"`
	Bathrooms    float64    `json:"bathrooms"`
	SquareFeet   *int       `json:"square_feet"`
	PropertyType string     `json:"property_type"`
	ListPrice    float64    `json:"list_price"`
	MonthlyRent  *float64   `json:"monthly_rent"`
	SeenAt       *time.Time `json:"seen_at"`
}

// RentalCompObservedDTO - body of RentalCompObservedEvent/1.0.0
type RentalCompObservedDTO struct {
	ExternalID   string     `json:"external_id"`
	DataSource   string     `json:"data_source"`
	Street       string     `json:"street"`
	City         string     `json:"city"`
	State        string     `json:"state"`
	ZipCode      string     `json:"zip_code"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	Bedrooms     int        `json:"bedrooms"`
	Bathrooms    float64    `json:"bathrooms"`
	SquareFeet   *int       `json:"square_feet"`
	PropertyType string     `json:"property_type"`
	MonthlyRent  float64    `json:"monthly_rent"`
	ObservedAt   *time.Time `json:"observed_at"`
}

// DealFlaggedDTO - body of DealFlaggedEvent/1.0.0
type DealFlaggedDTO struct {
	PropertyID           uuid.UUID `json:"property_id"`
	ExternalID           string    `json:"external_id"`
	DataSource           string    `json:"data_source"`
	ZipCode              string    `json:"zip_code"`
	Bedrooms             int       `json:"bedrooms"`
	ListPrice            float64   `json:"list_price"`
	MonthlyRent          *float64  `json:"monthly_rent"`
	PriceToRentRatio     *float64  `json:"price_to_rent_ratio"`
	RatioVsMarketPercent *float64  `json:"ratio_vs_market_percent"`
	Score                int       `json:"score"`
	FlaggedAt            time.Time `json:"flagged_at"`
}

func dollarsToCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func centsToDollars(v int64) float64 {
	return float64(v) / 100
}

func optionalCents(v *float64) *int64 {
	if v == nil {
		return nil
	}
	c := dollarsToCents(*v)
	return &c
}

func orZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

func toListingRecord(dto ListingUpsertedDTO) domain.ListingRecord {
	return domain.ListingRecord{
		ExternalID:   dto.ExternalID,
		DataSource:   dto.DataSource,
		Street:       dto.Street,
		City:         dto.City,
		State:        dto.State,
		ZipCode:      dto.ZipCode,
		Latitude:     dto.Latitude,
		Longitude:    dto.Longitude,
		Bedrooms:     dto.Bedrooms,
		Bathrooms:    dto.Bathrooms,
		SquareFeet:   dto.SquareFeet,
		PropertyType: domain.PropertyType(strings.ToLower(dto.PropertyType)),
		ListPrice:    dollarsToCents(dto.ListPrice),
		MonthlyRent:  optionalCents(dto.MonthlyRent),
		SeenAt:       orZero(dto.SeenAt),
	}
}

func toRentalComp(dto RentalCompObservedDTO) domain.RentalComp {
	return domain.RentalComp{
		ExternalID:   dto.ExternalID,
		DataSource:   dto.DataSource,
		Street:       dto.Street,
		City:         dto.City,
		State:        dto.State,
		ZipCode:      dto.ZipCode,
		Latitude:     dto.Latitude,
		Longitude:    dto.Longitude,
		Bedrooms:     dto.Bedrooms,
		Bathrooms:    dto.Bathrooms,
		SquareFeet:   dto.SquareFeet,
		PropertyType: domain.PropertyType(strings.ToLower(dto.PropertyType)),
		MonthlyRent:  dollarsToCents(dto.MonthlyRent),
		ObservedAt:   orZero(dto.ObservedAt),
	}
}

func toDealFlaggedDTO(flag domain.DealFlag) DealFlaggedDTO {
	dto := DealFlaggedDTO{
		PropertyID:           flag.PropertyID,
		ExternalID:           flag.ExternalID,
		DataSource:           flag.DataSource,
		ZipCode:              flag.ZipCode,
		Bedrooms:             flag.Bedrooms,
		ListPrice:            centsToDollars(flag.ListPrice),
		PriceToRentRatio:     flag.PriceToRentRatio,
		RatioVsMarketPercent: flag.RatioVsMarketPercent,
		Score:                flag.Score,
		FlaggedAt:            flag.FlaggedAt.UTC(),
	}
	if flag.MonthlyRent != nil {
		rent := centsToDollars(*flag.MonthlyRent)
		dto.MonthlyRent = &rent
	}
	return dto
}
