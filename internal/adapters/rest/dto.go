package rest

import "time"

// PropertyDTO - external JSON shape of a ranked property. Money is in dollars.
type PropertyDTO struct {
	ID         string `json:"id"`
	ExternalID string `json:"externalId"`
	DataSource string `json:"dataSource"`

	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`

	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	Bedrooms     int     `json:"bedrooms"`
	Bathrooms    float64 `json:"bathrooms"`
	SquareFeet   *int    `json:"squareFeet"`
	PropertyType string  `json:"propertyType"`

	ListPrice   float64  `json:"listPrice"`
	MonthlyRent *float64 `json:"monthlyRent"`

	PriceToRentRatio     *float64 `json:"priceToRentRatio"`
	CapRate              *float64 `json:"capRate"`
	GrossRentMultiplier  *float64 `json:"grossRentMultiplier"`
	RatioVsMarketPercent *float64 `json:"ratioVsMarketPercent"`
	DealQuality          *string  `json:"dealQuality"`
	IsExceptionalDeal    bool     `json:"isExceptionalDeal"`
	Score                int      `json:"score"`

	CreatedAt   time.Time `json:"createdAt"`
	LastUpdated time.Time `json:"lastUpdated"`
	IsActive    bool      `json:"isActive"`
}

type PaginationDTO struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// FiltersDTO echoes applied criteria only, plus the resolved sort.
type FiltersDTO struct {
	ZipCode      string `json:"zipCode,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PropertyType string `json:"propertyType,omitempty"`

	MinPrice *float64 `json:"minPrice,omitempty"`
	MaxPrice *float64 `json:"maxPrice,omitempty"`
	MinRent  *float64 `json:"minRent,omitempty"`
	MaxRent  *float64 `json:"maxRent,omitempty"`

	MinRatio   *float64 `json:"minRatio,omitempty"`
	MaxRatio   *float64 `json:"maxRatio,omitempty"`
	MinCapRate *float64 `json:"minCapRate,omitempty"`
	MaxCapRate *float64 `json:"maxCapRate,omitempty"`

	Bedrooms  *int     `json:"bedrooms,omitempty"`
	Bathrooms *float64 `json:"bathrooms,omitempty"`

	MinSquareFeet *int `json:"minSquareFeet,omitempty"`
	MaxSquareFeet *int `json:"maxSquareFeet,omitempty"`

	MinImprovement *float64 `json:"minImprovement,omitempty"`
	AnomaliesOnly  bool     `json:"anomaliesOnly,omitempty"`

	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

// SearchResponse - GET /properties
type SearchResponse struct {
	Properties []PropertyDTO `json:"properties"`
	Pagination PaginationDTO `json:"pagination"`
	Filters    FiltersDTO    `json:"filters"`
}

type MarketPositionDTO struct {
	PeerCount      int      `json:"peerCount"`
	MedianRatio    *float64 `json:"medianRatio"`
	PercentileRank *float64 `json:"percentileRank"`
	Sufficient     bool     `json:"sufficient"`
}

type RentEstimateDTO struct {
	CompCount  int      `json:"compCount"`
	MedianRent *float64 `json:"medianRent"`
	Sufficient bool     `json:"sufficient"`
}

// PropertyDetailsResponse - GET /properties/{id}
type PropertyDetailsResponse struct {
	Property       PropertyDTO       `json:"property"`
	Comparables    []PropertyDTO     `json:"comparables"`
	MarketPosition MarketPositionDTO `json:"marketPosition"`
	RentEstimate   RentEstimateDTO   `json:"rentEstimate"`
}

type AnomalyCriteriaDTO struct {
	MinImprovement float64  `json:"minImprovement"`
	ZipCode        string   `json:"zipCode,omitempty"`
	MaxPrice       *float64 `json:"maxPrice,omitempty"`
	Limit          int      `json:"limit"`
}

// AnomaliesResponse - GET /analytics/anomalies
type AnomaliesResponse struct {
	Anomalies []PropertyDTO      `json:"anomalies"`
	Criteria  AnomalyCriteriaDTO `json:"criteria"`
}

type StatSummaryDTO struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

type MarketQueryDTO struct {
	State    string `json:"state"`
	City     string `json:"city,omitempty"`
	ZipCode  string `json:"zipCode,omitempty"`
	Bedrooms *int   `json:"bedrooms,omitempty"`
}

// MarketSummaryResponse - GET /analytics/market. Stats are null when the
// sample is below minimumSampleSize.
type MarketSummaryResponse struct {
	Market            MarketQueryDTO  `json:"market"`
	SampleSize        int             `json:"sampleSize"`
	MinimumSampleSize int             `json:"minimumSampleSize"`
	Sufficient        bool            `json:"sufficient"`
	Message           string          `json:"message,omitempty"`
	PriceToRentRatio  *StatSummaryDTO `json:"priceToRentRatio"`
	ListPrice         *StatSummaryDTO `json:"listPrice"`
	MonthlyRent       *StatSummaryDTO `json:"monthlyRent"`
}

// ExportRequestDTO - body of POST /export/{format}. Filters go through the
// same lenient parser as the search query string.
type ExportRequestDTO struct {
	Filters map[string]any `json:"filters"`
	Columns []string       `json:"columns" validate:"omitempty,max=18,unique,dive,export_column"`
	Title   string         `json:"title" validate:"max=120"`
}
