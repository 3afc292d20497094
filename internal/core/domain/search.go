package domain

import "strings"

// SearchFilter - typed set of optional constraints for one request.
// Nil pointers and empty strings mean "not applied". Money bounds are in cents.
type SearchFilter struct {
	ZipCode      string
	City         string
	State        string
	PropertyType PropertyType

	PriceMin *int64
	PriceMax *int64
	RentMin  *int64
	RentMax  *int64

	RatioMin   *float64
	RatioMax   *float64
	CapRateMin *float64
	CapRateMax *float64

	Bedrooms     *int
	BathroomsMin *float64

	SquareFeetMin *int
	SquareFeetMax *int

	// MarketImprovementMin - lower bound for ratio_vs_market_percent
	MarketImprovementMin *float64
	AnomaliesOnly        bool
}

// SortField - allow-listed sort keys
type SortField string

const (
	SortByRatio         SortField = "price_to_rent_ratio"
	SortByCapRate       SortField = "cap_rate"
	SortByPrice         SortField = "list_price"
	SortByRent          SortField = "monthly_rent"
	SortByBedrooms      SortField = "bedrooms"
	SortByBathrooms     SortField = "bathrooms"
	SortBySquareFeet    SortField = "square_feet"
	SortByLastUpdated   SortField = "last_updated"
	SortByCreatedAt     SortField = "created_at"
	SortByRatioVsMarket SortField = "ratio_vs_market_percent"
)

// SortFields lists every allowed sort key.
var SortFields = []SortField{
	SortByRatio, SortByCapRate, SortByPrice, SortByRent, SortByBedrooms,
	SortByBathrooms, SortBySquareFeet, SortByLastUpdated, SortByCreatedAt, SortByRatioVsMarket,
}

var sortAliases = map[string]SortField{
	"pricetorentratio":     SortByRatio,
	"ratio":                SortByRatio,
	"caprate":              SortByCapRate,
	"price":                SortByPrice,
	"listprice":            SortByPrice,
	"rent":                 SortByRent,
	"monthlyrent":          SortByRent,
	"bedrooms":             SortByBedrooms,
	"bathrooms":            SortByBathrooms,
	"squarefeet":           SortBySquareFeet,
	"sqft":                 SortBySquareFeet,
	"lastupdated":          SortByLastUpdated,
	"updated":              SortByLastUpdated,
	"createdat":            SortByCreatedAt,
	"ratiovsmarket":        SortByRatioVsMarket,
	"ratiovsmarketpercent": SortByRatioVsMarket,
	"marketimprovement":    SortByRatioVsMarket,
}

// SortDirection - ASC or DESC
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// Sort - resolved sort specification
type Sort struct {
	Field     SortField
	Direction SortDirection
}

// DefaultSort - price_to_rent_ratio DESC
var DefaultSort = Sort{Field: SortByRatio, Direction: SortDesc}

// ParseSort resolves raw sortBy/sortOrder values. Anything outside the
// allow-list falls back to DefaultSort field, unknown order falls back to DESC.
func ParseSort(sortBy, sortOrder string) Sort {
	s := DefaultSort

	key := strings.ToLower(strings.TrimSpace(sortBy))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	if field, ok := sortAliases[key]; ok {
		s.Field = field
	}

	if strings.EqualFold(strings.TrimSpace(sortOrder), "asc") {
		s.Direction = SortAsc
	}
	return s
}

// Resolved maps a field outside the allow-list to the default field and any
// direction other than ASC to DESC.
func (s Sort) Resolved() Sort {
	known := false
	for _, f := range SortFields {
		if f == s.Field {
			known = true
			break
		}
	}
	if !known {
		s.Field = DefaultSort.Field
	}
	if s.Direction != SortAsc {
		s.Direction = SortDesc
	}
	return s
}

// Page - limit/offset pair
type Page struct {
	Limit  int
	Offset int
}

// PagePolicy - per-endpoint pagination bounds
type PagePolicy struct {
	DefaultLimit int
	MaxLimit     int
}

// Clamp normalizes a page: non-positive limit -> default, limit above
// the maximum -> maximum, negative offset -> 0.
func (p PagePolicy) Clamp(page Page) Page {
	if page.Limit <= 0 {
		page.Limit = p.DefaultLimit
	}
	if p.MaxLimit > 0 && page.Limit > p.MaxLimit {
		page.Limit = p.MaxLimit
	}
	if page.Offset < 0 {
		page.Offset = 0
	}
	return page
}

// SearchQuery - everything the storage needs for one filtered search
type SearchQuery struct {
	Filter SearchFilter
	Sort   Sort
	Page   Page
}

// PaginatedProperties - one page of search rows with the total count
type PaginatedProperties struct {
	Rows  []PropertyRow
	Total int
	Page  Page
}

// HasMore reports whether rows exist beyond this page.
func (p *PaginatedProperties) HasMore() bool {
	return p.Page.Offset+p.Page.Limit < p.Total
}

// RankedPage - ranked search output handed to the formatter
type RankedPage struct {
	Properties []RankedProperty
	Total      int
	Page       Page
	HasMore    bool
	Filter     SearchFilter
	Sort       Sort
}

// AnomalyCriteria - criteria of the anomaly listing. A nil MinImprovement
// resolves to the relative exceptional-deal threshold.
type AnomalyCriteria struct {
	MinImprovement *float64
	ZipCode        string
	MaxPrice       *int64
	Limit          int
}

// AnomalyResult - properties beating their peer median by MinImprovement
type AnomalyResult struct {
	Anomalies []RankedProperty
	Criteria  AnomalyCriteria
}
