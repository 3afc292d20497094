package rest

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"analytics-service/internal/core/domain"
)

// valueSource abstracts a query string and a decoded JSON filter object, so
// every endpoint shares one lenient parser.
type valueSource interface {
	lookup(key string) (string, bool)
}

type queryValues url.Values

func (q queryValues) lookup(key string) (string, bool) {
	v := strings.TrimSpace(url.Values(q).Get(key))
	return v, v != ""
}

// bodyValues holds a JSON object; values may be strings, numbers or booleans.
type bodyValues map[string]any

func (b bodyValues) lookup(key string) (string, bool) {
	var s string
	switch v := b[key].(type) {
	case string:
		s = strings.TrimSpace(v)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case bool:
		s = strconv.FormatBool(v)
	}
	return s, s != ""
}

// Malformed optional values are dropped, never rejected.

func parseString(src valueSource, key string) string {
	v, _ := src.lookup(key)
	return v
}

func parseFloat(src valueSource, key string) *float64 {
	raw, ok := src.lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseNonNegativeFloat(src valueSource, key string) *float64 {
	v := parseFloat(src, key)
	if v == nil || *v < 0 {
		return nil
	}
	return v
}

func parseInt(src valueSource, key string) *int {
	v := parseFloat(src, key)
	if v == nil || *v != math.Trunc(*v) || math.Abs(*v) > math.MaxInt32 {
		return nil
	}
	i := int(*v)
	return &i
}

func parseNonNegativeInt(src valueSource, key string) *int {
	v := parseInt(src, key)
	if v == nil || *v < 0 {
		return nil
	}
	return v
}

// parseDollars reads a dollar amount and returns cents.
func parseDollars(src valueSource, key string) *int64 {
	v := parseNonNegativeFloat(src, key)
	if v == nil || *v > math.MaxInt64/100 {
		return nil
	}
	cents := int64(math.Round(*v * 100))
	return &cents
}

// parseBool is true only for "true", any case
func parseBool(src valueSource, key string) bool {
	raw, ok := src.lookup(key)
	return ok && strings.EqualFold(strings.TrimSpace(raw), "true")
}

func parsePropertyType(src valueSource, key string) domain.PropertyType {
	raw, ok := src.lookup(key)
	if !ok {
		return ""
	}
	t := domain.PropertyType(strings.ToLower(strings.ReplaceAll(raw, "-", "_")))
	if !t.IsValid() {
		return ""
	}
	return t
}

// parseSearchFilter is the single translation from request values to a filter.
func parseSearchFilter(src valueSource) domain.SearchFilter {
	f := domain.SearchFilter{
		ZipCode:      parseString(src, "zipCode"),
		City:         parseString(src, "city"),
		State:        strings.ToUpper(parseString(src, "state")),
		PropertyType: parsePropertyType(src, "propertyType"),

		PriceMin: parseDollars(src, "minPrice"),
		PriceMax: parseDollars(src, "maxPrice"),
		RentMin:  parseDollars(src, "minRent"),
		RentMax:  parseDollars(src, "maxRent"),

		RatioMin:   parseNonNegativeFloat(src, "minRatio"),
		RatioMax:   parseNonNegativeFloat(src, "maxRatio"),
		CapRateMin: parseFloat(src, "minCapRate"),
		CapRateMax: parseFloat(src, "maxCapRate"),

		Bedrooms:     parseNonNegativeInt(src, "bedrooms"),
		BathroomsMin: parseNonNegativeFloat(src, "bathrooms"),

		SquareFeetMin: parseNonNegativeInt(src, "minSquareFeet"),
		SquareFeetMax: parseNonNegativeInt(src, "maxSquareFeet"),

		MarketImprovementMin: parseFloat(src, "minImprovement"),
		AnomaliesOnly:        parseBool(src, "anomaliesOnly"),
	}
	return f
}

func parseSort(src valueSource) domain.Sort {
	return domain.ParseSort(parseString(src, "sortBy"), parseString(src, "sortOrder"))
}

// parsePage leaves invalid values at zero; the use case clamps them.
func parsePage(src valueSource) domain.Page {
	var page domain.Page
	if v := parseInt(src, "limit"); v != nil {
		page.Limit = *v
	}
	if v := parseInt(src, "offset"); v != nil {
		page.Offset = *v
	}
	return page
}

func parseSearchQuery(src valueSource) domain.SearchQuery {
	return domain.SearchQuery{
		Filter: parseSearchFilter(src),
		Sort:   parseSort(src),
		Page:   parsePage(src),
	}
}
