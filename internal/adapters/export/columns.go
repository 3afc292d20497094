package export

import (
	"strconv"
	"strings"

	"analytics-service/internal/core/domain"
)

type columnSpec struct {
	header string
	// width in mm for the PDF table
	width float64
	align string
	value func(p domain.RankedProperty) string
}

var columnSpecs = map[domain.ExportColumn]columnSpec{
	domain.ExportColID:           {"ID", 62, "L", func(p domain.RankedProperty) string { return p.ID.String() }},
	domain.ExportColAddress:      {"Address", 48, "L", func(p domain.RankedProperty) string { return text(p.Street) }},
	domain.ExportColCity:         {"City", 26, "L", func(p domain.RankedProperty) string { return text(p.City) }},
	domain.ExportColState:        {"State", 10, "C", func(p domain.RankedProperty) string { return text(p.State) }},
	domain.ExportColZipCode:      {"Zip", 13, "C", func(p domain.RankedProperty) string { return text(p.ZipCode) }},
	domain.ExportColPropertyType: {"Type", 22, "L", func(p domain.RankedProperty) string { return text(string(p.PropertyType)) }},
	domain.ExportColBedrooms:     {"Beds", 9, "R", func(p domain.RankedProperty) string { return strconv.Itoa(p.Bedrooms) }},
	domain.ExportColBathrooms:    {"Baths", 10, "R", func(p domain.RankedProperty) string { return decimal(p.Bathrooms, 1) }},
	domain.ExportColSquareFeet: {"Sq Ft", 12, "R", func(p domain.RankedProperty) string {
		if p.SquareFeet == nil {
			return ""
		}
		return strconv.Itoa(*p.SquareFeet)
	}},
	domain.ExportColListPrice: {"List Price", 22, "R", func(p domain.RankedProperty) string { return dollars(p.ListPrice) }},
	domain.ExportColMonthlyRent: {"Rent", 16, "R", func(p domain.RankedProperty) string {
		if p.MonthlyRent == nil {
			return ""
		}
		return dollars(*p.MonthlyRent)
	}},
	domain.ExportColRatio:         {"Ratio %", 13, "R", func(p domain.RankedProperty) string { return optional(p.PriceToRentRatio) }},
	domain.ExportColCapRate:       {"Cap %", 12, "R", func(p domain.RankedProperty) string { return optional(p.CapRate) }},
	domain.ExportColGRM:           {"GRM", 11, "R", func(p domain.RankedProperty) string { return optional(p.GrossRentMultiplier) }},
	domain.ExportColRatioVsMarket: {"Vs Mkt %", 15, "R", func(p domain.RankedProperty) string { return optional(p.RatioVsMarketPercent) }},
	domain.ExportColDealQuality: {"Quality", 16, "L", func(p domain.RankedProperty) string {
		if p.DealQuality == nil {
			return ""
		}
		return string(*p.DealQuality)
	}},
	domain.ExportColExceptional: {"Exceptional", 18, "C", func(p domain.RankedProperty) string { return strconv.FormatBool(p.IsExceptionalDeal) }},
	domain.ExportColScore:       {"Score", 11, "R", func(p domain.RankedProperty) string { return strconv.Itoa(p.Score) }},
}

// specsFor resolves columns, dropping unknown ones; empty means defaults.
func specsFor(cols []domain.ExportColumn) []columnSpec {
	if len(cols) == 0 {
		cols = domain.DefaultExportColumns
	}
	specs := make([]columnSpec, 0, len(cols))
	for _, c := range cols {
		if spec, ok := columnSpecs[c]; ok {
			specs = append(specs, spec)
		}
	}
	return specs
}

func dollars(cents int64) string {
	return strconv.FormatFloat(float64(cents)/100, 'f', 2, 64)
}

func decimal(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return decimal(*v, 2)
}

// text neutralizes spreadsheet formula prefixes in free-text cells.
func text(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}
