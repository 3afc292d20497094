package domain

import "time"

// ExportColumn - column key available in CSV/PDF exports
type ExportColumn string

const (
	ExportColID            ExportColumn = "id"
	ExportColAddress       ExportColumn = "address"
	ExportColCity          ExportColumn = "city"
	ExportColState         ExportColumn = "state"
	ExportColZipCode       ExportColumn = "zipCode"
	ExportColPropertyType  ExportColumn = "propertyType"
	ExportColBedrooms      ExportColumn = "bedrooms"
	ExportColBathrooms     ExportColumn = "bathrooms"
	ExportColSquareFeet    ExportColumn = "squareFeet"
	ExportColListPrice     ExportColumn = "listPrice"
	ExportColMonthlyRent   ExportColumn = "monthlyRent"
	ExportColRatio         ExportColumn = "priceToRentRatio"
	ExportColCapRate       ExportColumn = "capRate"
	ExportColGRM           ExportColumn = "grossRentMultiplier"
	ExportColRatioVsMarket ExportColumn = "ratioVsMarketPercent"
	ExportColDealQuality   ExportColumn = "dealQuality"
	ExportColExceptional   ExportColumn = "isExceptionalDeal"
	ExportColScore         ExportColumn = "score"
)

// ExportColumns lists every column a report can carry, in table order.
var ExportColumns = []ExportColumn{
	ExportColID, ExportColAddress, ExportColCity, ExportColState, ExportColZipCode,
	ExportColPropertyType, ExportColBedrooms, ExportColBathrooms, ExportColSquareFeet,
	ExportColListPrice, ExportColMonthlyRent, ExportColRatio, ExportColCapRate, ExportColGRM,
	ExportColRatioVsMarket, ExportColDealQuality, ExportColExceptional, ExportColScore,
}

// IsValid checks the column against ExportColumns.
func (c ExportColumn) IsValid() bool {
	for _, known := range ExportColumns {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultExportColumns - used when a request names no columns
var DefaultExportColumns = []ExportColumn{
	ExportColAddress, ExportColCity, ExportColState, ExportColZipCode, ExportColPropertyType,
	ExportColBedrooms, ExportColBathrooms, ExportColSquareFeet, ExportColListPrice,
	ExportColMonthlyRent, ExportColRatio, ExportColCapRate, ExportColRatioVsMarket,
	ExportColDealQuality, ExportColExceptional, ExportColScore,
}

// ExportReport - rows plus metadata handed to a renderer
type ExportReport struct {
	Title       string
	GeneratedAt time.Time
	Columns     []ExportColumn
	Properties  []RankedProperty
	Total       int
	Filter      SearchFilter
	Sort        Sort
}

// ExportRequest - search query plus rendering options of one export
type ExportRequest struct {
	Query   SearchQuery
	Columns []ExportColumn
	Title   string
}
