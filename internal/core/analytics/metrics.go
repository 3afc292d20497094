// Package analytics holds the investment metric formulas, the peer statistics
// and the ranking of search results. Everything here is pure and request-scoped.
package analytics

import "math"

// round2 rounds half away from zero to 2 decimal places
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func validInputs(listPrice, monthlyRent float64) bool {
	return listPrice > 0 && monthlyRent > 0 &&
		!math.IsInf(listPrice, 0) && !math.IsInf(monthlyRent, 0) &&
		!math.IsNaN(listPrice) && !math.IsNaN(monthlyRent)
}

// PriceToRentRatio returns monthly rent as a percentage of list price,
// rounded to 2 decimals. Nil when either input is non-positive.
func PriceToRentRatio(listPrice, monthlyRent float64) *float64 {
	if !validInputs(listPrice, monthlyRent) {
		return nil
	}
	v := round2(monthlyRent / listPrice * 100)
	return &v
}

// CapRate returns annual rent as a percentage of list price, rounded to 2 decimals.
func CapRate(listPrice, monthlyRent float64) *float64 {
	if !validInputs(listPrice, monthlyRent) {
		return nil
	}
	v := round2(monthlyRent * 12 / listPrice * 100)
	return &v
}

// GrossRentMultiplier returns list price over annual rent.
func GrossRentMultiplier(listPrice, monthlyRent float64) *float64 {
	if !validInputs(listPrice, monthlyRent) {
		return nil
	}
	v := round2(listPrice / (monthlyRent * 12))
	return &v
}

// Metrics - the derived metrics of one listing
type Metrics struct {
	PriceToRentRatio    *float64
	CapRate             *float64
	GrossRentMultiplier *float64
}

// ComputeMetrics derives all metrics from price and rent in cents.
// A nil rent yields empty metrics.
func ComputeMetrics(listPrice int64, monthlyRent *int64) Metrics {
	if monthlyRent == nil {
		return Metrics{}
	}
	price, rent := float64(listPrice), float64(*monthlyRent)
	return Metrics{
		PriceToRentRatio:    PriceToRentRatio(price, rent),
		CapRate:             CapRate(price, rent),
		GrossRentMultiplier: GrossRentMultiplier(price, rent),
	}
}
