package domain

import (
	"time"

	"github.com/google/uuid"
)

// PeerGroupKey - market peer group: same zip code and bedroom count
type PeerGroupKey struct {
	ZipCode  string
	Bedrooms int
}

// PeerSample - raw values of one active property, input for aggregation.
// Ratio and rent are nil for listings without a rent figure.
type PeerSample struct {
	Key         PeerGroupKey
	Ratio       *float64
	ListPrice   int64
	MonthlyRent *int64
}

// MarketAggregate - materialized statistics of one peer group
type MarketAggregate struct {
	Key               PeerGroupKey
	SampleSize        int
	MeanRatio         float64
	MedianRatio       float64
	P25Ratio          float64
	P75Ratio          float64
	MedianListPrice   int64
	MedianMonthlyRent int64
	RefreshedAt       time.Time
}

// Context converts the aggregate to the shape the ranker consumes.
func (a MarketAggregate) Context() *MarketContext {
	return &MarketContext{
		SampleSize:  a.SampleSize,
		MedianRatio: a.MedianRatio,
		P25Ratio:    a.P25Ratio,
		P75Ratio:    a.P75Ratio,
	}
}

// StatSummary - count/mean/median/quartiles of one numeric series
type StatSummary struct {
	Count  int
	Mean   float64
	Median float64
	P25    float64
	P75    float64
	Min    float64
	Max    float64
}

// MarketQuery - market summary request, state is mandatory
type MarketQuery struct {
	State    string
	City     string
	ZipCode  string
	Bedrooms *int
}

// MarketSummary - on-demand aggregate of a (city, state) market.
// Stats are nil when the sample is below the minimum size.
type MarketSummary struct {
	Query             MarketQuery
	SampleSize        int
	MinimumSampleSize int
	Ratio             *StatSummary
	ListPrice         *StatSummary // cents
	MonthlyRent       *StatSummary // cents
}

// Sufficient reports whether the sample is large enough to trust.
func (s *MarketSummary) Sufficient() bool {
	return s.SampleSize >= s.MinimumSampleSize
}

// MarketPosition - where a subject ratio sits among its peers
type MarketPosition struct {
	PeerCount      int
	MedianRatio    *float64
	PercentileRank *float64
}

// RentEstimate - median rent of rental comps for the subject's group
type RentEstimate struct {
	CompCount  int
	MedianRent *int64
	Sufficient bool
}

// PropertyDetailsView - single property page
type PropertyDetailsView struct {
	Property       RankedProperty
	Comparables    []RankedProperty
	MarketPosition MarketPosition
	RentEstimate   RentEstimate
}

// DealFlag - notification payload for a newly exceptional property
type DealFlag struct {
	PropertyID           uuid.UUID
	ExternalID           string
	DataSource           string
	ZipCode              string
	Bedrooms             int
	ListPrice            int64
	MonthlyRent          *int64
	PriceToRentRatio     *float64
	RatioVsMarketPercent *float64
	Score                int
	FlaggedAt            time.Time
}
