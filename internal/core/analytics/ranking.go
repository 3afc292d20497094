package analytics

import (
	"math"

	"analytics-service/internal/core/domain"
)

// Thresholds - "exceptional deal" rules. Both are independent tunables:
// a row is exceptional when it passes either of them.
type Thresholds struct {
	// AbsoluteRatio - price_to_rent_ratio strictly above this is exceptional
	AbsoluteRatio float64
	// RelativeMarketPercent - ratio_vs_market_percent at or above this is exceptional
	RelativeMarketPercent float64
	// MinPeers - peer group size needed before market comparison is defined
	MinPeers int
}

// DefaultThresholds mirrors the production defaults.
var DefaultThresholds = Thresholds{
	AbsoluteRatio:         6.0,
	RelativeMarketPercent: 10,
	MinPeers:              5,
}

// ScoreWeights - composite score weights, normalized by their sum
type ScoreWeights struct {
	Ratio          float64
	MarketPosition float64
	CapRate        float64
	SpacePerBed    float64
}

// TierCutoffs - descending cutoffs mapping a value to 100/75/50/25, below all -> 0
type TierCutoffs [4]float64

func (c TierCutoffs) tier(v float64) float64 {
	points := [4]float64{100, 75, 50, 25}
	for i, cutoff := range c {
		if v >= cutoff {
			return points[i]
		}
	}
	return 0
}

// ScoringConfig - weights and tier cutoffs of the composite score
type ScoringConfig struct {
	Weights          ScoreWeights
	RatioTiers       TierCutoffs
	MarketTiers      TierCutoffs
	CapRateTiers     TierCutoffs
	SpacePerBedTiers TierCutoffs
	// NeutralTier - tier value used when an input is unknown
	NeutralTier float64
}

// DefaultScoring: 40/30/20/10 weights, market tiers at 25%/15%.
var DefaultScoring = ScoringConfig{
	Weights:          ScoreWeights{Ratio: 0.4, MarketPosition: 0.3, CapRate: 0.2, SpacePerBed: 0.1},
	RatioTiers:       TierCutoffs{1.0, 0.8, 0.6, 0.4},
	MarketTiers:      TierCutoffs{25, 15, 0, -15},
	CapRateTiers:     TierCutoffs{12, 10, 8, 6},
	SpacePerBedTiers: TierCutoffs{600, 450, 300, 150},
	NeutralTier:      50,
}

// Ranker enriches query rows with market-relative metrics, flags and scores.
type Ranker struct {
	thresholds Thresholds
	scoring    ScoringConfig
}

func NewRanker(thresholds Thresholds, scoring ScoringConfig) *Ranker {
	if thresholds.MinPeers <= 0 {
		thresholds.MinPeers = DefaultThresholds.MinPeers
	}
	return &Ranker{thresholds: thresholds, scoring: scoring}
}

// Thresholds returns the configured exceptional-deal rules.
func (r *Ranker) Thresholds() Thresholds {
	return r.thresholds
}

// RatioVsMarketPercent = ((subject / peerMedian) - 1) * 100, rounded to 2 decimals.
// Nil without a market context, with fewer than minPeers peers, or a non-positive median.
func RatioVsMarketPercent(subjectRatio *float64, market *domain.MarketContext, minPeers int) *float64 {
	if subjectRatio == nil || market == nil {
		return nil
	}
	if market.SampleSize < minPeers || market.MedianRatio <= 0 {
		return nil
	}
	v := round2((*subjectRatio/market.MedianRatio - 1) * 100)
	return &v
}

// BandDealQuality compares a ratio against the peer quartiles.
func BandDealQuality(ratio float64, market *domain.MarketContext) domain.DealQuality {
	switch {
	case ratio >= market.P75Ratio:
		return domain.DealQualityExcellent
	case ratio >= market.MedianRatio:
		return domain.DealQualityGood
	case ratio >= market.P25Ratio:
		return domain.DealQualityFair
	default:
		return domain.DealQualityPoor
	}
}

// IsExceptional applies both thresholds. Monotonic in ratio for a fixed market.
func (r *Ranker) IsExceptional(ratio *float64, vsMarket *float64) bool {
	if ratio != nil && *ratio > r.thresholds.AbsoluteRatio {
		return true
	}
	return vsMarket != nil && *vsMarket >= r.thresholds.RelativeMarketPercent
}

// Rank enriches one row. Missing ratio/cap rate are derived from price and rent.
func (r *Ranker) Rank(row domain.PropertyRow) domain.RankedProperty {
	p := row.Property
	m := ComputeMetrics(p.ListPrice, p.MonthlyRent)
	if p.PriceToRentRatio == nil {
		p.PriceToRentRatio = m.PriceToRentRatio
	}
	if p.CapRate == nil {
		p.CapRate = m.CapRate
	}

	ranked := domain.RankedProperty{
		Property:            p,
		GrossRentMultiplier: m.GrossRentMultiplier,
	}

	ranked.RatioVsMarketPercent = RatioVsMarketPercent(p.PriceToRentRatio, row.Market, r.thresholds.MinPeers)
	if ranked.RatioVsMarketPercent != nil {
		band := BandDealQuality(*p.PriceToRentRatio, row.Market)
		ranked.DealQuality = &band
	}

	ranked.IsExceptionalDeal = r.IsExceptional(p.PriceToRentRatio, ranked.RatioVsMarketPercent)
	ranked.Score = r.Score(ranked)
	return ranked
}

// RankAll keeps the input order, ordering is owned by the query.
func (r *Ranker) RankAll(rows []domain.PropertyRow) []domain.RankedProperty {
	ranked := make([]domain.RankedProperty, 0, len(rows))
	for _, row := range rows {
		ranked = append(ranked, r.Rank(row))
	}
	return ranked
}

// Score computes the 0-100 composite score.
func (r *Ranker) Score(p domain.RankedProperty) int {
	sc := r.scoring
	w := sc.Weights
	total := w.Ratio + w.MarketPosition + w.CapRate + w.SpacePerBed
	if total <= 0 {
		return 0
	}

	tierOrNeutral := func(v *float64, cutoffs TierCutoffs) float64 {
		if v == nil {
			return sc.NeutralTier
		}
		return cutoffs.tier(*v)
	}

	var spacePerBed *float64
	if p.SquareFeet != nil && p.Bedrooms > 0 {
		v := float64(*p.SquareFeet) / float64(p.Bedrooms)
		spacePerBed = &v
	}

	score := w.Ratio*tierOrNeutral(p.PriceToRentRatio, sc.RatioTiers) +
		w.MarketPosition*tierOrNeutral(p.RatioVsMarketPercent, sc.MarketTiers) +
		w.CapRate*tierOrNeutral(p.CapRate, sc.CapRateTiers) +
		w.SpacePerBed*tierOrNeutral(spacePerBed, sc.SpacePerBedTiers)

	return int(math.Round(math.Max(0, math.Min(100, score/total))))
}
