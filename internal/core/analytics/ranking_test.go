package analytics

import (
	"testing"

	"analytics-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func peerMarket(ratios ...float64) *domain.MarketContext {
	s, err := Summarize(ratios)
	if err != nil {
		return nil
	}
	return &domain.MarketContext{
		SampleSize:  s.Count,
		MedianRatio: s.Median,
		P25Ratio:    s.P25,
		P75Ratio:    s.P75,
	}
}

func TestRatioVsMarketPercent_PeerGroupOfFive(t *testing.T) {
	market := peerMarket(0.5, 0.6, 0.7, 0.8, 0.9)
	require.NotNil(t, market)
	assert.Equal(t, 0.7, market.MedianRatio)

	vs := RatioVsMarketPercent(ptr(0.9), market, 5)
	require.NotNil(t, vs)
	assert.InDelta(t, 28.57, *vs, 0.001)

	r := NewRanker(DefaultThresholds, DefaultScoring)
	assert.True(t, r.IsExceptional(ptr(0.9), vs))
}

func TestRatioVsMarketPercent_Undefined(t *testing.T) {
	assert.Nil(t, RatioVsMarketPercent(ptr(0.9), nil, 5))
	assert.Nil(t, RatioVsMarketPercent(nil, peerMarket(1, 2, 3, 4, 5), 5))
	// four peers are not enough
	assert.Nil(t, RatioVsMarketPercent(ptr(0.9), peerMarket(0.5, 0.6, 0.7, 0.8), 5))
	assert.Nil(t, RatioVsMarketPercent(ptr(0.9), &domain.MarketContext{SampleSize: 10, MedianRatio: 0}, 5))
}

func TestIsExceptional_Thresholds(t *testing.T) {
	r := NewRanker(Thresholds{AbsoluteRatio: 6.0, RelativeMarketPercent: 10, MinPeers: 5}, DefaultScoring)

	assert.False(t, r.IsExceptional(nil, nil))
	assert.False(t, r.IsExceptional(ptr(6.0), nil), "absolute threshold is strict")
	assert.True(t, r.IsExceptional(ptr(6.01), nil))
	assert.True(t, r.IsExceptional(ptr(0.5), ptr(10.0)), "relative threshold is inclusive")
	assert.False(t, r.IsExceptional(ptr(0.5), ptr(9.99)))
}

func TestRatioVsMarketPercent_ExactlyAtRelativeThreshold(t *testing.T) {
	r := NewRanker(DefaultThresholds, DefaultScoring)
	cases := []struct {
		name    string
		subject float64
		market  *domain.MarketContext
	}{
		{"0.88 vs 0.80", 0.88, peerMarket(0.70, 0.75, 0.80, 0.85, 0.88)},
		{"0.11 vs 0.10", 0.11, peerMarket(0.09, 0.10, 0.10, 0.11, 0.12)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// the raw float quotient lands just under 10
			assert.Less(t, (tc.subject/tc.market.MedianRatio-1)*100, 10.0)

			vs := RatioVsMarketPercent(ptr(tc.subject), tc.market, 5)
			require.NotNil(t, vs)
			assert.Equal(t, 10.0, *vs)
			assert.True(t, r.IsExceptional(ptr(tc.subject), vs))
		})
	}
}

func TestIsExceptional_IndependentlyConfigurable(t *testing.T) {
	relativeOnly := NewRanker(Thresholds{AbsoluteRatio: 1e9, RelativeMarketPercent: 25, MinPeers: 5}, DefaultScoring)
	assert.False(t, relativeOnly.IsExceptional(ptr(7.0), ptr(20.0)))
	assert.True(t, relativeOnly.IsExceptional(ptr(0.7), ptr(25.0)))

	absoluteOnly := NewRanker(Thresholds{AbsoluteRatio: 0.8, RelativeMarketPercent: 1e9, MinPeers: 5}, DefaultScoring)
	assert.True(t, absoluteOnly.IsExceptional(ptr(0.81), ptr(-50.0)))
}

func TestRank_ExceptionalFlagIsMonotonicInRatio(t *testing.T) {
	r := NewRanker(DefaultThresholds, DefaultScoring)
	market := peerMarket(0.5, 0.6, 0.7, 0.8, 0.9)

	flagged := false
	for ratio := 0.1; ratio <= 8; ratio += 0.05 {
		row := domain.PropertyRow{
			Property: domain.Property{ListPrice: 100, PriceToRentRatio: ptr(round2(ratio))},
			Market:   market,
		}
		ranked := r.Rank(row)
		if flagged {
			assert.True(t, ranked.IsExceptionalDeal, "ratio %.2f lost its flag", ratio)
		}
		flagged = ranked.IsExceptionalDeal
	}
	assert.True(t, flagged)
}

func TestBandDealQuality(t *testing.T) {
	market := peerMarket(0.5, 0.6, 0.7, 0.8, 0.9)

	assert.Equal(t, domain.DealQualityPoor, BandDealQuality(0.55, market))
	assert.Equal(t, domain.DealQualityFair, BandDealQuality(0.6, market))
	assert.Equal(t, domain.DealQualityGood, BandDealQuality(0.7, market))
	assert.Equal(t, domain.DealQualityExcellent, BandDealQuality(0.8, market))
	assert.Equal(t, domain.DealQualityExcellent, BandDealQuality(2, market))
}

func TestRank_DerivesMissingMetrics(t *testing.T) {
	r := NewRanker(DefaultThresholds, DefaultScoring)
	rent := int64(250000)

	ranked := r.Rank(domain.PropertyRow{Property: domain.Property{ListPrice: 30000000, MonthlyRent: &rent}})

	require.NotNil(t, ranked.PriceToRentRatio)
	require.NotNil(t, ranked.CapRate)
	require.NotNil(t, ranked.GrossRentMultiplier)
	assert.Equal(t, 0.83, *ranked.PriceToRentRatio)
	assert.Equal(t, 10.0, *ranked.CapRate)
	assert.Nil(t, ranked.RatioVsMarketPercent)
	assert.Nil(t, ranked.DealQuality)
	assert.False(t, ranked.IsExceptionalDeal)
}

func TestRank_WithMarket(t *testing.T) {
	r := NewRanker(DefaultThresholds, DefaultScoring)
	rent := int64(270000)

	ranked := r.Rank(domain.PropertyRow{
		Property: domain.Property{ListPrice: 30000000, MonthlyRent: &rent, PriceToRentRatio: ptr(0.9)},
		Market:   peerMarket(0.5, 0.6, 0.7, 0.8, 0.9),
	})

	require.NotNil(t, ranked.RatioVsMarketPercent)
	require.NotNil(t, ranked.DealQuality)
	assert.Equal(t, domain.DealQualityExcellent, *ranked.DealQuality)
	assert.True(t, ranked.IsExceptionalDeal)
}

func TestScore(t *testing.T) {
	r := NewRanker(DefaultThresholds, DefaultScoring)

	best := domain.RankedProperty{
		Property: domain.Property{
			Bedrooms:         2,
			SquareFeet:       ptr(1400),
			PriceToRentRatio: ptr(1.2),
			CapRate:          ptr(14.4),
		},
		RatioVsMarketPercent: ptr(30.0),
	}
	assert.Equal(t, 100, r.Score(best))

	worst := domain.RankedProperty{
		Property: domain.Property{
			Bedrooms:         4,
			SquareFeet:       ptr(400),
			PriceToRentRatio: ptr(0.2),
			CapRate:          ptr(2.4),
		},
		RatioVsMarketPercent: ptr(-40.0),
	}
	assert.Equal(t, 0, r.Score(worst))

	// all inputs unknown -> neutral tier everywhere
	assert.Equal(t, 50, r.Score(domain.RankedProperty{}))
}

func TestScore_Weights(t *testing.T) {
	onlyRatio := DefaultScoring
	onlyRatio.Weights = ScoreWeights{Ratio: 1}
	r := NewRanker(DefaultThresholds, onlyRatio)

	p := domain.RankedProperty{Property: domain.Property{PriceToRentRatio: ptr(0.85)}}
	assert.Equal(t, 75, r.Score(p))

	zero := DefaultScoring
	zero.Weights = ScoreWeights{}
	assert.Equal(t, 0, NewRanker(DefaultThresholds, zero).Score(p))
}
