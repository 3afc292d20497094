package rest

import (
	"math"

	"analytics-service/internal/core/domain"
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func centsToDollars(cents int64) float64 {
	return float64(cents) / 100
}

func optionalDollars(cents *int64) *float64 {
	if cents == nil {
		return nil
	}
	d := centsToDollars(*cents)
	return &d
}

func toPropertyDTO(p domain.RankedProperty) PropertyDTO {
	dto := PropertyDTO{
		ID:                   p.ID.String(),
		ExternalID:           p.ExternalID,
		DataSource:           p.DataSource,
		Address:              p.Street,
		City:                 p.City,
		State:                p.State,
		ZipCode:              p.ZipCode,
		Latitude:             p.Latitude,
		Longitude:            p.Longitude,
		Bedrooms:             p.Bedrooms,
		Bathrooms:            p.Bathrooms,
		SquareFeet:           p.SquareFeet,
		PropertyType:         string(p.PropertyType),
		ListPrice:            centsToDollars(p.ListPrice),
		MonthlyRent:          optionalDollars(p.MonthlyRent),
		PriceToRentRatio:     p.PriceToRentRatio,
		CapRate:              p.CapRate,
		GrossRentMultiplier:  p.GrossRentMultiplier,
		RatioVsMarketPercent: p.RatioVsMarketPercent,
		IsExceptionalDeal:    p.IsExceptionalDeal,
		Score:                p.Score,
		CreatedAt:            p.CreatedAt,
		LastUpdated:          p.LastUpdated,
		IsActive:             p.IsActive,
	}
	if p.DealQuality != nil {
		q := string(*p.DealQuality)
		dto.DealQuality = &q
	}
	return dto
}

// toPropertyDTOs never returns nil so empty lists encode as [].
func toPropertyDTOs(props []domain.RankedProperty) []PropertyDTO {
	out := make([]PropertyDTO, 0, len(props))
	for _, p := range props {
		out = append(out, toPropertyDTO(p))
	}
	return out
}

func toFiltersDTO(f domain.SearchFilter, sort domain.Sort) FiltersDTO {
	return FiltersDTO{
		ZipCode:        f.ZipCode,
		City:           f.City,
		State:          f.State,
		PropertyType:   string(f.PropertyType),
		MinPrice:       optionalDollars(f.PriceMin),
		MaxPrice:       optionalDollars(f.PriceMax),
		MinRent:        optionalDollars(f.RentMin),
		MaxRent:        optionalDollars(f.RentMax),
		MinRatio:       f.RatioMin,
		MaxRatio:       f.RatioMax,
		MinCapRate:     f.CapRateMin,
		MaxCapRate:     f.CapRateMax,
		Bedrooms:       f.Bedrooms,
		Bathrooms:      f.BathroomsMin,
		MinSquareFeet:  f.SquareFeetMin,
		MaxSquareFeet:  f.SquareFeetMax,
		MinImprovement: f.MarketImprovementMin,
		AnomaliesOnly:  f.AnomaliesOnly,
		SortBy:         string(sort.Field),
		SortOrder:      string(sort.Direction),
	}
}

func toSearchResponse(page *domain.RankedPage) SearchResponse {
	return SearchResponse{
		Properties: toPropertyDTOs(page.Properties),
		Pagination: PaginationDTO{
			Total:   page.Total,
			Limit:   page.Page.Limit,
			Offset:  page.Page.Offset,
			HasMore: page.HasMore,
		},
		Filters: toFiltersDTO(page.Filter, page.Sort),
	}
}

func toDetailsResponse(view *domain.PropertyDetailsView) PropertyDetailsResponse {
	return PropertyDetailsResponse{
		Property:    toPropertyDTO(view.Property),
		Comparables: toPropertyDTOs(view.Comparables),
		MarketPosition: MarketPositionDTO{
			PeerCount:      view.MarketPosition.PeerCount,
			MedianRatio:    view.MarketPosition.MedianRatio,
			PercentileRank: view.MarketPosition.PercentileRank,
			Sufficient:     view.MarketPosition.PercentileRank != nil,
		},
		RentEstimate: RentEstimateDTO{
			CompCount:  view.RentEstimate.CompCount,
			MedianRent: optionalDollars(view.RentEstimate.MedianRent),
			Sufficient: view.RentEstimate.Sufficient,
		},
	}
}

func toAnomaliesResponse(result *domain.AnomalyResult) AnomaliesResponse {
	resp := AnomaliesResponse{
		Anomalies: toPropertyDTOs(result.Anomalies),
		Criteria: AnomalyCriteriaDTO{
			ZipCode:  result.Criteria.ZipCode,
			MaxPrice: optionalDollars(result.Criteria.MaxPrice),
			Limit:    result.Criteria.Limit,
		},
	}
	if result.Criteria.MinImprovement != nil {
		resp.Criteria.MinImprovement = *result.Criteria.MinImprovement
	}
	return resp
}

// toStatDTO converts a summary; money series are scaled from cents.
func toStatDTO(s *domain.StatSummary, scale float64) *StatSummaryDTO {
	if s == nil {
		return nil
	}
	return &StatSummaryDTO{
		Count:  s.Count,
		Mean:   round2(s.Mean / scale),
		Median: round2(s.Median / scale),
		P25:    round2(s.P25 / scale),
		P75:    round2(s.P75 / scale),
		Min:    round2(s.Min / scale),
		Max:    round2(s.Max / scale),
	}
}

func toMarketSummaryResponse(s *domain.MarketSummary) MarketSummaryResponse {
	resp := MarketSummaryResponse{
		Market: MarketQueryDTO{
			State:    s.Query.State,
			City:     s.Query.City,
			ZipCode:  s.Query.ZipCode,
			Bedrooms: s.Query.Bedrooms,
		},
		SampleSize:        s.SampleSize,
		MinimumSampleSize: s.MinimumSampleSize,
		Sufficient:        s.Sufficient(),
		PriceToRentRatio:  toStatDTO(s.Ratio, 1),
		ListPrice:         toStatDTO(s.ListPrice, 100),
		MonthlyRent:       toStatDTO(s.MonthlyRent, 100),
	}
	if !resp.Sufficient {
		resp.Message = "Insufficient data"
	}
	return resp
}
