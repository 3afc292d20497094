package rest

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"analytics-service/internal/adapters/export"
	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	find      *mockFindProperties
	details   *mockGetPropertyDetails
	anomalies *mockFindAnomalies
	market    *mockGetMarketSummary
	export    *mockExportProperties
	health    *mockHealthChecker
	router    http.Handler
}

func newTestServer(t *testing.T, opts ServerOptions) *testServer {
	t.Helper()
	s := &testServer{
		find:      &mockFindProperties{},
		details:   &mockGetPropertyDetails{},
		anomalies: &mockFindAnomalies{},
		market:    &mockGetMarketSummary{},
		export:    &mockExportProperties{},
		health:    &mockHealthChecker{},
	}
	renderers := map[string]port.ReportRendererPort{
		"csv": export.NewCSVRenderer(),
		"pdf": export.NewPDFRenderer("analytics-service"),
	}
	s.router = NewRouter(opts,
		NewPropertyHandler(s.find, s.details),
		NewAnalyticsHandler(s.anomalies, s.market),
		NewExportHandler(s.export, renderers),
		NewHealthHandler(s.health),
		discardLogger{},
	)
	t.Cleanup(func() {
		s.find.AssertExpectations(t)
		s.details.AssertExpectations(t)
		s.anomalies.AssertExpectations(t)
		s.market.AssertExpectations(t)
		s.export.AssertExpectations(t)
		s.health.AssertExpectations(t)
	})
	return s
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func sampleProperty() domain.RankedProperty {
	good := domain.DealQualityGood
	return domain.RankedProperty{
		Property: domain.Property{
			ID:               uuid.MustParse("7f1d1a4e-55c4-4a7e-9f58-2c1f0c1b7a01"),
			ExternalID:       "mls-1",
			DataSource:       "mls",
			Street:           "1 Main St",
			City:             "Springfield",
			State:            "IL",
			ZipCode:          "62701",
			Bedrooms:         2,
			Bathrooms:        1.5,
			PropertyType:     domain.PropertyTypeCondo,
			ListPrice:        30000000,
			MonthlyRent:      ptr(int64(250000)),
			PriceToRentRatio: ptr(0.83),
			CapRate:          ptr(10.0),
			IsActive:         true,
		},
		GrossRentMultiplier:  ptr(10.0),
		RatioVsMarketPercent: ptr(18.57),
		DealQuality:          &good,
		IsExceptionalDeal:    true,
		Score:                71,
	}
}

func TestFindProperties(t *testing.T) {
	s := newTestServer(t, ServerOptions{})

	s.find.On("Execute", mock.Anything, mock.MatchedBy(func(q domain.SearchQuery) bool {
		return q.Filter.City == "Springfield" &&
			q.Filter.PriceMax != nil && *q.Filter.PriceMax == 40000000 &&
			q.Filter.PriceMin == nil &&
			q.Sort == domain.DefaultSort &&
			q.Page == domain.Page{Limit: 10, Offset: 0}
	})).Return(&domain.RankedPage{
		Properties: []domain.RankedProperty{sampleProperty()},
		Total:      11,
		Page:       domain.Page{Limit: 10},
		HasMore:    true,
		Filter:     domain.SearchFilter{City: "Springfield", PriceMax: ptr(int64(40000000))},
		Sort:       domain.DefaultSort,
	}, nil).Once()

	rec := s.do(http.MethodGet, "/properties?city=Springfield&maxPrice=400000&minPrice=abc&sortBy=nope&limit=10", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	resp := decode[SearchResponse](t, rec)
	require.Len(t, resp.Properties, 1)
	p := resp.Properties[0]
	assert.Equal(t, "7f1d1a4e-55c4-4a7e-9f58-2c1f0c1b7a01", p.ID)
	assert.Equal(t, "1 Main St", p.Address)
	assert.Equal(t, 300000.0, p.ListPrice)
	require.NotNil(t, p.MonthlyRent)
	assert.Equal(t, 2500.0, *p.MonthlyRent)
	assert.Equal(t, "good", *p.DealQuality)
	assert.True(t, p.IsExceptionalDeal)

	assert.Equal(t, PaginationDTO{Total: 11, Limit: 10, Offset: 0, HasMore: true}, resp.Pagination)
	assert.Equal(t, "Springfield", resp.Filters.City)
	require.NotNil(t, resp.Filters.MaxPrice)
	assert.Equal(t, 400000.0, *resp.Filters.MaxPrice)
	assert.Equal(t, "price_to_rent_ratio", resp.Filters.SortBy)
	assert.Equal(t, "DESC", resp.Filters.SortOrder)

	raw := decode[map[string]any](t, rec)
	assert.NotContains(t, raw["filters"], "minPrice", "unapplied filters are not echoed")
}

func TestFindProperties_EmptyResultIsArray(t *testing.T) {
	s := newTestServer(t, ServerOptions{})
	s.find.On("Execute", mock.Anything, mock.Anything).
		Return(&domain.RankedPage{Page: domain.Page{Limit: 50}, Sort: domain.DefaultSort}, nil).Once()

	rec := s.do(http.MethodGet, "/properties", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"properties":[]`)
}

func TestFindProperties_Errors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		retryAfter string
	}{
		{"internal", errors.New("pq: relation \"properties\" does not exist"), ""},
		{"storage down", fmt.Errorf("find: %w", domain.ErrStorageUnavailable), "30"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, ServerOptions{})
			s.find.On("Execute", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			rec := s.do(http.MethodGet, "/properties", "")

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tc.retryAfter, rec.Header().Get("Retry-After"))
			body := decode[errorResponse](t, rec)
			assert.Equal(t, "Internal server error", body.Error)
			assert.Equal(t, "An unexpected error occurred", body.Message)
			assert.NotContains(t, rec.Body.String(), "relation")
			assert.NotContains(t, rec.Body.String(), "unavailable")
		})
	}
}

func TestHandlerPanicIsJSONError(t *testing.T) {
	s := newTestServer(t, ServerOptions{})
	s.find.On("Execute", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { panic("assignment to entry in nil map") }).
		Return(nil, nil).Once()

	rec := s.do(http.MethodGet, "/properties", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, errorResponse{Error: "Internal server error", Message: "An unexpected error occurred"}, decode[errorResponse](t, rec))
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}

func TestGetPropertyDetails(t *testing.T) {
	s := newTestServer(t, ServerOptions{})
	subject := sampleProperty()
	comp := sampleProperty()
	comp.ID = uuid.New()

	s.details.On("Execute", mock.Anything, subject.ID).Return(&domain.PropertyDetailsView{
		Property:    subject,
		Comparables: []domain.RankedProperty{comp},
		MarketPosition: domain.MarketPosition{
			PeerCount:      6,
			MedianRatio:    ptr(0.7),
			PercentileRank: ptr(83.33),
		},
		RentEstimate: domain.RentEstimate{CompCount: 2},
	}, nil).Once()

	rec := s.do(http.MethodGet, "/properties/"+subject.ID.String(), "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[PropertyDetailsResponse](t, rec)
	assert.Equal(t, subject.ID.String(), resp.Property.ID)
	require.Len(t, resp.Comparables, 1)
	assert.Equal(t, comp.ID.String(), resp.Comparables[0].ID)
	assert.Equal(t, 6, resp.MarketPosition.PeerCount)
	assert.True(t, resp.MarketPosition.Sufficient)
	assert.Equal(t, 83.33, *resp.MarketPosition.PercentileRank)
	assert.False(t, resp.RentEstimate.Sufficient)
	assert.Nil(t, resp.RentEstimate.MedianRent)
}

func TestGetPropertyDetails_NotFound(t *testing.T) {
	s := newTestServer(t, ServerOptions{})
	id := uuid.New()
	s.details.On("Execute", mock.Anything, id).Return(nil, domain.ErrPropertyNotFound).Once()

	rec := s.do(http.MethodGet, "/properties/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Property not found", decode[errorResponse](t, rec).Error)

	// malformed id never reaches the use case
	rec = s.do(http.MethodGet, "/properties/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Property not found", decode[errorResponse](t, rec).Error)
}

func TestGetAnomalies(t *testing.T) {
	s := newTestServer(t, ServerOptions{})

	s.anomalies.On("Execute", mock.Anything, domain.AnomalyCriteria{
		MinImprovement: nil,
		ZipCode:        "62701",
		MaxPrice:       ptr(int64(35000000)),
		Limit:          5,
	}).Return(&domain.AnomalyResult{
		Anomalies: []domain.RankedProperty{sampleProperty()},
		Criteria: domain.AnomalyCriteria{
			MinImprovement: ptr(10.0),
			ZipCode:        "62701",
			MaxPrice:       ptr(int64(35000000)),
			Limit:          5,
		},
	}, nil).Once()

	rec := s.do(http.MethodGet, "/analytics/anomalies?zipCode=62701&maxPrice=350000&limit=5&minImprovement=oops", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[AnomaliesResponse](t, rec)
	require.Len(t, resp.Anomalies, 1)
	assert.Equal(t, 18.57, *resp.Anomalies[0].RatioVsMarketPercent)
	assert.Equal(t, 10.0, resp.Criteria.MinImprovement)
	assert.Equal(t, 350000.0, *resp.Criteria.MaxPrice)
	assert.Equal(t, 5, resp.Criteria.Limit)
}

func TestGetMarketSummary(t *testing.T) {
	s := newTestServer(t, ServerOptions{})

	s.market.On("Execute", mock.Anything, domain.MarketQuery{State: "IL", City: "Springfield"}).
		Return(&domain.MarketSummary{
			Query:             domain.MarketQuery{State: "IL", City: "Springfield"},
			SampleSize:        4,
			MinimumSampleSize: 3,
			Ratio:             &domain.StatSummary{Count: 4, Mean: 0.75, Median: 0.7, P25: 0.6, P75: 0.8, Min: 0.5, Max: 0.9},
			ListPrice:         &domain.StatSummary{Count: 4, Median: 30000000},
		}, nil).Once()

	rec := s.do(http.MethodGet, "/analytics/market?state=IL&city=Springfield", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[MarketSummaryResponse](t, rec)
	assert.True(t, resp.Sufficient)
	assert.Empty(t, resp.Message)
	assert.Equal(t, 0.7, resp.PriceToRentRatio.Median)
	assert.Equal(t, 300000.0, resp.ListPrice.Median)
	assert.Nil(t, resp.MonthlyRent)
}

func TestGetMarketSummary_InsufficientData(t *testing.T) {
	s := newTestServer(t, ServerOptions{})
	s.market.On("Execute", mock.Anything, mock.Anything).
		Return(&domain.MarketSummary{Query: domain.MarketQuery{State: "VT"}, SampleSize: 2, MinimumSampleSize: 3}, nil).Once()

	rec := s.do(http.MethodGet, "/analytics/market?state=VT", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[MarketSummaryResponse](t, rec)
	assert.False(t, resp.Sufficient)
	assert.Equal(t, "Insufficient data", resp.Message)
	assert.Nil(t, resp.PriceToRentRatio)
}

func TestGetMarketSummary_MissingState(t *testing.T) {
	s := newTestServer(t, ServerOptions{})
	s.market.On("Execute", mock.Anything, mock.Anything).
		Return(nil, &domain.MissingFilterError{Field: "state"}).Once()

	rec := s.do(http.MethodGet, "/analytics/market?city=Springfield", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "Missing required parameter", body.Error)
	assert.Equal(t, "state is required", body.Message)
}

func exportReport(rows ...domain.RankedProperty) *domain.ExportReport {
	return &domain.ExportReport{
		Title:       "Property Investment Report",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Columns:     domain.DefaultExportColumns,
		Properties:  rows,
		Total:       len(rows),
		Sort:        domain.DefaultSort,
	}
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t, ServerOptions{})

	s.export.On("Execute", mock.Anything, mock.MatchedBy(func(req domain.ExportRequest) bool {
		f := req.Query.Filter
		return f.City == "Springfield" &&
			f.PriceMax != nil && *f.PriceMax == 40000000 &&
			f.Bedrooms != nil && *f.Bedrooms == 2 &&
			f.AnomaliesOnly &&
			len(req.Columns) == 2 && req.Columns[0] == domain.ExportColZipCode &&
			req.Title == "Deals"
	})).Return(exportReport(sampleProperty()), nil).Once()

	body := `{"filters":{"city":"Springfield","maxPrice":400000,"bedrooms":"2","anomaliesOnly":true},
		"columns":["zipCode","priceToRentRatio"],"title":"Deals"}`
	rec := s.do(http.MethodPost, "/export/csv", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="properties-20260301-120000.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "62701")
}

func TestExportPDF(t *testing.T) {
	s := newTestServer(t, ServerOptions{})
	s.export.On("Execute", mock.Anything, mock.Anything).Return(exportReport(sampleProperty()), nil).Once()

	rec := s.do(http.MethodPost, "/export/pdf", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestExport_InvalidOptions(t *testing.T) {
	s := newTestServer(t, ServerOptions{})

	cases := map[string]string{
		"unknown column": `{"columns":["zipCode","password"]}`,
		"duplicate":      `{"columns":["zipCode","zipCode"]}`,
		"long title":     fmt.Sprintf(`{"title":%q}`, strings.Repeat("x", 121)),
		"not json":       `{"filters": nope}`,
		"wrong shape":    `["zipCode"]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/export/csv", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode[errorResponse](t, rec).Message)
		})
	}
}

func TestExport_UnknownColumnMessage(t *testing.T) {
	s := newTestServer(t, ServerOptions{})

	rec := s.do(http.MethodPost, "/export/pdf", `{"columns":["password"]}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "Invalid export options", body.Error)
	assert.Equal(t, `columns[0]: unknown column "password"`, body.Message)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, ServerOptions{})
	s.health.On("Ping", mock.Anything).Return(nil).Once()
	s.health.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()

	rec := s.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, healthResponse{Status: "ok", Database: "up", Breaker: "closed"}, decode[healthResponse](t, rec))

	rec = s.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "down", decode[healthResponse](t, rec).Database)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, ServerOptions{})
	s.find.On("Execute", mock.Anything, mock.Anything).
		Return(&domain.RankedPage{Page: domain.Page{Limit: 50}, Sort: domain.DefaultSort}, nil).Once()

	s.do(http.MethodGet, "/properties", "")
	rec := s.do(http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `analytics_http_requests_total{method="GET",route="/properties",status="200"}`)
}

func TestTraceIDHeader(t *testing.T) {
	s := newTestServer(t, ServerOptions{})
	s.health.On("Ping", mock.Anything).Return(nil).Twice()

	traceID := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Trace-ID", traceID)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, traceID, rec.Header().Get("X-Trace-ID"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Trace-ID", "'; DROP")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	_, err := uuid.Parse(rec.Header().Get("X-Trace-ID"))
	assert.NoError(t, err, "invalid trace ids are replaced")
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, ServerOptions{RateLimit: 1, RateWindow: time.Minute})
	s.find.On("Execute", mock.Anything, mock.Anything).
		Return(&domain.RankedPage{Page: domain.Page{Limit: 50}, Sort: domain.DefaultSort}, nil).Once()

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/properties", "").Code)

	rec := s.do(http.MethodGet, "/properties", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests", decode[errorResponse](t, rec).Error)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, ServerOptions{})

	rec := s.do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/properties", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
