package rest

import (
	"net/http"

	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"
	"analytics-service/internal/core/port/usecases_port"
)

type AnalyticsHandler struct {
	findAnomaliesUC    usecases_port.FindAnomaliesUseCase
	getMarketSummaryUC usecases_port.GetMarketSummaryUseCase
}

func NewAnalyticsHandler(findAnomaliesUC usecases_port.FindAnomaliesUseCase,
	getMarketSummaryUC usecases_port.GetMarketSummaryUseCase) *AnalyticsHandler {
	return &AnalyticsHandler{
		findAnomaliesUC:    findAnomaliesUC,
		getMarketSummaryUC: getMarketSummaryUC,
	}
}

// GetAnomalies обрабатывает GET /analytics/anomalies
func (h *AnalyticsHandler) GetAnomalies(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())
	src := queryValues(r.URL.Query())

	criteria := domain.AnomalyCriteria{
		MinImprovement: parseFloat(src, "minImprovement"),
		ZipCode:        parseString(src, "zipCode"),
		MaxPrice:       parseDollars(src, "maxPrice"),
	}
	if limit := parseInt(src, "limit"); limit != nil {
		criteria.Limit = *limit
	}

	handlerLogger := logger.WithFields(port.Fields{
		"handler":  "GetAnomalies",
		"zip_code": criteria.ZipCode,
	})

	result, err := h.findAnomaliesUC.Execute(r.Context(), criteria)
	if err != nil {
		writeUseCaseError(w, handlerLogger, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, toAnomaliesResponse(result))
}

// GetMarketSummary обрабатывает GET /analytics/market
func (h *AnalyticsHandler) GetMarketSummary(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())
	src := queryValues(r.URL.Query())

	query := domain.MarketQuery{
		State:    parseString(src, "state"),
		City:     parseString(src, "city"),
		ZipCode:  parseString(src, "zipCode"),
		Bedrooms: parseNonNegativeInt(src, "bedrooms"),
	}

	handlerLogger := logger.WithFields(port.Fields{
		"handler": "GetMarketSummary",
		"state":   query.State,
		"city":    query.City,
	})

	summary, err := h.getMarketSummaryUC.Execute(r.Context(), query)
	if err != nil {
		writeUseCaseError(w, handlerLogger, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, toMarketSummaryResponse(summary))
}
