package rest

import (
	"net/http"

	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/port"
	"analytics-service/internal/core/port/usecases_port"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type PropertyHandler struct {
	findPropertiesUC     usecases_port.FindPropertiesUseCase
	getPropertyDetailsUC usecases_port.GetPropertyDetailsUseCase
}

func NewPropertyHandler(findPropertiesUC usecases_port.FindPropertiesUseCase,
	getPropertyDetailsUC usecases_port.GetPropertyDetailsUseCase) *PropertyHandler {
	return &PropertyHandler{
		findPropertiesUC:     findPropertiesUC,
		getPropertyDetailsUC: getPropertyDetailsUC,
	}
}

// FindProperties обрабатывает GET /properties
func (h *PropertyHandler) FindProperties(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())

	query := parseSearchQuery(queryValues(r.URL.Query()))

	handlerLogger := logger.WithFields(port.Fields{
		"handler": "FindProperties",
		"limit":   query.Page.Limit,
		"offset":  query.Page.Offset,
	})
	handlerLogger.Debug("Processing request to find properties", nil)

	page, err := h.findPropertiesUC.Execute(r.Context(), query)
	if err != nil {
		writeUseCaseError(w, handlerLogger, err)
		return
	}

	handlerLogger.Debug("Successfully found properties", port.Fields{
		"total_found":   page.Total,
		"items_on_page": len(page.Properties),
	})

	RespondWithJSON(w, http.StatusOK, toSearchResponse(page))
}

// GetPropertyDetails обрабатывает GET /properties/{propertyID}
func (h *PropertyHandler) GetPropertyDetails(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())

	idStr := chi.URLParam(r, "propertyID")
	handlerLogger := logger.WithFields(port.Fields{
		"handler":     "GetPropertyDetails",
		"property_id": idStr,
	})

	// некорректный id неотличим от отсутствующего объекта
	id, err := uuid.Parse(idStr)
	if err != nil {
		handlerLogger.Debug("Malformed property id", nil)
		WriteJSONError(w, http.StatusNotFound, "Property not found", "")
		return
	}

	view, err := h.getPropertyDetailsUC.Execute(r.Context(), id)
	if err != nil {
		writeUseCaseError(w, handlerLogger, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, toDetailsResponse(view))
}
