package rest

import (
	"errors"
	"net/http"

	"analytics-service/internal/core/domain"
	"analytics-service/internal/core/port"
)

const retryAfterSeconds = "30"

// writeUseCaseError maps domain errors to a status. Internal details are
// logged and never sent to the client.
func writeUseCaseError(w http.ResponseWriter, logger port.LoggerPort, err error) {
	var missing *domain.MissingFilterError
	switch {
	case errors.As(err, &missing):
		WriteJSONError(w, http.StatusBadRequest, "Missing required parameter", missing.Error())
	case errors.Is(err, domain.ErrMissingRequiredFilter):
		WriteJSONError(w, http.StatusBadRequest, "Missing required parameter", "")
	case errors.Is(err, domain.ErrPropertyNotFound):
		WriteJSONError(w, http.StatusNotFound, "Property not found", "")
	case errors.Is(err, domain.ErrStorageUnavailable):
		// открытый breaker: тот же ответ, что и при любой ошибке базы
		logger.Error("Storage unavailable", err, nil)
		w.Header().Set("Retry-After", retryAfterSeconds)
		WriteJSONError(w, http.StatusInternalServerError, "Internal server error", "An unexpected error occurred")
	default:
		logger.Error("Use case failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Internal server error", "An unexpected error occurred")
	}
}
