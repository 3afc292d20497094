package rest

import (
	"context"
	"net/http"
	"time"

	"analytics-service/internal/contextkeys"
	"analytics-service/internal/core/port"
)

// HealthChecker is satisfied by the storage repository.
type HealthChecker interface {
	Ping(ctx context.Context) error
	BreakerState() string
}

type HealthHandler struct {
	checker HealthChecker
	timeout time.Duration
}

func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker, timeout: 2 * time.Second}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Breaker  string `json:"breaker"`
}

// Healthz обрабатывает GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "up", Breaker: h.checker.BreakerState()}
	if err := h.checker.Ping(ctx); err != nil {
		contextkeys.LoggerFromContext(r.Context()).Warn("Health check failed", port.Fields{"error": err.Error()})
		resp.Status = "degraded"
		resp.Database = "down"
		RespondWithJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	RespondWithJSON(w, http.StatusOK, resp)
}
