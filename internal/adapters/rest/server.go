package rest

import (
	"context"
	"net/http"
	"time"

	core_port "analytics-service/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerOptions - transport settings of the REST server
type ServerOptions struct {
	Port           string
	AllowedOrigins []string
	RateLimit      int
	RateWindow     time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type Server struct {
	httpServer *http.Server
	logger     core_port.LoggerPort
}

func NewServer(opts ServerOptions,
	propertyHandler *PropertyHandler,
	analyticsHandler *AnalyticsHandler,
	exportHandler *ExportHandler,
	healthHandler *HealthHandler,
	baseLogger core_port.LoggerPort) *Server {

	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + opts.Port,
			Handler:           NewRouter(opts, propertyHandler, analyticsHandler, exportHandler, healthHandler, baseLogger),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       opts.ReadTimeout,
			WriteTimeout:      opts.WriteTimeout,
		},
		logger: baseLogger,
	}
}

// NewRouter builds the chi router; exposed separately for httptest.
func NewRouter(opts ServerOptions,
	propertyHandler *PropertyHandler,
	analyticsHandler *AnalyticsHandler,
	exportHandler *ExportHandler,
	healthHandler *HealthHandler,
	baseLogger core_port.LoggerPort) http.Handler {

	r := chi.NewRouter()

	r.Use(middleware.RealIP, LoggerMiddleware(baseLogger), MetricsMiddleware, RecovererMiddleware)

	allowedOrigins := opts.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Trace-ID", "X-User-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Trace-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// служебные эндпоинты не ограничиваем
	r.Get("/healthz", healthHandler.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if opts.RateLimit > 0 && opts.RateWindow > 0 {
			r.Use(httprate.Limit(
				opts.RateLimit,
				opts.RateWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					WriteJSONError(w, http.StatusTooManyRequests, "Too many requests", "Rate limit exceeded, retry later")
				}),
			))
		}
		r.Use(UserMiddleware)

		r.Get("/properties", propertyHandler.FindProperties)
		r.Get("/properties/{propertyID}", propertyHandler.GetPropertyDetails)

		r.Get("/analytics/anomalies", analyticsHandler.GetAnomalies)
		r.Get("/analytics/market", analyticsHandler.GetMarketSummary)

		r.Post("/export/csv", exportHandler.Export("csv"))
		r.Post("/export/pdf", exportHandler.Export("pdf"))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, http.StatusNotFound, "Not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	})

	return r
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST server", core_port.Fields{"address": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST server...", nil)
	return s.httpServer.Shutdown(ctx)
}
