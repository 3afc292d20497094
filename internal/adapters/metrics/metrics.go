package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// Search cache
	SearchCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_search_cache_hits_total",
			Help: "Total number of search cache hits",
		},
	)

	SearchCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_search_cache_misses_total",
			Help: "Total number of search cache misses",
		},
	)

	SearchCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "analytics_search_cache_entries",
			Help: "Current number of cached search pages",
		},
	)

	// Storage
	StorageBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_storage_breaker_transitions_total",
			Help: "Circuit breaker state transitions around storage reads",
		},
		[]string{"name", "from", "to"},
	)

	MarketAggregateGroups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "analytics_market_aggregate_groups",
			Help: "Number of (zip, bedrooms) groups in the last aggregate refresh",
		},
	)

	StaleListingsDeactivated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_stale_listings_deactivated_total",
			Help: "Total number of listings deactivated by the retention sweep",
		},
	)

	// Ingestion
	ListingsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_listings_ingested_total",
			Help: "Listings processed by the ingestion consumer",
		},
		[]string{"outcome"}, // created, updated, rent_estimated, flagged
	)

	IngestBatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_ingest_batch_failures_total",
			Help: "Ingestion batches rejected for retry",
		},
		[]string{"reason"}, // validation, storage
	)

	DealsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_deals_published_total",
			Help: "Deal flag events published to the broker",
		},
		[]string{"result"}, // success, error
	)

	Exports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_exports_total",
			Help: "Generated export attachments",
		},
		[]string{"format"},
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	HTTPRequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, route, code).Inc()
}

// RecordBreakerTransition is shaped to plug into the storage breaker settings.
func RecordBreakerTransition(name, from, to string) {
	StorageBreakerTransitions.WithLabelValues(name, from, to).Inc()
}
