// Package telemetry provides application-level observability for the asset registry.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<CUR_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090.  The endpoint returns data in the Prometheus text exposition
// format (Content-Type: text/plain; version=0.0.4) and is intended to be scraped by
// a Prometheus server every 15–60 seconds.  It is NOT served by the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Asset transfer and return counters
//   - Responsibility document generation counters
//   - Notification delivery counters
//   - Audit write failure counter
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/assets/:id/allocation)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments such as asset IDs.
//
// # Usage
//
// Import the package for side effects so metrics are registered before the HTTP server
// starts listening:
//
//	import _ "github.com/curiango/curiango/internal/telemetry"
//
// Or import it directly and use an exported var:
//
//	telemetry.TransfersTotal.WithLabelValues(category).Inc()
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// HTTPRequestsTotal is a CounterVec with labels {method, path, status}.
// The path label holds the Gin route template (e.g. /api/v1/assets/:id/history),
// NOT the raw URL, to prevent unbounded cardinality.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - Requests by route:                 sum by (path) (rate(http_requests_total[5m]))
//
// HTTPRequestDuration is a HistogramVec with labels {method, path} and exponential-ish
// buckets from 5 ms to 30 s.  Use histogram_quantile to compute latency percentiles.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Allocation workflow metrics — recorded by the allocation engine.
//
// TransfersTotal is a CounterVec with label {category} (smartphone, notebook,
// desktop, sim_card) incremented once per successful transfer, whether the asset
// was previously unallocated or moved between custodians.
//
// ReturnsTotal is a CounterVec with the same label, incremented once per return
// that actually closed an open allocation (idempotent no-op returns are not counted).
//
// Example PromQL queries:
//   - Transfer rate by category:  sum by (category) (rate(asset_transfers_total[24h]))
//   - Churn (transfers+returns):  sum(rate(asset_transfers_total[7d])) + sum(rate(asset_returns_total[7d]))
var (
	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_transfers_total",
			Help: "Total number of successful asset transfers, by asset category.",
		},
		[]string{"category"},
	)

	ReturnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_returns_total",
			Help: "Total number of asset returns that closed an open allocation, by asset category.",
		},
		[]string{"category"},
	)
)

// Responsibility document metrics.
//
// DocumentsGeneratedTotal counts documents successfully rendered and delivered
// during a transfer (or by the reconciliation job).  DocumentFailuresTotal counts
// best-effort attempts that failed; the allocation itself still commits, so a
// rising failure counter with a flat generated counter means the renderer or SMTP
// relay is down and the reconciliation job has a growing backlog.
//
// Example PromQL queries:
//   - Failure ratio:  rate(documents_failed_total[1h]) / (rate(documents_generated_total[1h]) + rate(documents_failed_total[1h]))
var (
	DocumentsGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "documents_generated_total",
			Help: "Total number of responsibility documents successfully generated and dispatched.",
		},
	)

	DocumentFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "documents_failed_total",
			Help: "Total number of best-effort document generation or dispatch attempts that failed.",
		},
	)
)

// NotificationsSentTotal is a CounterVec with label {kind} ("allocation" or
// "return") incremented once per email successfully handed to the SMTP relay.
// A stalled counter combined with ongoing transfers is a useful alert signal for
// SMTP delivery failures.
var NotificationsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Total number of notification emails successfully sent, by kind.",
	},
	[]string{"kind"},
)

// AuditWriteFailuresTotal counts audit log writes that failed.  Audit recording
// never surfaces errors to callers, so this counter (plus the error log line) is
// the only signal that the trail is incomplete.  Any increase warrants attention.
var AuditWriteFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "audit_write_failures_total",
		Help: "Total number of audit log entries that could not be persisted.",
	},
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool.  It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request to avoid the overhead of sql.DB.Stats().
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits cleanly when the database becomes unreachable (db.Ping fails),
// which happens automatically when the application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go:
//
//	telemetry.StartDBStatsCollector(database)
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
