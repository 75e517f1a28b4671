package web

// metrics.go wires Prometheus instruments for the export API. Each Server
// owns its own registry so multiple instances (one per test, typically) can
// coexist without duplicate-registration panics.

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// metrics holds all Prometheus metrics for the server.
type metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	exportsTotal   *prometheus.CounterVec
	exportDuration prometheus.Histogram
	exportBytes    prometheus.Histogram
}

// newMetrics creates and registers all Prometheus metrics.
func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsoncsv_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jsoncsv_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		exportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsoncsv_exports_total",
				Help: "Total number of export conversions",
			},
			[]string{"status"},
		),

		exportDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jsoncsv_export_duration_seconds",
				Help:    "Conversion duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		exportBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jsoncsv_export_document_bytes",
				Help:    "Size of assembled CSV documents in bytes",
				Buckets: prometheus.ExponentialBuckets(256, 4, 10),
			},
		),
	}
}

// handler serves this server's registry.
func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// recordExport records the outcome of one conversion.
func (m *metrics) recordExport(ok bool, duration time.Duration, bytes int) {
	status := statusSuccess
	if !ok {
		status = statusError
	}
	m.exportsTotal.WithLabelValues(status).Inc()
	if ok {
		m.exportDuration.Observe(duration.Seconds())
		m.exportBytes.Observe(float64(bytes))
	}
}

// middleware instruments every request with count and duration.
func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		m.httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(ww.status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
