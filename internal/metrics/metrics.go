// Package metrics provides Prometheus metrics for the share service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_share_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_share_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	sharesMintedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_share_mint_total",
			Help: "Share mint attempts by prefix and outcome",
		},
		[]string{"prefix", "outcome"},
	)

	sharesResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_share_resolve_total",
			Help: "Share resolve attempts by prefix and outcome",
		},
		[]string{"prefix", "outcome"},
	)

	backendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_share_backend_duration_seconds",
			Help:    "Storage backend call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "op", "status"},
	)

	contentBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_share_content_bytes",
			Help:    "Size of minted and resolved share documents",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"op"},
	)
)

// RecordMint counts one mint attempt.
func RecordMint(prefix, outcome string, size int) {
	sharesMintedTotal.WithLabelValues(prefix, outcome).Inc()
	if outcome == "ok" {
		contentBytes.WithLabelValues("mint").Observe(float64(size))
	}
}

// RecordResolve counts one resolve attempt.
func RecordResolve(prefix, outcome string, size int) {
	sharesResolvedTotal.WithLabelValues(prefix, outcome).Inc()
	if outcome == "ok" {
		contentBytes.WithLabelValues("resolve").Observe(float64(size))
	}
}

// ObserveBackend records the latency of one backend call.
func ObserveBackend(service, op string, d time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	backendDuration.WithLabelValues(service, op, status).Observe(d.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and durations labelled by chi route
// pattern, keeping label cardinality independent of share ids.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
