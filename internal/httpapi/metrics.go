package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Route classes used as the "class" label.
const (
	classModel     = "model"
	classSelection = "selection"
	classOps       = "ops"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route class, route, method and status.",
		},
		[]string{"class", "route", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "flowd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route class and route.",
			// Model loads can take tens of seconds.
			Buckets: []float64{.005, .025, .1, .25, 1, 2.5, 10, 30, 120},
		},
		[]string{"class", "route"},
	)

	httpInflight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "flowd",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "In-flight HTTP requests by route class.",
		},
		[]string{"class"},
	)

	backpressureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowd",
			Subsystem: "http",
			Name:      "backpressure_total",
			Help:      "Requests rejected with 429 because the model was busy.",
		},
		[]string{"reason"},
	)

	sessionsIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowd",
			Subsystem: "http",
			Name:      "sessions_issued_total",
			Help:      "Session ids minted, by why the caller had no usable one.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, httpInflight, backpressureTotal, sessionsIssued)
}

// routeClass groups paths into the model lifecycle, per-session selection
// and operational endpoints.
func routeClass(path string) string {
	switch {
	case strings.HasPrefix(path, "/model/"):
		return classModel
	case path == "/catalog", path == "/selection", strings.HasSuffix(path, "/switch"):
		return classSelection
	default:
		return classOps
	}
}

// MetricsMiddleware records request counts and latency. The route label is
// the chi pattern, read once routing has happened, so unknown paths collapse
// into the raw path of a 404 rather than one series per id.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		class := routeClass(r.URL.Path)
		inflight := httpInflight.WithLabelValues(class)
		inflight.Inc()
		defer inflight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		httpRequestsTotal.WithLabelValues(class, route, r.Method, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(class, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// IncrementBackpressure counts a 429 response.
func IncrementBackpressure(reason string) {
	if reason == "" {
		reason = "unspecified"
	}
	backpressureTotal.WithLabelValues(reason).Inc()
}
