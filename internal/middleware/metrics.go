package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Surfaces partition server traffic in metric labels.
const (
	SurfaceREST = "rest"
	SurfaceFeed = "feed"
	SurfaceOps  = "ops"
)

// HTTPMetrics records server traffic. REST call latency and change feed
// session lifetimes go to separate histograms since a feed connection
// stays open for minutes.
type HTTPMetrics struct {
	feedRoute string

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
	sessions prometheus.Histogram
}

// NewHTTPMetrics registers the server metrics with reg. Requests matched
// to feedRoute are counted as SurfaceFeed.
func NewHTTPMetrics(reg prometheus.Registerer, feedRoute string) *HTTPMetrics {
	factory := promauto.With(reg)

	return &HTTPMetrics{
		feedRoute: feedRoute,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "useradmin",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by surface, route and status",
			},
			[]string{"surface", "method", "route", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "useradmin",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "REST and ops request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"surface", "method", "route"},
		),
		inFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "useradmin",
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Requests being served, including open change feed sessions",
			},
			[]string{"surface"},
		),
		sessions: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "useradmin",
				Subsystem: "feed",
				Name:      "session_duration_seconds",
				Help:      "Lifetime of change feed connections in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
	}
}

// Surface classifies a matched route template.
func (m *HTTPMetrics) Surface(route string) string {
	switch {
	case route == m.feedRoute:
		return SurfaceFeed
	case strings.HasPrefix(route, "/api/"):
		return SurfaceREST
	default:
		return SurfaceOps
	}
}

// Middleware returns the recording middleware.
func (m *HTTPMetrics) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec, w := recorderFor(w)
			route := routeOf(r)
			surface := m.Surface(route)

			gauge := m.inFlight.WithLabelValues(surface)
			gauge.Inc()
			defer gauge.Dec()

			next.ServeHTTP(w, r)

			elapsed := time.Since(start).Seconds()
			m.requests.WithLabelValues(surface, r.Method, route, strconv.Itoa(rec.Status())).Inc()
			if rec.hijacked {
				m.sessions.Observe(elapsed)
				return
			}
			m.duration.WithLabelValues(surface, r.Method, route).Observe(elapsed)
		})
	}
}
