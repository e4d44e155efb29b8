package state

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation names used as metric labels and log fields.
const (
	opLoad   = "load"
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

// Metrics records client-side operation outcomes. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	staleLoads prometheus.Counter
}

// NewMetrics registers the store metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "useradmin",
				Subsystem: "client",
				Name:      "operations_total",
				Help:      "Total number of store operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "useradmin",
				Subsystem: "client",
				Name:      "operation_duration_seconds",
				Help:      "Transport call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		staleLoads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "useradmin",
				Subsystem: "client",
				Name:      "stale_loads_total",
				Help:      "Load results discarded because a newer load was issued",
			},
		),
	}
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) stale() {
	if m == nil {
		return
	}
	m.staleLoads.Inc()
}
