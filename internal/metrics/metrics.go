// Package metrics holds the Prometheus instruments of the marina service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics holds Prometheus metrics for the marina service. A nil *Metrics is a valid no-op.
type Metrics struct {
	// ReservationOps counts reservation writes by operation and outcome.
	ReservationOps *prometheus.CounterVec

	// OverlapConflicts counts writes rejected because the stay overlapped another.
	OverlapConflicts prometheus.Counter

	// LockWait is the time spent waiting for catway locks.
	LockWait prometheus.Histogram

	// LockTimeouts counts lock waits that gave up.
	LockTimeouts prometheus.Counter

	// AvailabilityChanges counts flips of the catway availability flag.
	AvailabilityChanges *prometheus.CounterVec

	// ReconcileFailures counts availability recounts that failed after a committed write.
	ReconcileFailures prometheus.Counter

	// EventsPublished counts domain events by type and outcome.
	EventsPublished *prometheus.CounterVec

	// HTTPRequests is the request latency by route and status.
	HTTPRequests *prometheus.HistogramVec
}

// NewMetrics creates the metrics and registers them on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ReservationOps: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reservation_operations_total",
				Help:      "Reservation writes by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),

		OverlapConflicts: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "overlap_conflicts_total",
				Help:      "Reservation writes rejected because of an overlapping stay",
			},
		),

		LockWait: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "catway_lock_wait_seconds",
				Help:      "Time spent waiting for catway locks",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
		),

		LockTimeouts: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catway_lock_timeouts_total",
				Help:      "Catway lock waits that timed out",
			},
		),

		AvailabilityChanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catway_availability_changes_total",
				Help:      "Changes of the catway availability flag",
			},
			[]string{"available"},
		),

		ReconcileFailures: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "availability_reconcile_failures_total",
				Help:      "Availability recounts that failed after a committed write",
			},
		),

		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Domain events published by type and outcome",
			},
			[]string{"type", "outcome"},
		),

		HTTPRequests: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

// IncReservationOp records the outcome of a reservation write.
func (m *Metrics) IncReservationOp(operation, outcome string) {
	if m == nil {
		return
	}
	m.ReservationOps.WithLabelValues(operation, outcome).Inc()
	if outcome == OutcomeConflict {
		m.OverlapConflicts.Inc()
	}
}

// ObserveLockWait records how long a lock wait took and whether it timed out.
func (m *Metrics) ObserveLockWait(d time.Duration, timedOut bool) {
	if m == nil {
		return
	}
	m.LockWait.Observe(d.Seconds())
	if timedOut {
		m.LockTimeouts.Inc()
	}
}

// IncAvailabilityChange records a flip of the availability flag.
func (m *Metrics) IncAvailabilityChange(available bool) {
	if m == nil {
		return
	}
	m.AvailabilityChanges.WithLabelValues(strconv.FormatBool(available)).Inc()
}

// IncReconcileFailure records a failed recount.
func (m *Metrics) IncReconcileFailure() {
	if m == nil {
		return
	}
	m.ReconcileFailures.Inc()
}

// IncEventPublished records a publish attempt.
func (m *Metrics) IncEventPublished(eventType, outcome string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType, outcome).Inc()
}

// Middleware records request latency labelled by the matched route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
