// Package metrics exposes Prometheus collectors for the auction engine,
// the scheduler and the HTTP layer. A nil *Metrics records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector the service records
type Metrics struct {
	Bids              *prometheus.CounterVec
	Settlements       *prometheus.CounterVec
	Markdowns         prometheus.Counter
	SchedulerFired    *prometheus.CounterVec
	SchedulerPending  prometheus.Gauge
	NotifyDropped     prometheus.Counter
	RequestDuration   *prometheus.HistogramVec
	ConsistencyErrors prometheus.Counter
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Bids: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auction",
			Name:      "bids_total",
			Help:      "Bids processed, labelled by result code (accepted or rejection code).",
		}, []string{"result"}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auction",
			Name:      "settlements_total",
			Help:      "Settlement callbacks, labelled by outcome.",
		}, []string{"outcome"}),
		Markdowns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "auction",
			Name:      "markdowns_total",
			Help:      "Goods whose price was halved for lack of bids.",
		}),
		SchedulerFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auction",
			Subsystem: "scheduler",
			Name:      "callbacks_total",
			Help:      "Timer callbacks run, labelled by result (ok, error, panic).",
		}, []string{"result"}),
		SchedulerPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "auction",
			Subsystem: "scheduler",
			Name:      "pending_timers",
			Help:      "Timers registered and not yet fired or cancelled.",
		}),
		NotifyDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "auction",
			Name:      "notifications_dropped_total",
			Help:      "Bid events dropped because the notification queue was full.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "auction",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		ConsistencyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "auction",
			Name:      "consistency_violations_total",
			Help:      "Detected invariant violations on money or sold state.",
		}),
	}

	reg.MustRegister(
		m.Bids,
		m.Settlements,
		m.Markdowns,
		m.SchedulerFired,
		m.SchedulerPending,
		m.NotifyDropped,
		m.RequestDuration,
		m.ConsistencyErrors,
	)
	return m
}

// BidResult counts one processed bid
func (m *Metrics) BidResult(result string) {
	if m == nil {
		return
	}
	m.Bids.WithLabelValues(result).Inc()
}

// Settled counts one settlement outcome
func (m *Metrics) Settled(outcome string) {
	if m == nil {
		return
	}
	m.Settlements.WithLabelValues(outcome).Inc()
}

// MarkedDown counts one applied markdown
func (m *Metrics) MarkedDown() {
	if m == nil {
		return
	}
	m.Markdowns.Inc()
}

// CallbackResult counts one scheduler callback
func (m *Metrics) CallbackResult(result string) {
	if m == nil {
		return
	}
	m.SchedulerFired.WithLabelValues(result).Inc()
}

// SetPending reports the current number of pending timers
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.SchedulerPending.Set(float64(n))
}

// Dropped counts a notification that could not be queued
func (m *Metrics) Dropped() {
	if m == nil {
		return
	}
	m.NotifyDropped.Inc()
}

// ObserveRequest records HTTP latency
func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

// ConsistencyViolation counts a detected invariant violation
func (m *Metrics) ConsistencyViolation() {
	if m == nil {
		return
	}
	m.ConsistencyErrors.Inc()
}
