// Package metrics exposes the Prometheus collectors of the clearance service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	gatherer prometheus.Gatherer

	turns             *prometheus.CounterVec
	turnDuration      *prometheus.HistogramVec
	transitions       *prometheus.CounterVec
	itemChanges       *prometheus.CounterVec
	generated         *prometheus.CounterVec
	classifierRetries *prometheus.CounterVec
	analyses          *prometheus.CounterVec
	analysisDuration  prometheus.Histogram
	activeSessions    prometheus.Gauge
}

// New registers the collectors on reg. Use prometheus.NewRegistry in tests.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		turns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clearance_turns_total",
			Help: "Reviewer turns by phase and outcome",
		}, []string{"phase", "outcome"}),
		turnDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clearance_turn_duration_seconds",
			Help:    "Reviewer turn latency, classifier calls included",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"phase"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clearance_phase_transitions_total",
			Help: "Phase transitions by source and target",
		}, []string{"from", "to"}),
		itemChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clearance_item_status_changes_total",
			Help: "Item status changes by kind and new status",
		}, []string{"kind", "status"}),
		generated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clearance_content_generated_total",
			Help: "Generated report sections by phase",
		}, []string{"phase"}),
		classifierRetries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clearance_classifier_retries_total",
			Help: "Malformed classifier replies that were retried",
		}, []string{"phase"}),
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clearance_analyses_total",
			Help: "Uploaded reports by result",
		}, []string{"result"}),
		analysisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "clearance_analysis_duration_seconds",
			Help:    "Analysis pipeline latency",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "clearance_active_sessions",
			Help: "Sessions held in the session table",
		}),
	}
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveTurn(phase, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(phase, outcome).Inc()
	m.turnDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ItemChanged(kind, status string) {
	if m == nil {
		return
	}
	m.itemChanges.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) ContentGenerated(phase string) {
	if m == nil {
		return
	}
	m.generated.WithLabelValues(phase).Inc()
}

func (m *Metrics) ClassifierRetry(phase string) {
	if m == nil {
		return
	}
	m.classifierRetries.WithLabelValues(phase).Inc()
}

func (m *Metrics) ObserveAnalysis(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(result).Inc()
	m.analysisDuration.Observe(d.Seconds())
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
