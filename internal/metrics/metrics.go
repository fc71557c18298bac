// Package metrics exposes pipeline and HTTP measurements as Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics implements classify.Recorder on top of Prometheus collectors.
type Metrics struct {
	events       *prometheus.CounterVec
	validation   *prometheus.CounterVec
	inference    *prometheus.HistogramVec
	cavityLabels *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rfclassifier_events_total",
			Help: "Fault events analyzed, by outcome.",
		}, []string{"outcome"}),
		validation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rfclassifier_validation_failures_total",
			Help: "Events rejected before classification, by reason.",
		}, []string{"reason"}),
		inference: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rfclassifier_inference_seconds",
			Help:    "Inference engine latency per classification stage.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"stage"}),
		cavityLabels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rfclassifier_cavity_labels_total",
			Help: "Stage-one cavity labels produced.",
		}, []string{"label"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rfclassifier_http_requests_total",
			Help: "HTTP requests served, by route pattern and status code.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.events, m.validation, m.inference, m.cavityLabels, m.httpRequests)
	return m
}

func (m *Metrics) ObserveInference(stage string, d time.Duration) {
	m.inference.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) CavityLabel(label string) {
	m.cavityLabels.WithLabelValues(label).Inc()
}

func (m *Metrics) EventAnalyzed(outcome string) {
	m.events.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ValidationFailed(reason string) {
	m.validation.WithLabelValues(reason).Inc()
}

// HTTPRequest counts one served request. route should be the router pattern,
// not the raw path, to keep cardinality bounded.
func (m *Metrics) HTTPRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
