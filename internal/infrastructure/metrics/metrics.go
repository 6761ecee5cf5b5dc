// Package metrics exposes extraction counters and histograms in the
// Prometheus exposition format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "extraccion"

// Outcome labels for extraction requests.
const (
	OutcomeSuccess     = "success"
	OutcomeNeedsReview = "needs_review"
	OutcomeCached      = "cached"
	OutcomeError       = "error"
)

// Recorder receives extraction measurements. The application layer depends
// on this interface so tests and metric-less deployments can pass Nop.
type Recorder interface {
	ObserveExtraction(modality, outcome string, confidence float64, fields []string, elapsed time.Duration)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) ObserveExtraction(string, string, float64, []string, time.Duration) {}

// Metrics owns a private registry so tests can create several instances.
type Metrics struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	confidence prometheus.Histogram
	fields     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Extractions processed, by modality and outcome.",
		}, []string{"modality", "outcome"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confidence",
			Help:      "Confidence score of completed extractions.",
			Buckets:   []float64{0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),
		fields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fields_total",
			Help:      "Fields populated by completed extractions.",
		}, []string{"field"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "duration_seconds",
			Help:      "Time spent obtaining text and extracting fields.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"modality"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.confidence,
		m.fields,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveExtraction records one extraction. Confidence and fields are only
// recorded for outcomes that produced fields.
func (m *Metrics) ObserveExtraction(modality, outcome string, confidence float64, fields []string, elapsed time.Duration) {
	m.requests.WithLabelValues(modality, outcome).Inc()
	m.duration.WithLabelValues(modality).Observe(elapsed.Seconds())
	if outcome == OutcomeError {
		return
	}
	m.confidence.Observe(confidence)
	for _, f := range fields {
		m.fields.WithLabelValues(f).Inc()
	}
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
