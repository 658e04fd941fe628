package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	// Face extraction latency by outcome
	ExtractionLatency *prometheus.HistogramVec

	// Verification results by type and decision
	Results *prometheus.CounterVec

	// Extraction retries that were needed before success or giving up
	ExtractionRetries prometheus.Counter

	// Capture fetch latencies by side during face match
	CaptureFetchLatency *prometheus.HistogramVec

	// Distribution of liveness and match scores
	Scores *prometheus.HistogramVec
}

// New creates a new Metrics instance with all verification module metrics registered.
func New() *Metrics {
	return &Metrics{
		ExtractionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "veris_verification_extraction_duration_seconds",
			Help:    "Duration of face extraction calls by outcome",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),

		Results: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veris_verification_results_total",
			Help: "Total verification results by type, status, and decision",
		}, []string{"type", "status", "passed"}),

		ExtractionRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veris_verification_extraction_retries_total",
			Help: "Total retried face extraction attempts",
		}),

		CaptureFetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "veris_verification_capture_fetch_duration_seconds",
			Help:    "Duration of capture loads by side during face match",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"side"}),

		Scores: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "veris_verification_scores",
			Help:    "Distribution of verification scores by result type",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}, []string{"type"}),
	}
}

// ObserveExtraction records one extraction call.
func (m *Metrics) ObserveExtraction(outcome string, d time.Duration) {
	if m != nil {
		m.ExtractionLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// IncrementResult records one persisted verification result.
func (m *Metrics) IncrementResult(resultType, status string, passed bool) {
	if m != nil {
		label := "false"
		if passed {
			label = "true"
		}
		m.Results.WithLabelValues(resultType, status, label).Inc()
	}
}

// IncrementRetry records one extraction retry.
func (m *Metrics) IncrementRetry() {
	if m != nil {
		m.ExtractionRetries.Inc()
	}
}

// ObserveCaptureFetch records a capture load during face match.
func (m *Metrics) ObserveCaptureFetch(side string, d time.Duration) {
	if m != nil {
		m.CaptureFetchLatency.WithLabelValues(side).Observe(d.Seconds())
	}
}

// ObserveScore records a verification score.
func (m *Metrics) ObserveScore(resultType string, score float64) {
	if m != nil {
		m.Scores.WithLabelValues(resultType).Observe(score)
	}
}
