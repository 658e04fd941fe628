package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the document module.
type Metrics struct {
	// Uploads by document type
	Uploads *prometheus.CounterVec

	// Validation outcomes by document type and resulting status
	ValidationOutcome *prometheus.CounterVec

	// Distribution of validation scores on the 100-point scale
	ValidationScore prometheus.Histogram

	// OCR extraction latency
	ExtractionLatency prometheus.Histogram

	// Extraction failures by document type
	ExtractionFailures *prometheus.CounterVec
}

// New creates a new Metrics instance with all document module metrics registered.
func New() *Metrics {
	return &Metrics{
		Uploads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veris_document_uploads_total",
			Help: "Total document uploads by type",
		}, []string{"type"}),

		ValidationOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veris_document_validation_outcomes_total",
			Help: "Total validation outcomes by document type and status",
		}, []string{"type", "status"}),

		ValidationScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veris_document_validation_score",
			Help:    "Distribution of document validation scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		ExtractionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veris_document_extraction_duration_seconds",
			Help:    "Duration of OCR extraction per document",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		ExtractionFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veris_document_extraction_failures_total",
			Help: "Total OCR extraction failures by document type",
		}, []string{"type"}),
	}
}

// IncrementUpload records one accepted upload.
func (m *Metrics) IncrementUpload(docType string) {
	if m != nil {
		m.Uploads.WithLabelValues(docType).Inc()
	}
}

// IncrementValidationOutcome records a validation outcome.
func (m *Metrics) IncrementValidationOutcome(docType, status string) {
	if m != nil {
		m.ValidationOutcome.WithLabelValues(docType, status).Inc()
	}
}

// ObserveValidationScore records a computed validation score.
func (m *Metrics) ObserveValidationScore(score int) {
	if m != nil {
		m.ValidationScore.Observe(float64(score))
	}
}

// ObserveExtractionLatency records the duration of one OCR pass.
func (m *Metrics) ObserveExtractionLatency(d time.Duration) {
	if m != nil {
		m.ExtractionLatency.Observe(d.Seconds())
	}
}

// IncrementExtractionFailure records a failed OCR pass.
func (m *Metrics) IncrementExtractionFailure(docType string) {
	if m != nil {
		m.ExtractionFailures.WithLabelValues(docType).Inc()
	}
}
