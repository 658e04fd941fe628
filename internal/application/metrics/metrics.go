package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the application module.
type Metrics struct {
	// Applications created by verification method
	Created *prometheus.CounterVec

	// State transitions by target status
	Transitions *prometheus.CounterVec

	// Risk dispositions at submission time
	Dispositions *prometheus.CounterVec

	// Distribution of risk scores at submission
	RiskScore prometheus.Histogram

	// Submission latency including risk assessment
	SubmitLatency prometheus.Histogram

	// Applications expired by the sweep worker
	Expired prometheus.Counter
}

// New creates a new Metrics instance with all application module metrics registered.
func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veris_applications_created_total",
			Help: "Total applications created by verification method",
		}, []string{"method"}),

		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veris_application_transitions_total",
			Help: "Total application state transitions by target status",
		}, []string{"to"}),

		Dispositions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veris_application_dispositions_total",
			Help: "Total risk dispositions at submission",
		}, []string{"disposition"}),

		RiskScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veris_application_risk_score",
			Help:    "Distribution of risk scores at submission",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		SubmitLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veris_application_submit_duration_seconds",
			Help:    "Duration of submission including risk assessment",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		Expired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veris_applications_expired_total",
			Help: "Total applications expired by the retention sweep",
		}),
	}
}

// IncrementCreated records one created application.
func (m *Metrics) IncrementCreated(method string) {
	if m != nil {
		m.Created.WithLabelValues(method).Inc()
	}
}

// IncrementTransition records one state transition.
func (m *Metrics) IncrementTransition(to string) {
	if m != nil {
		m.Transitions.WithLabelValues(to).Inc()
	}
}

// ObserveSubmission records a submission outcome.
func (m *Metrics) ObserveSubmission(disposition string, score int, d time.Duration) {
	if m != nil {
		m.Dispositions.WithLabelValues(disposition).Inc()
		m.RiskScore.Observe(float64(score))
		m.SubmitLatency.Observe(d.Seconds())
	}
}

// IncrementExpired records one expired application.
func (m *Metrics) IncrementExpired() {
	if m != nil {
		m.Expired.Inc()
	}
}
