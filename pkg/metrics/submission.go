package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes recorded by SubmissionMetrics.
const (
	OutcomeSuccess    = "success"
	OutcomeFailed     = "failed"
	OutcomeTimedOut   = "timed_out"
	OutcomeEmptyCart  = "empty_cart"
	OutcomeInProgress = "in_progress"
)

// SubmissionMetrics records invoice submissions sent to the inventory backend.
type SubmissionMetrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
	printed  *prometheus.CounterVec
}

// NewSubmissionMetrics registers the submission metrics on the provided registerer.
func NewSubmissionMetrics(reg prometheus.Registerer) *SubmissionMetrics {
	if reg == nil {
		return &SubmissionMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoice_submission_duration_seconds",
		Help:    "Duration of invoice submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoice_submissions_total",
		Help: "Invoice submissions by outcome.",
	}, []string{"outcome"})
	printed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoice_receipts_printed_total",
		Help: "Receipt print triggers by result.",
	}, []string{"result"})
	reg.MustRegister(duration, total, printed)
	return &SubmissionMetrics{
		duration: duration,
		total:    total,
		printed:  printed,
	}
}

// Observe records the duration and outcome of a single submission.
func (m *SubmissionMetrics) Observe(outcome string, duration time.Duration) {
	if m == nil || m.total == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.total.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncPrinted counts a print trigger; ok=false marks a printer failure.
func (m *SubmissionMetrics) IncPrinted(ok bool) {
	if m == nil || m.printed == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.printed.WithLabelValues(result).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
