package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BackendMetrics records calls made to the inventory REST API.
type BackendMetrics struct {
	duration *prometheus.HistogramVec
}

// NewBackendMetrics registers the backend request histogram on the provided registerer.
func NewBackendMetrics(reg prometheus.Registerer) *BackendMetrics {
	if reg == nil {
		return &BackendMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_request_duration_seconds",
		Help:    "Duration of inventory backend requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "status"})
	reg.MustRegister(duration)
	return &BackendMetrics{duration: duration}
}

// ObserveRequest records one backend round trip. status 0 means the request never got a response.
func (m *BackendMetrics) ObserveRequest(endpoint string, status int, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.duration.WithLabelValues(normalizeLabel(endpoint), code).Observe(duration.Seconds())
}
