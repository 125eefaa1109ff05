package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nifiops/nifibridge/pkg/nifi"
)

// nifiMetrics implements nifi.Metrics on Prometheus.
type nifiMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewNiFiMetrics creates the NiFi round-trip recorder, or nil when metrics
// are disabled. Clients accept a nil recorder.
func NewNiFiMetrics() nifi.Metrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()

	return &nifiMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nifibridge_nifi_requests_total",
				Help: "NiFi API round-trips by method and status code",
			},
			[]string{"method", "status"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nifibridge_nifi_request_duration_seconds",
				Help:    "NiFi API round-trip duration by method",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

func (m *nifiMetrics) RecordRequest(method string, status int, duration time.Duration) {
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method).Observe(duration.Seconds())
}
