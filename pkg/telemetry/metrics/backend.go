package metrics

import (
	"time"

	"mercator-hq/miarh/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// BackendMetrics tracks round trips to backend sockets.
type BackendMetrics struct {
	dispatchTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	responseBytes *prometheus.CounterVec
}

// NewBackendMetrics creates and registers backend metrics.
func NewBackendMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *BackendMetrics {
	bm := &BackendMetrics{
		dispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "backend_dispatch_total",
				Help:      "Backend dispatches by outcome",
			},
			[]string{"vhost", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "backend_dispatch_duration_seconds",
				Help:      "Backend round-trip latency",
				Buckets:   cfg.DispatchDurationBuckets,
			},
			[]string{"vhost"},
		),
		responseBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "backend_response_bytes_total",
				Help:      "Bytes relayed from backends to clients",
			},
			[]string{"vhost"},
		),
	}

	registry.MustRegister(bm.dispatchTotal, bm.duration, bm.responseBytes)
	return bm
}

// RecordDispatch records one dispatch.
func (bm *BackendMetrics) RecordDispatch(vhost, outcome string, duration time.Duration, responseBytes int) {
	bm.dispatchTotal.WithLabelValues(vhost, outcome).Inc()
	bm.duration.WithLabelValues(vhost).Observe(duration.Seconds())
	if responseBytes > 0 {
		bm.responseBytes.WithLabelValues(vhost).Add(float64(responseBytes))
	}
}
