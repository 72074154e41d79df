package metrics

import (
	"time"

	"mercator-hq/miarh/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ConnectionMetrics tracks accepted connections per listener.
type ConnectionMetrics struct {
	total    *prometheus.CounterVec
	active   *prometheus.GaugeVec
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewConnectionMetrics creates and registers connection metrics.
func NewConnectionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ConnectionMetrics {
	cm := &ConnectionMetrics{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "connections_total",
				Help:      "Total number of accepted connections",
			},
			[]string{"listener"},
		),
		active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "connections_active",
				Help:      "Connections currently being served",
			},
			[]string{"listener"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "connection_outcomes_total",
				Help:      "Connections by how they ended",
			},
			[]string{"listener", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "connection_duration_seconds",
				Help:      "Time from accept to close",
				Buckets:   cfg.DispatchDurationBuckets,
			},
			[]string{"listener"},
		),
	}

	registry.MustRegister(cm.total, cm.active, cm.outcomes, cm.duration)
	return cm
}

// Started records an accepted connection.
func (cm *ConnectionMetrics) Started(listener string) {
	cm.total.WithLabelValues(listener).Inc()
	cm.active.WithLabelValues(listener).Inc()
}

// Finished records the end of a connection.
func (cm *ConnectionMetrics) Finished(listener, outcome string, duration time.Duration) {
	cm.active.WithLabelValues(listener).Dec()
	cm.outcomes.WithLabelValues(listener, outcome).Inc()
	cm.duration.WithLabelValues(listener).Observe(duration.Seconds())
}
