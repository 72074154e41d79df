package metrics

import (
	"mercator-hq/miarh/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics tracks static cache behaviour.
//
// Metrics:
//   - miarh_gateway_cache_hits_total: fresh hits by cache name
//   - miarh_gateway_cache_misses_total: cold misses by cache name
//   - miarh_gateway_cache_stale_reloads_total: entries reloaded after the file changed
//   - miarh_gateway_cache_evictions_total: size-driven evictions
//   - miarh_gateway_cache_entries: current number of entries
//   - miarh_gateway_cache_bytes: current compressed bytes held
type CacheMetrics struct {
	hitsTotal      *prometheus.CounterVec
	missesTotal    *prometheus.CounterVec
	staleTotal     *prometheus.CounterVec
	evictionsTotal *prometheus.CounterVec
	entries        *prometheus.GaugeVec
	bytes          *prometheus.GaugeVec
}

// NewCacheMetrics creates and registers cache metrics with the provided registry.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),

		missesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),

		staleTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_stale_reloads_total",
				Help:      "Total number of cached files reloaded because they changed on disk",
			},
			[]string{"cache"},
		),

		evictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_evictions_total",
				Help:      "Total number of cache evictions",
			},
			[]string{"cache"},
		),

		entries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_entries",
				Help:      "Current number of entries in cache",
			},
			[]string{"cache"},
		),

		bytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_bytes",
				Help:      "Current compressed bytes held in cache",
			},
			[]string{"cache"},
		),
	}

	registry.MustRegister(
		cm.hitsTotal,
		cm.missesTotal,
		cm.staleTotal,
		cm.evictionsTotal,
		cm.entries,
		cm.bytes,
	)

	return cm
}

// RecordHit records a cache hit.
func (cm *CacheMetrics) RecordHit(cacheName string) {
	cm.hitsTotal.WithLabelValues(cacheName).Inc()
}

// RecordMiss records a cache miss.
func (cm *CacheMetrics) RecordMiss(cacheName string) {
	cm.missesTotal.WithLabelValues(cacheName).Inc()
}

// RecordStale records a hit on an entry whose file changed or vanished.
func (cm *CacheMetrics) RecordStale(cacheName string) {
	cm.staleTotal.WithLabelValues(cacheName).Inc()
}

// RecordEviction records a cache eviction.
func (cm *CacheMetrics) RecordEviction(cacheName string) {
	cm.evictionsTotal.WithLabelValues(cacheName).Inc()
}

// UpdateSize updates the current number of entries in a cache.
func (cm *CacheMetrics) UpdateSize(cacheName string, size int) {
	cm.entries.WithLabelValues(cacheName).Set(float64(size))
}

// UpdateBytes updates the compressed bytes held by a cache.
func (cm *CacheMetrics) UpdateBytes(cacheName string, n int) {
	cm.bytes.WithLabelValues(cacheName).Set(float64(n))
}
