package metrics

import (
	"sync"
	"time"

	"mercator-hq/miarh/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the Prometheus registry and every metric family the
// gateway records.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	connectionMetrics *ConnectionMetrics
	backendMetrics    *BackendMetrics
	cacheMetrics      *CacheMetrics

	// Cardinality tracking for the vhost label
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a metrics collector. If registry is nil a new
// registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DispatchDurationBuckets) == 0 {
		cfg.DispatchDurationBuckets = append([]float64(nil), config.DefaultDispatchDurationBuckets...)
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}

	c.connectionMetrics = NewConnectionMetrics(cfg, registry)
	c.backendMetrics = NewBackendMetrics(cfg, registry)
	c.cacheMetrics = NewCacheMetrics(cfg, registry)

	return c
}

// Enabled reports whether recording is active.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

// ConnectionStarted records an accepted connection on listener.
func (c *Collector) ConnectionStarted(listener string) {
	if !c.config.Enabled {
		return
	}
	c.connectionMetrics.Started(listener)
}

// ConnectionFinished records how a connection ended and how long it took.
func (c *Collector) ConnectionFinished(listener, outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.connectionMetrics.Finished(listener, outcome, duration)
}

// RecordDispatch records one backend round trip. It satisfies
// backend.Observer.
func (c *Collector) RecordDispatch(vhost, outcome string, duration time.Duration, responseBytes int) {
	if !c.config.Enabled {
		return
	}
	if vhost == "" {
		vhost = "unknown"
	}
	if !c.cardinalityLimiter.Allow(vhost) {
		vhost = "other"
	}
	c.backendMetrics.RecordDispatch(vhost, outcome, duration, responseBytes)
}

// Cache returns the cache metric family. It satisfies cache.Observer.
func (c *Collector) Cache() *CacheMetrics {
	return c.cacheMetrics
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether a label value may be used: either it was seen
// before or the limit has not been reached.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
