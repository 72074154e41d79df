// Package metrics exposes gateway metrics in Prometheus format.
//
// # Metrics
//
// Connection metrics (label listener = "https" | "http"):
//   - miarh_gateway_connections_total: accepted connections
//   - miarh_gateway_connections_active: connections being served
//   - miarh_gateway_connection_outcomes_total: how each connection ended
//     (label outcome, e.g. "static", "dynamic", "redirect", "not_found")
//   - miarh_gateway_connection_duration_seconds: accept to close
//
// Backend metrics (label vhost):
//   - miarh_gateway_backend_dispatch_total: dispatches by outcome
//   - miarh_gateway_backend_dispatch_duration_seconds: round-trip latency
//   - miarh_gateway_backend_response_bytes_total: bytes relayed
//
// Static cache metrics (label cache):
//   - miarh_gateway_cache_hits_total, miarh_gateway_cache_misses_total
//   - miarh_gateway_cache_evictions_total
//   - miarh_gateway_cache_entries, miarh_gateway_cache_bytes
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// Metric names use the configured namespace and subsystem.
package metrics
