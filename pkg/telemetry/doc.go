// Package telemetry provides observability for the gateway.
//
// # Components
//
//   - logging: structured slog logging with connection context and
//     session redaction
//   - metrics: Prometheus metrics for connections, backend dispatch and
//     the static cache
//   - health: liveness and readiness checks served on the admin listener
//
// # Usage
//
//	logger, err := logging.Setup(logging.FromConfig(cfg.Telemetry.Logging, os.Stdout))
//	if err != nil {
//		return err
//	}
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.ConnectionStarted("https")
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("backend:site", health.SocketCheck("/run/site.sock"))
//	checker.Mount(mux, cfg.Telemetry.Health, version, commit, buildTime)
//
// Metrics are exposed on the admin listener, never on the public HTTPS
// or HTTP listeners.
package telemetry
