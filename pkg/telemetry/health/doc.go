// Package health provides liveness and readiness endpoints for the admin
// listener.
//
// Liveness answers as long as the process runs. Readiness runs every
// registered check concurrently, each bounded by the configured timeout.
// The gateway registers one check per virtual host backend socket, one per
// static root, and a critical one for the TLS certificate. A failing
// per-host check reports "degraded" with 200; a failing critical check
// reports "unhealthy" with 503.
//
// Usage:
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("backend:blog", health.SocketCheck("/run/blog.sock"))
//	checker.RegisterCriticalCheck("certificate", health.CertificateCheck(reloader.GetCertificate, 0))
//	checker.Mount(mux, cfg.Telemetry.Health, version, commit, buildTime)
package health
