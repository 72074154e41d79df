// Package server wires the gateway together: it binds the HTTPS and HTTP
// listeners, registers them with the epoll reactor, and runs one goroutine
// per accepted connection.
//
// # Connection Lifecycle
//
// The reactor reports listener readiness on its own goroutine. The server
// accepts one connection per event and hands it to a new goroutine, which
// registers the socket for one-shot readiness, waits for the first bytes,
// performs the TLS handshake on the HTTPS listener, and runs the proxy
// handler. The connection is deregistered and closed when the handler
// returns; connections are never reused.
//
// # Admin Listener
//
// When telemetry.metrics.listen_address is set, a separate net/http server
// exposes Prometheus metrics and the health probes:
//
//	GET /metrics        Prometheus exposition
//	GET /health/live    liveness
//	GET /health/ready   readiness (backend sockets, static roots, certificate)
//	GET /version        build information
//
// # Graceful Shutdown
//
// Cancelling the context passed to Serve stops the reactor and closes both
// listeners. In-flight connections get server.shutdown_timeout to finish;
// after that their I/O is aborted.
package server
