// Package reactor is the gateway's readiness loop: one epoll instance
// watching both listening sockets and every accepted connection.
//
// Listener sockets are registered level-triggered under reserved ids and
// dispatched to a Dispatcher, which accepts in the reactor goroutine.
// Accepted connections are registered one-shot and edge-triggered under
// ids allocated from StreamIDStart. The first notification closes the
// connection's readiness channel and consumes the registration; it is never
// re-armed, since each connection carries a single request.
//
// Connection sockets are registered right after accept, before any TLS
// handshake, so readiness reflects bytes on the wire rather than data
// already buffered by a TLS layer.
package reactor
