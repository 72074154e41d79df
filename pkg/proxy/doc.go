// Package proxy drives a single client connection from the first read to
// the final write.
//
// Handler serves the HTTPS listener: it reads the header block once,
// classifies the request, and either answers from the static tree or reads
// the body and relays the backend's raw response. RedirectHandler serves the
// plaintext listener: it redirects everything to HTTPS except ACME
// challenge files, which it serves directly.
//
// Neither handler reuses a connection. Invalid requests are answered with
// silence; the caller closes the connection after Serve returns.
package proxy
