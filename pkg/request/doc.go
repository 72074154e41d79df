// Package request parses the header block of an HTTP/1.1 request read from
// a client connection and classifies it for the gateway.
//
// Parsing is lenient: only the request line and the host, content-length,
// content-type, accept-encoding and cookie headers are recognised, and a
// malformed line is dropped rather than failing the whole parse. Whether a
// request is usable is decided afterwards by IsValid, from the fields that
// survived.
//
// Classify resolves static requests against the configuration. A path is
// static when it starts with /static/, equals the index URL, or starts with
// the ACME challenge prefix. A static request is only valid when it
// resolves inside the owning virtual host's root directory.
//
// Basic usage:
//
//	req := request.Parse(buf)
//	req.Classify(cfg)
//	if !req.IsValid() {
//	    return
//	}
package request
