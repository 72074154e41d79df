package request

import (
	"strconv"
	"strings"

	"mercator-hq/miarh/pkg/backend"
)

// ParsedRequest is the structured view of one client request.
type ParsedRequest struct {
	headers map[string]string

	// rawContentType keeps the content-type value with its original case
	// for boundary extraction.
	rawContentType string

	// Query holds key=value pairs from the path's query string.
	Query map[string]string

	IsStatic      bool
	IsStaticValid bool
	IsMultipart   bool

	// HeadersLen is the offset of the final LF of the header block.
	HeadersLen int

	// HeadersComplete reports whether a blank line was found.
	HeadersComplete bool

	Body       []byte
	BodyString string
	Route      map[string]string
	Files      map[string]backend.File
}

func newParsedRequest() *ParsedRequest {
	return &ParsedRequest{
		headers: make(map[string]string),
		Query:   make(map[string]string),
		Route:   make(map[string]string),
		Files:   make(map[string]backend.File),
	}
}

// Header returns the named field, or "" when absent.
func (r *ParsedRequest) Header(name string) string {
	return r.headers[name]
}

// Has reports whether the named field was parsed.
func (r *ParsedRequest) Has(name string) bool {
	_, ok := r.headers[name]
	return ok
}

// Headers returns a copy of the parsed field map.
func (r *ParsedRequest) Headers() map[string]string {
	out := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		out[k] = v
	}
	return out
}

// Method returns the lower-cased method.
func (r *ParsedRequest) Method() string { return r.headers[KeyMethod] }

// Host returns the lower-cased host without port.
func (r *ParsedRequest) Host() string { return r.headers[KeyHost] }

// Path returns the request path including any query string.
func (r *ParsedRequest) Path() string { return r.headers[KeyPath] }

// SessionID returns the session cookie value, or "".
func (r *ParsedRequest) SessionID() string { return r.headers[KeySessionID] }

// StaticPath returns the resolved file for a valid static request.
func (r *ParsedRequest) StaticPath() string { return r.headers[KeyStaticPath] }

// IsWellFormed reports whether the request has a whitelisted method, a
// host and a path.
func (r *ParsedRequest) IsWellFormed() bool {
	if !r.Has(KeyMethod) || !r.Has(KeyHost) || !r.Has(KeyPath) {
		return false
	}
	return methods[r.Method()]
}

// IsValid reports whether the request is well formed and is either dynamic
// or a resolved static request.
func (r *ParsedRequest) IsValid() bool {
	return r.IsWellFormed() && (r.IsStaticValid || !r.IsStatic)
}

// AcceptsBrotli reports whether accept-encoding mentions br.
func (r *ParsedRequest) AcceptsBrotli() bool {
	return strings.Contains(r.headers[KeyAcceptEncoding], "br")
}

// ContentLength returns the declared body length, or 0 when absent or
// malformed.
func (r *ParsedRequest) ContentLength() int {
	n, err := strconv.Atoi(r.headers[KeyContentLength])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// HasBody reports whether the method carries a body.
func (r *ParsedRequest) HasBody() bool {
	m := r.Method()
	return m == "post" || m == "put"
}

// Boundary returns the multipart boundary token from content-type.
func (r *ParsedRequest) Boundary() string {
	_, after, found := strings.Cut(r.rawContentType, "boundary=")
	if !found {
		return ""
	}
	b, _, _ := strings.Cut(after, ";")
	return strings.Trim(strings.TrimSpace(b), `"`)
}

// BackendRequest builds the payload forwarded to the backend.
func (r *ParsedRequest) BackendRequest() *backend.Request {
	return &backend.Request{
		Method:     r.Method(),
		Host:       r.Host(),
		Path:       r.Path(),
		SessionID:  r.SessionID(),
		Query:      r.Query,
		BodyString: r.BodyString,
		Route:      r.Route,
		Files:      r.Files,
	}
}
