package request

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"
)

// MaxHeadersSize bounds the bytes scanned for the header block.
const MaxHeadersSize = 2048

// MaxSessionIDLength is the exclusive upper bound on session id length.
const MaxSessionIDLength = 100

// SessionCookie is the cookie carrying the session id.
const SessionCookie = "session_id"

// Header map keys.
const (
	KeyMethod         = "method"
	KeyPath           = "path"
	KeyProtocol       = "protocol"
	KeyHost           = "host"
	KeyContentLength  = "content-length"
	KeyContentType    = "content-type"
	KeyAcceptEncoding = "accept-encoding"
	KeySessionID      = "session_id"
	KeyStaticPath     = "static_path"
)

// Protocol is the only accepted protocol version.
const Protocol = "http/1.1"

var methods = map[string]bool{
	"get":    true,
	"post":   true,
	"put":    true,
	"delete": true,
}

// Parser turns raw header bytes into a ParsedRequest.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a Parser that logs dropped lines to logger.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With("component", "parser")}
}

// Parse parses buf with a Parser using the default logger.
func Parse(buf []byte) *ParsedRequest {
	return NewParser(nil).Parse(buf)
}

// Parse scans at most MaxHeadersSize bytes of buf for CRLF-terminated lines
// and stops at the first blank line. HeadersLen is set to the offset of the
// final LF of the header block, so the body starts at HeadersLen+1.
func (p *Parser) Parse(buf []byte) *ParsedRequest {
	req := newParsedRequest()
	limit := min(MaxHeadersSize, len(buf))

	start := 0
	for i := 0; i < limit; i++ {
		if buf[i] == '\r' && i+1 < len(buf) && buf[i+1] == '\n' {
			line := buf[start:i]
			if utf8.Valid(line) {
				p.parseLine(string(line), req)
			} else {
				p.logger.Warn("bad utf-8 sequence in header line", "offset", start)
			}
			i++
			start = i + 1
		}
		req.HeadersLen = i
		if i >= 3 && buf[i-3] == '\r' && buf[i-2] == '\n' && buf[i-1] == '\r' && buf[i] == '\n' {
			req.HeadersComplete = true
			return req
		}
	}
	return req
}

// parseLine dispatches one header line by its lower-cased prefix.
func (p *Parser) parseLine(line string, req *ParsedRequest) {
	lower := strings.ToLower(line)
	switch {
	case strings.HasPrefix(lower, "get "),
		strings.HasPrefix(lower, "post "),
		strings.HasPrefix(lower, "put "),
		strings.HasPrefix(lower, "delete "):
		p.parseRequestLine(line, req)
	case strings.HasPrefix(lower, "host: "):
		p.parseHost(lower[len("host: "):], req)
	case strings.HasPrefix(lower, "content-length: "):
		p.parseContentLength(lower, req)
	case strings.HasPrefix(lower, "content-type: "):
		req.headers[KeyContentType] = lower[len("content-type: "):]
		req.rawContentType = line[len("content-type: "):]
	case strings.HasPrefix(lower, "accept-encoding: "):
		req.headers[KeyAcceptEncoding] = lower[len("accept-encoding: "):]
	case strings.HasPrefix(lower, "cookie: "):
		p.parseCookie(line[len("cookie: "):], req)
	}
}

func (p *Parser) parseRequestLine(line string, req *ParsedRequest) {
	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		p.logger.Debug("malformed request line", "fields", len(parts))
		return
	}
	method := strings.ToLower(parts[0])
	protocol := strings.ToLower(parts[2])
	if !methods[method] {
		p.logger.Debug("unsupported method", "method", method)
		return
	}
	if protocol != Protocol {
		p.logger.Debug("unsupported protocol", "protocol", protocol)
		return
	}
	req.headers[KeyMethod] = method
	req.headers[KeyPath] = parts[1]
	req.headers[KeyProtocol] = protocol
}

func (p *Parser) parseHost(value string, req *ParsedRequest) {
	host, _, _ := strings.Cut(value, ":")
	if host == "" {
		p.logger.Debug("empty host header")
		return
	}
	req.headers[KeyHost] = host
}

func (p *Parser) parseContentLength(lower string, req *ParsedRequest) {
	parts := strings.Split(lower, " ")
	if len(parts) != 2 {
		p.logger.Debug("malformed content-length header")
		return
	}
	req.headers[KeyContentLength] = parts[1]
}

func (p *Parser) parseCookie(value string, req *ParsedRequest) {
	// Pairs are parsed one at a time so a malformed neighbour does not hide
	// the session cookie.
	for _, pair := range strings.Split(value, ";") {
		cookies, err := http.ParseCookie(strings.TrimSpace(pair))
		if err != nil {
			p.logger.Debug("malformed cookie", "error", err)
			continue
		}
		c := cookies[0]
		if c.Name == SessionCookie && len(c.Value) < MaxSessionIDLength {
			req.headers[KeySessionID] = c.Value
			return
		}
	}
}
