package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"runtime/debug"
	"time"
	"unicode/utf8"

	"mercator-hq/miarh/pkg/backend"
	"mercator-hq/miarh/pkg/config"
	"mercator-hq/miarh/pkg/multipart"
	"mercator-hq/miarh/pkg/request"
	"mercator-hq/miarh/pkg/telemetry/logging"
)

// HeaderReadSize is the size of the single read that must deliver the
// header block.
const HeaderReadSize = 32 * 1024

// bodyChunkSize is the read size while collecting a request body.
const bodyChunkSize = 32 * 1024

// Outcome describes how a connection ended. It is used as a metrics label.
type Outcome string

const (
	OutcomeStatic       Outcome = "static"
	OutcomeDynamic      Outcome = "dynamic"
	OutcomeRedirect     Outcome = "redirect"
	OutcomeInvalid      Outcome = "invalid"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeTooLarge     Outcome = "too_large"
	OutcomeBackendError Outcome = "backend_error"
	OutcomeReadError    Outcome = "read_error"
	OutcomeWriteError   Outcome = "write_error"
	OutcomePanic        Outcome = "panic"
)

// Forwarder relays a request to the backend owning its host.
// *backend.Dispatcher satisfies it.
type Forwarder interface {
	Forward(ctx context.Context, req *backend.Request) ([]byte, error)
}

// Handler serves one HTTPS connection per Serve call.
type Handler struct {
	holder  *config.Holder
	parser  *request.Parser
	static  *StaticResponder
	backend Forwarder
	logger  *slog.Logger
}

// NewHandler creates the HTTPS connection handler.
func NewHandler(holder *config.Holder, static *StaticResponder, fwd Forwarder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		holder:  holder,
		parser:  request.NewParser(logger),
		static:  static,
		backend: fwd,
		logger:  logger.With("component", "https"),
	}
}

// Serve handles a single request on conn, whose TLS handshake (if any) is
// complete. It does not close conn. Cancelling ctx aborts blocked I/O.
func (h *Handler) Serve(ctx context.Context, conn net.Conn) (outcome Outcome) {
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()
	defer recoverConn(ctx, h.logger, &outcome)

	cfg := h.holder.Get()
	limit := cfg.Server.MaxRequestSize()

	var buf Buffer
	if _, err := buf.ReadOnce(conn, HeaderReadSize); err != nil && buf.Len() == 0 {
		h.logger.DebugContext(ctx, "header read failed", "error", err)
		return OutcomeReadError
	}
	if buf.Len() >= limit {
		h.logger.WarnContext(ctx, "max request size exceeded", "bytes", buf.Len())
		return h.reply(ctx, conn, TooLarge(), OutcomeTooLarge)
	}

	req := h.parser.Parse(buf.Bytes())
	req.Classify(cfg)
	if !req.IsValid() {
		h.logger.DebugContext(ctx, "dropping invalid request",
			"method", req.Method(),
			"host", req.Host(),
			"path", req.Path(),
		)
		return OutcomeInvalid
	}

	if vh := cfg.HostFor(req.Host()); vh != nil {
		ctx = logging.WithVirtualHost(ctx, vh.Name)
	}

	if req.IsStatic {
		return h.serveStatic(ctx, conn, req)
	}

	if req.HasBody() {
		err := h.readBody(conn, &buf, req, limit)
		switch {
		case errors.Is(err, ErrRequestTooLarge):
			h.logger.WarnContext(ctx, "max request size exceeded",
				"content_length", req.ContentLength(),
				"limit", limit,
			)
			return h.reply(ctx, conn, TooLarge(), OutcomeTooLarge)
		case err != nil:
			h.logger.WarnContext(ctx, "failed to read request body", "error", err)
			return OutcomeReadError
		}
	}

	resp, err := h.backend.Forward(ctx, req.BackendRequest())
	if err != nil {
		h.logger.ErrorContext(ctx, "can't get a response",
			"host", req.Host(),
			"path", req.Path(),
			"error", err,
		)
		return OutcomeBackendError
	}
	return h.reply(ctx, conn, resp, OutcomeDynamic)
}

// serveStatic writes the static file or a 404.
func (h *Handler) serveStatic(ctx context.Context, conn net.Conn, req *request.ParsedRequest) Outcome {
	return serveStatic(ctx, h.logger, h.static, conn, req)
}

// readBody reads until the declared body is buffered, then decodes it into
// req. The header block must have been terminated.
func (h *Handler) readBody(conn io.Reader, buf *Buffer, req *request.ParsedRequest, limit int) error {
	if !req.HeadersComplete {
		return ErrIncompleteHeaders
	}

	bodyStart := req.HeadersLen + 1
	bodyEnd := bodyStart + req.ContentLength()
	if bodyEnd >= limit {
		return ErrRequestTooLarge
	}

	for buf.Len() < bodyEnd {
		n, err := buf.ReadOnce(conn, min(bodyChunkSize, bodyEnd-buf.Len()))
		if buf.Len() >= limit {
			return ErrRequestTooLarge
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: have %d of %d bytes", ErrIncompleteBody, buf.Len()-bodyStart, bodyEnd-bodyStart)
			}
			return err
		}
		if n == 0 {
			return ErrIncompleteBody
		}
	}

	buf.Consume(bodyStart)
	req.Body = buf.Slice(0, bodyEnd-bodyStart)

	if req.IsMultipart {
		res, err := multipart.Decode(req.Body, req.Boundary())
		if err != nil {
			return err
		}
		req.BodyString = res.BodyString
		req.Files = res.Files
		return nil
	}

	if !utf8.Valid(req.Body) {
		return ErrInvalidBody
	}
	req.BodyString = string(req.Body)
	return nil
}

// reply writes resp and maps a write failure to OutcomeWriteError.
func (h *Handler) reply(ctx context.Context, conn net.Conn, resp []byte, ok Outcome) Outcome {
	return reply(ctx, h.logger, conn, resp, ok)
}

func serveStatic(ctx context.Context, logger *slog.Logger, s *StaticResponder, conn net.Conn, req *request.ParsedRequest) Outcome {
	resp, err := s.Respond(req.StaticPath(), req.Header(request.KeyAcceptEncoding))
	if err != nil {
		logger.DebugContext(ctx, "static file unavailable",
			"path", req.StaticPath(),
			"error", err,
		)
		return reply(ctx, logger, conn, NotFound(), OutcomeNotFound)
	}
	return reply(ctx, logger, conn, resp, OutcomeStatic)
}

func reply(ctx context.Context, logger *slog.Logger, conn net.Conn, resp []byte, ok Outcome) Outcome {
	if _, err := conn.Write(resp); err != nil {
		logger.DebugContext(ctx, "response write failed", "error", err)
		return OutcomeWriteError
	}
	return ok
}

// recoverConn turns a panic in a connection task into OutcomePanic so that
// one bad request cannot take down the reactor.
func recoverConn(ctx context.Context, logger *slog.Logger, outcome *Outcome) {
	if r := recover(); r != nil {
		logger.ErrorContext(ctx, "panic in connection handler",
			"error", r,
			"stack", string(debug.Stack()),
		)
		*outcome = OutcomePanic
	}
}
