package proxy

import (
	"context"
	"log/slog"
	"net"
	"time"

	"mercator-hq/miarh/pkg/config"
	"mercator-hq/miarh/pkg/request"
)

// RedirectHandler serves one plaintext HTTP connection per Serve call.
type RedirectHandler struct {
	holder *config.Holder
	parser *request.Parser
	static *StaticResponder
	logger *slog.Logger
}

// NewRedirectHandler creates the plaintext listener handler. static serves
// ACME challenge files.
func NewRedirectHandler(holder *config.Holder, static *StaticResponder, logger *slog.Logger) *RedirectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedirectHandler{
		holder: holder,
		parser: request.NewParser(logger),
		static: static,
		logger: logger.With("component", "http"),
	}
}

// Serve reads one request from conn and answers with a 301 to the HTTPS
// origin, or with the challenge file for ACME requests. Invalid requests get
// no response. It does not close conn.
func (h *RedirectHandler) Serve(ctx context.Context, conn net.Conn) (outcome Outcome) {
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()
	defer recoverConn(ctx, h.logger, &outcome)

	var buf Buffer
	if _, err := buf.ReadOnce(conn, HeaderReadSize); err != nil && buf.Len() == 0 {
		h.logger.DebugContext(ctx, "header read failed", "error", err)
		return OutcomeReadError
	}

	cfg := h.holder.Get()
	req := h.parser.Parse(buf.Bytes())
	path := req.Path()
	req.Classify(cfg)

	if req.IsStaticValid && req.IsACME(cfg) {
		return serveStatic(ctx, h.logger, h.static, conn, req)
	}

	if !req.IsWellFormed() {
		h.logger.DebugContext(ctx, "dropping invalid request")
		return OutcomeInvalid
	}

	return reply(ctx, h.logger, conn, Redirect(req.Host(), path), OutcomeRedirect)
}
