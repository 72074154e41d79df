package logging

import (
	"context"
	"log/slog"
)

// contextHandler adds connection fields from the context and redacts
// sensitive attributes before delegating.
type contextHandler struct {
	next   slog.Handler
	redact bool
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	fields := extractContextFields(ctx)
	if len(fields) == 0 && !h.redact {
		return h.next.Handle(ctx, rec)
	}

	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	out.AddAttrs(fields...)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactAttr(a)
	}
	return &contextHandler{next: h.next.WithAttrs(redacted), redact: h.redact}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), redact: h.redact}
}

func (h *contextHandler) redactAttr(a slog.Attr) slog.Attr {
	if !h.redact {
		return a
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		out := make([]any, len(group))
		for i, ga := range group {
			out[i] = h.redactAttr(ga)
		}
		return slog.Group(a.Key, out...)
	}
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, RedactSession(a.Value.String()))
	}
	return a
}
