package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// HeaderToken is an alternative header carrying the bare token.
const HeaderToken = "X-Admin-Token"

// Middleware is HTTP middleware for admin token authentication.
type Middleware struct {
	validator *TokenValidator
	public    map[string]bool
	logger    *slog.Logger
}

// NewMiddleware creates middleware that lets publicPaths through and
// requires a valid token everywhere else.
func NewMiddleware(validator *TokenValidator, publicPaths []string, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}
	return &Middleware{
		validator: validator,
		public:    public,
		logger:    logger.With("component", "admin.auth"),
	}
}

// Handle wraps an HTTP handler with token authentication.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.public[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		secret := extractToken(r)
		if secret == "" {
			m.logger.Warn("missing admin token",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			unauthorized(w)
			return
		}

		token, err := m.validator.Validate(secret)
		if err != nil {
			m.logger.Warn("rejected admin token",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			unauthorized(w)
			return
		}

		m.logger.Debug("admin token accepted",
			"token", token.Name,
			"path", r.URL.Path,
		)
		next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="miarh-admin"`)
	http.Error(w, "Missing or invalid admin token", http.StatusUnauthorized)
}

// extractToken reads the bearer token or the X-Admin-Token header.
func extractToken(r *http.Request) string {
	if v := r.Header.Get("Authorization"); v != "" {
		scheme, token, ok := strings.Cut(v, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.Header.Get(HeaderToken)
}

type contextKey string

// #nosec G101 - This is a context key constant, not a credential
const tokenKey contextKey = "admin_token"

// WithToken stores the authenticated token in ctx.
func WithToken(ctx context.Context, t *Token) context.Context {
	return context.WithValue(ctx, tokenKey, t)
}

// TokenFromContext returns the token that authenticated the request.
func TokenFromContext(ctx context.Context) (*Token, bool) {
	t, ok := ctx.Value(tokenKey).(*Token)
	return t, ok
}
