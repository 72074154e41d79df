package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Context keys for common log fields.
type contextKey string

const (
	// ConnectionIDKey is the context key for connection ids.
	ConnectionIDKey contextKey = "conn_id"

	// ListenerKey is the context key for the accepting listener name.
	ListenerKey contextKey = "listener"

	// VirtualHostKey is the context key for the virtual host name.
	VirtualHostKey contextKey = "vhost"

	// RemoteAddrKey is the context key for the client address.
	RemoteAddrKey contextKey = "remote_addr"
)

// NewConnectionID returns a fresh random connection id.
func NewConnectionID() string {
	return uuid.NewString()
}

// WithConnectionID adds a connection id to the context.
func WithConnectionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ConnectionIDKey, id)
}

// GetConnectionID retrieves the connection id from the context.
func GetConnectionID(ctx context.Context) string {
	return stringValue(ctx, ConnectionIDKey)
}

// WithListener adds the listener name to the context.
func WithListener(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ListenerKey, name)
}

// GetListener retrieves the listener name from the context.
func GetListener(ctx context.Context) string {
	return stringValue(ctx, ListenerKey)
}

// WithVirtualHost adds the virtual host name to the context.
func WithVirtualHost(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, VirtualHostKey, name)
}

// GetVirtualHost retrieves the virtual host name from the context.
func GetVirtualHost(ctx context.Context) string {
	return stringValue(ctx, VirtualHostKey)
}

// WithRemoteAddr adds the client address to the context.
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, RemoteAddrKey, addr)
}

// GetRemoteAddr retrieves the client address from the context.
func GetRemoteAddr(ctx context.Context) string {
	return stringValue(ctx, RemoteAddrKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// extractContextFields extracts connection fields from context for logging.
func extractContextFields(ctx context.Context) []slog.Attr {
	var fields []slog.Attr
	for _, key := range []contextKey{ConnectionIDKey, ListenerKey, VirtualHostKey, RemoteAddrKey} {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, slog.String(string(key), v))
		}
	}
	return fields
}
