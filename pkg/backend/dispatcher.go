package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"mercator-hq/miarh/pkg/config"
)

// ErrNoBackend is returned when no virtual host serves the request host.
var ErrNoBackend = errors.New("no backend for host")

// Observer receives dispatch outcomes. metrics.BackendMetrics satisfies it.
type Observer interface {
	RecordDispatch(vhost, outcome string, duration time.Duration, responseBytes int)
}

// Dispatch outcomes reported to the Observer.
const (
	OutcomeOK        = "ok"
	OutcomeNoBackend = "no_backend"
	OutcomeDial      = "dial_error"
	OutcomeWrite     = "write_error"
	OutcomeRead      = "read_error"
)

// Dispatcher sends framed requests to backend sockets and returns their raw
// responses.
type Dispatcher struct {
	holder   *config.Holder
	dialer   net.Dialer
	observer Observer
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher resolving hosts against holder.
func NewDispatcher(holder *config.Holder, observer Observer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		holder:   holder,
		observer: observer,
		logger:   logger.With("component", "dispatcher"),
	}
}

// SocketFor returns the backend socket and virtual host name for host.
// Hostnames match exactly.
func (d *Dispatcher) SocketFor(host string) (socketPath, vhost string, err error) {
	vh := d.holder.Get().HostFor(host)
	if vh == nil {
		return "", "", fmt.Errorf("%w %q", ErrNoBackend, host)
	}
	return vh.SocketPath, vh.Name, nil
}

// Forward resolves the backend for req.Host and dispatches req to it. An
// unknown host fails with ErrNoBackend before any connection attempt.
func (d *Dispatcher) Forward(ctx context.Context, req *Request) ([]byte, error) {
	socketPath, vhost, err := d.SocketFor(req.Host)
	if err != nil {
		d.record("", OutcomeNoBackend, 0, 0)
		return nil, err
	}
	return d.dispatch(ctx, vhost, socketPath, req)
}

// dispatch sends req to the backend at socketPath and reads its response
// until the backend closes the connection.
func (d *Dispatcher) dispatch(ctx context.Context, vhost, socketPath string, req *Request) ([]byte, error) {
	start := time.Now()

	conn, err := d.dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		d.record(vhost, OutcomeDial, time.Since(start), 0)
		return nil, fmt.Errorf("connect to backend %s: %w", socketPath, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := WriteFrame(conn, req); err != nil {
		d.record(vhost, OutcomeWrite, time.Since(start), 0)
		return nil, fmt.Errorf("send to backend %s: %w", socketPath, err)
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		if err := uc.CloseWrite(); err != nil {
			d.logger.Debug("half-close failed", "socket", socketPath, "error", err)
		}
	}

	var resp bytes.Buffer
	if _, err := io.Copy(&resp, conn); err != nil {
		d.record(vhost, OutcomeRead, time.Since(start), resp.Len())
		return nil, fmt.Errorf("read from backend %s: %w", socketPath, err)
	}

	d.record(vhost, OutcomeOK, time.Since(start), resp.Len())
	d.logger.Debug("backend responded",
		"socket", socketPath,
		"bytes", resp.Len(),
		"duration", time.Since(start),
	)
	return resp.Bytes(), nil
}

func (d *Dispatcher) record(vhost, outcome string, dur time.Duration, n int) {
	if d.observer != nil {
		d.observer.RecordDispatch(vhost, outcome, dur, n)
	}
}
