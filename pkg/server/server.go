//go:build linux

package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"mercator-hq/miarh/pkg/backend"
	"mercator-hq/miarh/pkg/cache"
	"mercator-hq/miarh/pkg/config"
	"mercator-hq/miarh/pkg/proxy"
	"mercator-hq/miarh/pkg/reactor"
	"mercator-hq/miarh/pkg/security/auth"
	tlsutil "mercator-hq/miarh/pkg/security/tls"
	"mercator-hq/miarh/pkg/telemetry/health"
	"mercator-hq/miarh/pkg/telemetry/logging"
	"mercator-hq/miarh/pkg/telemetry/metrics"
)

// Listener names used in logs and metrics.
const (
	ListenerHTTPS = "https"
	ListenerHTTP  = "http"
)

// acceptWait bounds a single Accept after a readiness event.
const acceptWait = 100 * time.Millisecond

// OutcomeHandshakeError is recorded when the TLS handshake fails.
const OutcomeHandshakeError = "handshake_error"

// Options holds the collaborators a Server is built from.
type Options struct {
	// Holder supplies the configuration snapshot.
	Holder *config.Holder

	// Certificates serves the HTTPS identity. It must already be loaded.
	Certificates *tlsutil.CertificateReloader

	// Metrics records connection, backend and cache metrics. If nil a
	// collector with its own registry is created.
	Metrics *metrics.Collector

	// Logger is the base logger. Defaults to slog.Default().
	Logger *slog.Logger

	// Build information served on /version.
	Version   string
	Commit    string
	BuildTime string
}

// Server owns the listeners, the reactor and every shared component a
// connection task needs.
type Server struct {
	holder     *config.Holder
	certs      *tlsutil.CertificateReloader
	tlsConfig  *tls.Config
	cache      *cache.Cache
	dispatcher *backend.Dispatcher
	https      *proxy.Handler
	redirect   *proxy.RedirectHandler
	metrics    *metrics.Collector
	health     *health.Checker
	expiry     *tlsutil.ExpiryScheduler
	logger     *slog.Logger
	opts       Options

	reactor   *reactor.Reactor
	listeners map[uint64]*net.TCPListener
	admin     *http.Server
	adminLn   net.Listener

	connCtx     context.Context
	cancelConns context.CancelFunc
	wg          sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// New builds a Server from opts. No sockets are opened until Listen.
func New(opts Options) (*Server, error) {
	if opts.Holder == nil || opts.Holder.Get() == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if opts.Certificates == nil {
		return nil, fmt.Errorf("certificate reloader is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Holder.Get()

	collector := opts.Metrics
	if collector == nil {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	tlsConfig, err := tlsutil.ServerConfig(cfg.Security.TLS, opts.Certificates)
	if err != nil {
		return nil, fmt.Errorf("failed to configure TLS: %w", err)
	}

	staticCache := cache.New(&cache.Config{
		Observer: collector.Cache(),
		Logger:   logger,
	})
	static := proxy.NewStaticResponder(staticCache, logger)
	dispatcher := backend.NewDispatcher(opts.Holder, collector, logger)

	connCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		holder:      opts.Holder,
		certs:       opts.Certificates,
		tlsConfig:   tlsConfig,
		cache:       staticCache,
		dispatcher:  dispatcher,
		https:       proxy.NewHandler(opts.Holder, static, dispatcher, logger),
		redirect:    proxy.NewRedirectHandler(opts.Holder, static, logger),
		metrics:     collector,
		health:      health.New(cfg.Telemetry.Health.CheckTimeout),
		expiry:      tlsutil.NewExpiryScheduler(opts.Certificates, cfg.Security.TLS.ExpiryCheckSchedule, logger),
		logger:      logger.With("component", "server"),
		opts:        opts,
		listeners:   make(map[uint64]*net.TCPListener),
		connCtx:     connCtx,
		cancelConns: cancel,
	}
	s.registerChecks(cfg)
	return s, nil
}

// registerChecks adds one readiness check per backend socket and static
// root, plus the ACME directory and the certificate.
func (s *Server) registerChecks(cfg *config.Config) {
	for i := range cfg.VirtualHosts {
		vh := &cfg.VirtualHosts[i]
		s.health.RegisterCheck("backend:"+vh.Name, health.SocketCheck(vh.SocketPath))
		s.health.RegisterCheck("static:"+vh.Name, health.DirCheck(cfg.StaticRoot(vh)))
	}
	s.health.RegisterCheck("acme", health.DirCheck(cfg.Server.ACMEChallengeDir))
	s.health.RegisterCriticalCheck("certificate", health.CertificateCheck(s.certs.GetCertificate, 0))
}

// Listen binds both listeners and the admin listener and registers the
// listeners with a new reactor. Failure here is fatal at startup.
func (s *Server) Listen() error {
	cfg := s.holder.Get()

	r, err := reactor.New(s.logger)
	if err != nil {
		return err
	}
	s.reactor = r

	fail := func(err error) error {
		s.closeListeners()
		r.Close()
		s.reactor = nil
		return err
	}

	binds := []struct {
		id   uint64
		port int
	}{
		{reactor.HTTPSListenerID, cfg.Server.HTTPSPort},
		{reactor.HTTPListenerID, cfg.Server.HTTPPort},
	}
	for _, b := range binds {
		addr := net.JoinHostPort(cfg.Server.IP, strconv.Itoa(b.port))
		ln, err := net.Listen("tcp4", addr)
		if err != nil {
			return fail(fmt.Errorf("failed to listen on %s: %w", addr, err))
		}
		tcp := ln.(*net.TCPListener)
		s.listeners[b.id] = tcp

		fd, err := reactor.FD(tcp)
		if err != nil {
			return fail(err)
		}
		if err := r.RegisterListener(fd, b.id); err != nil {
			return fail(err)
		}
		s.logger.Info("listening",
			"listener", listenerName(b.id),
			"address", tcp.Addr().String(),
		)
	}

	if addr := cfg.Telemetry.Metrics.ListenAddress; addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fail(fmt.Errorf("failed to listen on admin address %s: %w", addr, err))
		}
		s.adminLn = ln
		s.admin = &http.Server{
			Handler:           s.AdminHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return nil
}

// AdminHandler returns the mux serving metrics and health endpoints,
// behind token authentication when admin tokens are configured.
func (s *Server) AdminHandler() http.Handler {
	cfg := s.holder.Get()
	mux := http.NewServeMux()
	if cfg.Telemetry.Metrics.Enabled {
		mux.Handle(cfg.Telemetry.Metrics.Path, s.metrics.Handler())
	}
	if cfg.Telemetry.Health.Enabled {
		s.health.Mount(mux, cfg.Telemetry.Health, s.opts.Version, s.opts.Commit, s.opts.BuildTime)
	}

	admin := cfg.Security.Admin
	if len(admin.Tokens) == 0 {
		return mux
	}
	return auth.NewMiddleware(auth.FromConfig(admin), admin.PublicPaths, s.logger).Handle(mux)
}

// Addr returns the bound address of the listener with the reserved id.
func (s *Server) Addr(id uint64) net.Addr {
	if ln, ok := s.listeners[id]; ok {
		return ln.Addr()
	}
	return nil
}

// AdminAddr returns the bound admin address, or nil when disabled.
func (s *Server) AdminAddr() net.Addr {
	if s.adminLn == nil {
		return nil
	}
	return s.adminLn.Addr()
}

// Serve runs the reactor until ctx is cancelled, then shuts down
// gracefully. Listen must have succeeded.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	if s.reactor == nil {
		s.mu.Unlock()
		return fmt.Errorf("server is not listening")
	}
	s.running = true
	s.mu.Unlock()

	cfg := s.holder.Get()

	if cfg.Security.TLS.Watch {
		go func() {
			if err := s.certs.Watch(ctx); err != nil {
				s.logger.Error("certificate watcher failed", "error", err)
			}
		}()
	}
	if err := s.expiry.Start(ctx); err != nil {
		s.logger.Error("failed to start certificate expiry checks", "error", err)
	}

	if s.admin != nil {
		go func() {
			s.logger.Info("admin listener started", "address", s.adminLn.Addr().String())
			if err := s.admin.Serve(s.adminLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("admin listener failed", "error", err)
			}
		}()
	}

	s.logger.Info("reactor started")
	runErr := s.reactor.Run(ctx, reactor.DispatcherFunc(s.OnListener))
	if runErr != nil {
		s.logger.Error("reactor stopped", "error", runErr)
	}

	if err := s.shutdown(cfg.Server.ShutdownTimeout); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// OnListener accepts one connection from the listener with the given id
// and starts its task. It runs on the reactor goroutine.
func (s *Server) OnListener(id uint64) {
	ln, ok := s.listeners[id]
	if !ok {
		s.logger.Warn("event for unknown listener", "id", id)
		return
	}

	_ = ln.SetDeadline(time.Now().Add(acceptWait))
	conn, err := ln.AcceptTCP()
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			s.logger.Debug("accept timed out", "listener", listenerName(id))
			return
		}
		s.logger.Error("accept failed", "listener", listenerName(id), "error", err)
		return
	}

	s.wg.Add(1)
	go s.handle(conn, listenerName(id))
}

// handle runs one connection task.
func (s *Server) handle(conn *net.TCPConn, listener string) {
	defer s.wg.Done()

	start := time.Now()
	ctx := logging.WithConnectionID(s.connCtx, logging.NewConnectionID())
	ctx = logging.WithListener(ctx, listener)
	ctx = logging.WithRemoteAddr(ctx, conn.RemoteAddr().String())

	s.metrics.ConnectionStarted(listener)
	outcome := string(proxy.OutcomeReadError)
	defer func() {
		conn.Close()
		s.metrics.ConnectionFinished(listener, outcome, time.Since(start))
		s.logger.DebugContext(ctx, "connection closed",
			"outcome", outcome,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()

	id, ready, err := s.reactor.RegisterConn(conn)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to register connection", "error", err)
		return
	}
	defer func() {
		if err := s.reactor.Deregister(id); err != nil {
			s.logger.WarnContext(ctx, "failed to deregister connection", "error", err)
		}
	}()

	select {
	case <-ready:
	case <-ctx.Done():
		return
	}

	if listener == ListenerHTTP {
		outcome = string(s.redirect.Serve(ctx, conn))
		return
	}

	tlsConn := tls.Server(conn, s.tlsConfig)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		s.logger.DebugContext(ctx, "tls handshake failed", "error", err)
		outcome = OutcomeHandshakeError
		return
	}
	outcome = string(s.https.Serve(ctx, tlsConn))
	_ = tlsConn.CloseWrite()
}

// shutdown closes the listeners, waits up to timeout for in-flight
// connections, then aborts the rest and releases the reactor.
func (s *Server) shutdown(timeout time.Duration) error {
	s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())
	s.closeListeners()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warn("shutdown timeout exceeded, aborting connections",
			"pending", s.reactor.Pending(),
		)
		s.cancelConns()
		<-done
	}
	s.cancelConns()

	var errs []error
	if s.admin != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := s.admin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin shutdown: %w", err))
		}
		cancel()
		_ = s.adminLn.Close()
	}
	s.expiry.Stop()
	if err := s.reactor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("reactor close: %w", err))
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("server stopped")
	return errors.Join(errs...)
}

func (s *Server) closeListeners() {
	for id, ln := range s.listeners {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn("failed to close listener", "listener", listenerName(id), "error", err)
		}
	}
}

// Cache returns the static file cache.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// Health returns the readiness checker.
func (s *Server) Health() *health.Checker {
	return s.health
}

func listenerName(id uint64) string {
	if id == reactor.HTTPSListenerID {
		return ListenerHTTPS
	}
	return ListenerHTTP
}
