//go:build linux

package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/miarh/pkg/backend"
	"mercator-hq/miarh/pkg/config"
	"mercator-hq/miarh/pkg/reactor"
	tlsutil "mercator-hq/miarh/pkg/security/tls"
)

const backendResponse = "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"

func writeCert(t *testing.T, dir string) (string, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "example.com"},
		DNSNames:     []string{"example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	if err := os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatal(err)
	}
	return certFile, keyFile
}

// startBackend serves backendResponse to every framed request on sock and
// forwards the decoded requests to the returned channel.
func startBackend(t *testing.T, sock string) <-chan *backend.Request {
	t.Helper()
	ln, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	reqs := make(chan *backend.Request, 8)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				req, err := backend.ReadFrame(c)
				if err != nil {
					return
				}
				reqs <- req
				_, _ = c.Write([]byte(backendResponse))
			}(c)
		}
	}()
	return reqs
}

type testServer struct {
	srv    *Server
	cfg    *config.Config
	reqs   <-chan *backend.Request
	cancel context.CancelFunc
	done   chan error
}

func startServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	root := t.TempDir()
	certFile, keyFile := writeCert(t, root)

	cfg := &config.Config{
		Server: config.ServerConfig{
			IP:               "127.0.0.1",
			ACMEChallengeDir: filepath.Join(root, "acme"),
			ACMEChallengeURL: config.DefaultACMEChallengeURL,
			IndexURL:         "/",
			MaxRequestSizeMB: 1,
			ShutdownTimeout:  2 * time.Second,
		},
		VirtualHosts: []config.VirtualHostConfig{{
			Name:       "site",
			Hostnames:  []string{"example.com"},
			SocketPath: filepath.Join(root, "app.sock"),
			StaticDir:  filepath.Join(root, "static"),
			IndexPath:  filepath.Join(root, "index.html"),
		}},
		Telemetry: config.TelemetryConfig{
			Metrics: config.MetricsConfig{
				Enabled:       true,
				ListenAddress: "127.0.0.1:0",
				Path:          "/metrics",
			},
			Health: config.HealthConfig{
				Enabled:       true,
				LivenessPath:  config.DefaultLivenessPath,
				ReadinessPath: config.DefaultReadinessPath,
				CheckTimeout:  time.Second,
			},
		},
		Security: config.SecurityConfig{
			TLS: config.TLSConfig{CertFile: certFile, KeyFile: keyFile, MinVersion: "1.2"},
		},
	}
	for _, fn := range mutate {
		fn(cfg)
	}
	for _, dir := range []string{cfg.Server.ACMEChallengeDir, cfg.VirtualHosts[0].StaticDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(cfg.VirtualHosts[0].StaticDir, "app.txt"), []byte("static body"), 0o644); err != nil {
		t.Fatal(err)
	}
	reqs := startBackend(t, cfg.VirtualHosts[0].SocketPath)

	certs := tlsutil.NewCertificateReloader(certFile, keyFile, nil)
	if err := certs.Load(); err != nil {
		t.Fatal(err)
	}

	srv, err := New(Options{Holder: config.NewHolder(cfg), Certificates: certs, Version: "test"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ts := &testServer{srv: srv, cfg: cfg, reqs: reqs, cancel: cancel, done: make(chan error, 1)}
	go func() { ts.done <- srv.Serve(ctx) }()
	t.Cleanup(ts.stop)
	return ts
}

func (ts *testServer) stop() {
	ts.cancel()
	select {
	case <-ts.done:
	case <-time.After(10 * time.Second):
	}
}

func (ts *testServer) https(t *testing.T, raw string) string {
	t.Helper()
	conn, err := tls.Dial("tcp", ts.srv.Addr(reactor.HTTPSListenerID).String(), &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         "example.com",
	})
	if err != nil {
		t.Fatalf("tls dial failed: %v", err)
	}
	defer conn.Close()
	return exchange(t, conn, raw)
}

func (ts *testServer) http(t *testing.T, raw string) string {
	t.Helper()
	conn, err := net.Dial("tcp", ts.srv.Addr(reactor.HTTPListenerID).String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	return exchange(t, conn, raw)
}

func exchange(t *testing.T, conn net.Conn, raw string) string {
	t.Helper()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err := conn.Write([]byte(raw)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	resp, err := io.ReadAll(conn)
	if err != nil && len(resp) == 0 {
		t.Fatalf("read failed: %v", err)
	}
	return string(resp)
}

func TestServer_HTTPS(t *testing.T) {
	ts := startServer(t)

	resp := ts.https(t, "GET /api/items?id=7 HTTP/1.1\r\nHost: example.com\r\n\r\n")
	if resp != backendResponse {
		t.Errorf("expected backend response, got %q", resp)
	}
	select {
	case req := <-ts.reqs:
		if req.Path != "/api/items?id=7" || req.Query["id"] != "7" {
			t.Errorf("unexpected backend request %+v", req)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("backend received no request")
	}

	resp = ts.https(t, "GET /static/app.txt HTTP/1.1\r\nHost: example.com\r\n\r\n")
	if !strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n") || !strings.HasSuffix(resp, "static body") {
		t.Errorf("expected static file, got %q", resp)
	}

	resp = ts.https(t, "GET /static/none.txt HTTP/1.1\r\nHost: example.com\r\n\r\n")
	if !strings.HasPrefix(resp, "HTTP/1.1 404") {
		t.Errorf("expected 404, got %q", resp)
	}
}

func TestServer_HTTPRedirect(t *testing.T) {
	ts := startServer(t)

	resp := ts.http(t, "GET /login HTTP/1.1\r\nHost: example.com\r\n\r\n")
	want := "HTTP/1.1 301 Moved Permanently\r\nLocation: https://example.com:443/login\r\nContent-length: 0\r\n\r\n"
	if resp != want {
		t.Errorf("expected %q, got %q", want, resp)
	}
}

func TestServer_Admin(t *testing.T) {
	ts := startServer(t)
	base := "http://" + ts.srv.AdminAddr().String()

	resp, err := http.Get(base + config.DefaultReadinessPath)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected ready, got %d: %s", resp.StatusCode, body)
	}

	// One connection so the connection counters exist.
	ts.http(t, "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n")

	resp, err = http.Get(base + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "connections_total") {
		t.Errorf("expected connection metrics, got %s", body)
	}
}

func TestServer_AdminAuth(t *testing.T) {
	ts := startServer(t, func(cfg *config.Config) {
		cfg.Security.Admin = config.AdminAuthConfig{
			Tokens:      []config.AdminTokenConfig{{Name: "ops", Token: "ops-secret"}},
			PublicPaths: []string{config.DefaultLivenessPath},
		}
	})
	base := "http://" + ts.srv.AdminAddr().String()

	get := func(path, token string) int {
		req, _ := http.NewRequest(http.MethodGet, base+path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := get(config.DefaultLivenessPath, ""); code != http.StatusOK {
		t.Errorf("expected public liveness probe, got %d", code)
	}
	if code := get("/metrics", ""); code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", code)
	}
	if code := get("/metrics", "ops-secret"); code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", code)
	}
}

func TestServer_Shutdown(t *testing.T) {
	ts := startServer(t)

	// An idle client that never sends a request must not block shutdown
	// past the timeout.
	idle, err := net.Dial("tcp", ts.srv.Addr(reactor.HTTPListenerID).String())
	if err != nil {
		t.Fatal(err)
	}
	defer idle.Close()
	time.Sleep(50 * time.Millisecond)

	ts.cancel()
	select {
	case err := <-ts.done:
		if err != nil {
			t.Errorf("Serve() returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}

	if _, err := net.DialTimeout("tcp", ts.srv.Addr(reactor.HTTPListenerID).String(), time.Second); err == nil {
		t.Error("expected listener to be closed")
	}
	ts.done <- nil
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected error without configuration")
	}
	if _, err := New(Options{Holder: config.NewHolder(&config.Config{})}); err == nil {
		t.Error("expected error without certificates")
	}
}
