package backend

import (
	"context"
	"errors"
	"io"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mercator-hq/miarh/pkg/config"
)

// fakeBackend accepts one connection, decodes the frame, and replies with
// a fixed HTTP response after the client half-closes.
type fakeBackend struct {
	path     string
	listener net.Listener
	received chan *Request
	accepted chan struct{}
}

func startFakeBackend(t *testing.T, reply string) *fakeBackend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	fb := &fakeBackend{
		path:     path,
		listener: ln,
		received: make(chan *Request, 1),
		accepted: make(chan struct{}, 1),
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		fb.accepted <- struct{}{}

		req, err := ReadFrame(conn)
		if err != nil {
			return
		}
		// The client closes its write side after the frame.
		if n, _ := io.Copy(io.Discard, conn); n != 0 {
			return
		}
		fb.received <- req
		_, _ = io.WriteString(conn, reply)
	}()
	return fb
}

func holderFor(socketPath string) *config.Holder {
	return config.NewHolder(&config.Config{
		VirtualHosts: []config.VirtualHostConfig{{
			Name:       "site",
			Hostnames:  []string{"example.com", "www.example.com"},
			SocketPath: socketPath,
		}},
	})
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) RecordDispatch(_ string, outcome string, _ time.Duration, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func TestDispatcher_Forward(t *testing.T) {
	const reply = "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"
	fb := startFakeBackend(t, reply)
	obs := &recordingObserver{}
	d := NewDispatcher(holderFor(fb.path), obs, nil)

	req := sampleRequest()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := d.Forward(ctx, req)
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if string(resp) != reply {
		t.Errorf("expected %q, got %q", reply, resp)
	}

	select {
	case got := <-fb.received:
		if got.Path != req.Path || got.SessionID != req.SessionID {
			t.Errorf("backend received %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("backend did not receive a request")
	}

	if len(obs.outcomes) != 1 || obs.outcomes[0] != OutcomeOK {
		t.Errorf("expected [ok], got %v", obs.outcomes)
	}
}

func TestDispatcher_UnknownHost(t *testing.T) {
	fb := startFakeBackend(t, "")
	obs := &recordingObserver{}
	d := NewDispatcher(holderFor(fb.path), obs, nil)

	req := sampleRequest()
	req.Host = "Example.com"
	_, err := d.Forward(context.Background(), req)
	if !errors.Is(err, ErrNoBackend) {
		t.Fatalf("expected ErrNoBackend, got %v", err)
	}

	select {
	case <-fb.accepted:
		t.Error("expected no connection attempt for an unknown host")
	case <-time.After(50 * time.Millisecond):
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != OutcomeNoBackend {
		t.Errorf("expected [no_backend], got %v", obs.outcomes)
	}
}

func TestDispatcher_DialError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.sock")
	d := NewDispatcher(holderFor(missing), nil, nil)

	if _, err := d.Forward(context.Background(), sampleRequest()); err == nil {
		t.Fatal("expected error dialing a missing socket")
	}
}

func TestDispatcher_SocketFor(t *testing.T) {
	d := NewDispatcher(holderFor("/run/app.sock"), nil, nil)

	tests := []struct {
		host    string
		want    string
		wantErr bool
	}{
		{"example.com", "/run/app.sock", false},
		{"www.example.com", "/run/app.sock", false},
		{"api.example.com", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			got, vhost, err := d.SocketFor(tt.host)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SocketFor(%q) error = %v, wantErr %v", tt.host, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			if !tt.wantErr && vhost != "site" {
				t.Errorf("expected vhost site, got %q", vhost)
			}
		})
	}
}
