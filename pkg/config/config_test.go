package config

import (
	"testing"
	"time"
)

func TestHostFor(t *testing.T) {
	cfg := validConfig()

	tests := []struct {
		host string
		want string
	}{
		{"shop.example.com", "shop"},
		{"www.shop.example.com", "shop"},
		{"SHOP.example.com", ""},
		{"example.com", ""},
		{"", ""},
	}

	for _, tt := range tests {
		vh := cfg.HostFor(tt.host)
		got := ""
		if vh != nil {
			got = vh.Name
		}
		if got != tt.want {
			t.Errorf("HostFor(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestStaticRoot(t *testing.T) {
	cfg := validConfig()
	vh := &cfg.VirtualHosts[0]
	vh.DevStaticDir = "/home/dev/static"

	if got := cfg.StaticRoot(vh); got != "/srv/shop/static" {
		t.Errorf("StaticRoot() = %q, want production dir", got)
	}

	cfg.Server.DevMode = true
	if got := cfg.StaticRoot(vh); got != "/home/dev/static" {
		t.Errorf("StaticRoot() in dev mode = %q, want dev dir", got)
	}

	vh.DevStaticDir = ""
	if got := cfg.StaticRoot(vh); got != "/srv/shop/static" {
		t.Errorf("StaticRoot() without dev dir = %q, want production dir", got)
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Server.HTTPSPort != DefaultHTTPSPort || cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("unexpected ports %d/%d", cfg.Server.HTTPSPort, cfg.Server.HTTPPort)
	}
	if cfg.Server.MaxRequestSizeMB != DefaultMaxRequestSizeMB {
		t.Errorf("expected max request size %d, got %d", DefaultMaxRequestSizeMB, cfg.Server.MaxRequestSizeMB)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected shutdown timeout 10s, got %v", cfg.Server.ShutdownTimeout)
	}
	if !cfg.Telemetry.Metrics.Enabled || cfg.Telemetry.Metrics.ListenAddress != DefaultMetricsAddress {
		t.Errorf("unexpected metrics defaults: %+v", cfg.Telemetry.Metrics)
	}
	if !cfg.Security.TLS.Watch {
		t.Error("expected certificate watch enabled by default")
	}
	if cfg.Server.TmpDir == "" {
		t.Error("expected tmp dir default")
	}

	// idempotent
	before := cfg.Server
	ApplyDefaults(&cfg)
	if cfg.Server != before {
		t.Error("ApplyDefaults should be idempotent")
	}
}
