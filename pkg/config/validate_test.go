package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "invalid ip",
			mutate: func(c *Config) { c.Server.IP = "not-an-ip" },
			field:  "server.ip",
		},
		{
			name:   "ipv6 rejected",
			mutate: func(c *Config) { c.Server.IP = "::1" },
			field:  "server.ip",
		},
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.HTTPSPort = 70000 },
			field:  "server.https_port",
		},
		{
			name:   "shared port",
			mutate: func(c *Config) { c.Server.HTTPPort = c.Server.HTTPSPort },
			field:  "server.http_port",
		},
		{
			name:   "relative acme url",
			mutate: func(c *Config) { c.Server.ACMEChallengeURL = "acme/" },
			field:  "server.acme_challenge_url",
		},
		{
			name:   "negative request size",
			mutate: func(c *Config) { c.Server.MaxRequestSizeMB = -1 },
			field:  "server.max_request_size_mb",
		},
		{
			name:   "no virtual hosts",
			mutate: func(c *Config) { c.VirtualHosts = nil },
			field:  "virtual_hosts",
		},
		{
			name: "duplicate hostname",
			mutate: func(c *Config) {
				vh := c.VirtualHosts[0]
				vh.Name = "other"
				c.VirtualHosts = append(c.VirtualHosts, vh)
			},
			field: "virtual_hosts[1].hostnames",
		},
		{
			name:   "relative static dir",
			mutate: func(c *Config) { c.VirtualHosts[0].StaticDir = "static" },
			field:  "virtual_hosts[0].static_dir",
		},
		{
			name:   "missing socket",
			mutate: func(c *Config) { c.VirtualHosts[0].SocketPath = "" },
			field:  "virtual_hosts[0].socket_path",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Telemetry.Logging.Level = "trace" },
			field:  "telemetry.logging.level",
		},
		{
			name:   "bad metrics address",
			mutate: func(c *Config) { c.Telemetry.Metrics.ListenAddress = "nope" },
			field:  "telemetry.metrics.listen_address",
		},
		{
			name:   "missing cert",
			mutate: func(c *Config) { c.Security.TLS.CertFile = "" },
			field:  "security.tls.cert_file",
		},
		{
			name:   "tls 1.0",
			mutate: func(c *Config) { c.Security.TLS.MinVersion = "1.0" },
			field:  "security.tls.min_version",
		},
		{
			name: "empty admin token",
			mutate: func(c *Config) {
				c.Security.Admin.Tokens = []AdminTokenConfig{{Name: "ops"}}
			},
			field: "security.admin.tokens[0].token",
		},
		{
			name: "duplicate admin token name",
			mutate: func(c *Config) {
				c.Security.Admin.Tokens = []AdminTokenConfig{
					{Name: "ops", Token: "a"},
					{Name: "ops", Token: "b"},
				}
			},
			field: "security.admin.tokens[1].name",
		},
		{
			name:   "relative public path",
			mutate: func(c *Config) { c.Security.Admin.PublicPaths = []string{"health/live"} },
			field:  "security.admin.public_paths[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			verr, ok := err.(ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %q, got %v", tt.field, verr.Errors)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	if got := (ValidationError{}).Error(); got != "configuration validation failed" {
		t.Errorf("unexpected message: %q", got)
	}

	one := ValidationError{Errors: []FieldError{{Field: "a", Message: "b"}}}
	if got := one.Error(); got != "configuration validation failed: a: b" {
		t.Errorf("unexpected message: %q", got)
	}

	two := ValidationError{Errors: []FieldError{{Field: "a", Message: "b"}, {Field: "c", Message: "d"}}}
	if got := two.Error(); !strings.Contains(got, "2 errors") || !strings.Contains(got, "  - c: d") {
		t.Errorf("unexpected message: %q", got)
	}
}
