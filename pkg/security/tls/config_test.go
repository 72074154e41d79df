package tls

import (
	"crypto/tls"
	"testing"

	"mercator-hq/miarh/pkg/config"
)

func TestServerConfig(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := validCert(t, dir, "example.com")

	reloader := NewCertificateReloader(certFile, keyFile, nil)
	if _, err := ServerConfig(config.TLSConfig{CertFile: certFile}, reloader); err == nil {
		t.Error("expected error before the certificate is loaded")
	}
	if err := reloader.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	tests := []struct {
		name        string
		cfg         config.TLSConfig
		wantVersion uint16
		wantSuites  int
		expectError bool
	}{
		{
			name:        "defaults",
			cfg:         config.TLSConfig{MinVersion: "1.2"},
			wantVersion: tls.VersionTLS12,
		},
		{
			name:        "tls 1.3",
			cfg:         config.TLSConfig{MinVersion: "1.3"},
			wantVersion: tls.VersionTLS13,
		},
		{
			name: "custom suites",
			cfg: config.TLSConfig{
				MinVersion:   "1.2",
				CipherSuites: []string{"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256", "TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305"},
			},
			wantVersion: tls.VersionTLS12,
			wantSuites:  2,
		},
		{
			name:        "unknown suite",
			cfg:         config.TLSConfig{MinVersion: "1.2", CipherSuites: []string{"TLS_RSA_WITH_RC4_128_SHA"}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tlsConfig, err := ServerConfig(tt.cfg, reloader)
			if tt.expectError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tlsConfig.MinVersion != tt.wantVersion {
				t.Errorf("expected MinVersion %x, got %x", tt.wantVersion, tlsConfig.MinVersion)
			}
			if len(tlsConfig.CipherSuites) != tt.wantSuites {
				t.Errorf("expected %d cipher suites, got %d", tt.wantSuites, len(tlsConfig.CipherSuites))
			}
			cert, err := tlsConfig.GetCertificate(&tls.ClientHelloInfo{ServerName: "example.com"})
			if err != nil || cert == nil {
				t.Errorf("expected certificate from GetCertificate, got %v, %v", cert, err)
			}
		})
	}
}

func TestValidCipherSuite(t *testing.T) {
	if !ValidCipherSuite("TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256") {
		t.Error("expected suite to be valid")
	}
	if ValidCipherSuite("TLS_AES_128_GCM_SHA256") {
		t.Error("TLS 1.3 suites are not configurable")
	}
}
