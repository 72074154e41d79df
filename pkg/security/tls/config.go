package tls

import (
	"crypto/tls"
	"fmt"

	"mercator-hq/miarh/pkg/config"
)

// ServerConfig builds the crypto/tls configuration for the HTTPS listener.
// The identity is served by reloader so that renewals apply to new
// handshakes without a restart.
func ServerConfig(cfg config.TLSConfig, reloader *CertificateReloader) (*tls.Config, error) {
	if reloader == nil {
		return nil, fmt.Errorf("certificate reloader is required")
	}
	if reloader.GetCertificate() == nil {
		return nil, fmt.Errorf("no certificate loaded from %s", cfg.CertFile)
	}

	suites, err := parseCipherSuites(cfg.CipherSuites)
	if err != nil {
		return nil, err
	}

	// #nosec G402 - MinVersion is validated to 1.2 or 1.3
	return &tls.Config{
		GetCertificate: reloader.GetCertificateFunc(),
		MinVersion:     parseTLSVersion(cfg.MinVersion),
		CipherSuites:   suites,
		NextProtos:     []string{"http/1.1"},
	}, nil
}

// parseTLSVersion converts the MinVersion string to a tls.Version constant.
func parseTLSVersion(v string) uint16 {
	switch v {
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}

// parseCipherSuites converts cipher suite names to tls.CipherSuite constants.
// If no cipher suites are specified, returns nil to use Go's secure defaults.
func parseCipherSuites(names []string) ([]uint16, error) {
	if len(names) == 0 {
		return nil, nil
	}

	suites := make([]uint16, 0, len(names))
	for _, name := range names {
		id, ok := cipherSuiteMap[name]
		if !ok {
			return nil, fmt.Errorf("unsupported cipher suite %q", name)
		}
		suites = append(suites, id)
	}

	return suites, nil
}

// cipherSuiteMap maps cipher suite names to their tls package constants.
// Only secure TLS 1.2 suites are listed; TLS 1.3 suites are not configurable.
var cipherSuiteMap = map[string]uint16{
	"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256":   tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384":   tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256": tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	"TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384": tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	"TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305":    tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
	"TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305":  tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
}

// ValidCipherSuite reports whether name is an accepted cipher suite.
func ValidCipherSuite(name string) bool {
	_, ok := cipherSuiteMap[name]
	return ok
}
