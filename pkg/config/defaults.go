package config

import (
	"os"
	"time"
)

// Default values for configuration fields.
const (
	// Server defaults
	DefaultIP               = "0.0.0.0"
	DefaultHTTPSPort        = 443
	DefaultHTTPPort         = 80
	DefaultACMEChallengeDir = "/var/www/acme"
	DefaultACMEChallengeURL = "/.well-known/acme-challenge/"
	DefaultIndexURL         = "/"
	DefaultMaxRequestSizeMB = 10
	DefaultPidFile          = "miarh.pid"
	DefaultShutdownTimeout  = 10 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultMetricsAddress     = "127.0.0.1:9090"
	DefaultPrometheusPath     = "/metrics"
	DefaultMetricsNamespace   = "miarh"
	DefaultMetricsSubsystem   = "gateway"
	DefaultHealthEnabled      = true
	DefaultLivenessPath       = "/health/live"
	DefaultReadinessPath      = "/health/ready"
	DefaultHealthCheckTimeout = 2 * time.Second

	// Security defaults
	DefaultTLSMinVersion       = "1.2"
	DefaultTLSWatch            = true
	DefaultExpiryCheckSchedule = "0 6 * * *"
)

// DefaultDispatchDurationBuckets are the backend round-trip histogram buckets.
var DefaultDispatchDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	s := &cfg.Server
	if s.IP == "" {
		s.IP = DefaultIP
	}
	if s.HTTPSPort == 0 {
		s.HTTPSPort = DefaultHTTPSPort
	}
	if s.HTTPPort == 0 {
		s.HTTPPort = DefaultHTTPPort
	}
	if s.ACMEChallengeDir == "" {
		s.ACMEChallengeDir = DefaultACMEChallengeDir
	}
	if s.ACMEChallengeURL == "" {
		s.ACMEChallengeURL = DefaultACMEChallengeURL
	}
	if s.IndexURL == "" {
		s.IndexURL = DefaultIndexURL
	}
	if s.TmpDir == "" {
		s.TmpDir = os.TempDir()
	}
	if s.MaxRequestSizeMB == 0 {
		s.MaxRequestSizeMB = DefaultMaxRequestSizeMB
	}
	if s.PidFile == "" {
		s.PidFile = DefaultPidFile
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}

	m := &cfg.Telemetry.Metrics
	// A metrics section without an address is treated as "use defaults".
	if m.ListenAddress == "" && m.Path == "" {
		m.Enabled = DefaultMetricsEnabled
		m.ListenAddress = DefaultMetricsAddress
	}
	if m.Path == "" {
		m.Path = DefaultPrometheusPath
	}
	if m.Namespace == "" {
		m.Namespace = DefaultMetricsNamespace
	}
	if m.Subsystem == "" {
		m.Subsystem = DefaultMetricsSubsystem
	}
	if len(m.DispatchDurationBuckets) == 0 {
		m.DispatchDurationBuckets = append([]float64(nil), DefaultDispatchDurationBuckets...)
	}

	h := &cfg.Telemetry.Health
	if h.LivenessPath == "" && h.ReadinessPath == "" {
		h.Enabled = DefaultHealthEnabled
	}
	if h.LivenessPath == "" {
		h.LivenessPath = DefaultLivenessPath
	}
	if h.ReadinessPath == "" {
		h.ReadinessPath = DefaultReadinessPath
	}
	if h.CheckTimeout == 0 {
		h.CheckTimeout = DefaultHealthCheckTimeout
	}

	// Security defaults
	t := &cfg.Security.TLS
	if t.MinVersion == "" {
		t.MinVersion = DefaultTLSMinVersion
		// First pass over an untouched section: enable the watcher.
		t.Watch = DefaultTLSWatch
	}
	if t.ExpiryCheckSchedule == "" {
		t.ExpiryCheckSchedule = DefaultExpiryCheckSchedule
	}
}
