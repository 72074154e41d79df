package config

import "time"

// Config is the root configuration structure for the miarh edge gateway.
// It contains the listener and filesystem layout, the virtual host table,
// telemetry, and TLS identity settings.
type Config struct {
	// Server contains listener addresses, well-known URL prefixes and
	// request limits shared by every virtual host.
	Server ServerConfig `yaml:"server"`

	// VirtualHosts binds hostnames to a backend socket and a static root.
	VirtualHosts []VirtualHostConfig `yaml:"virtual_hosts"`

	// Telemetry contains configuration for logging, metrics and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Security contains the TLS identity used by the HTTPS listener.
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig contains process-wide gateway settings.
type ServerConfig struct {
	// IP is the IPv4 address both listeners bind to.
	// Default: "0.0.0.0"
	IP string `yaml:"ip"`

	// HTTPSPort is the TLS listener port.
	// Default: 443
	HTTPSPort int `yaml:"https_port"`

	// HTTPPort is the plaintext listener port. It only redirects to HTTPS
	// and serves ACME challenges.
	// Default: 80
	HTTPPort int `yaml:"http_port"`

	// ACMEChallengeDir is the directory holding ACME challenge tokens.
	// Default: "/var/www/acme"
	ACMEChallengeDir string `yaml:"acme_challenge_dir"`

	// ACMEChallengeURL is the URL prefix mapped onto ACMEChallengeDir.
	// Default: "/.well-known/acme-challenge/"
	ACMEChallengeURL string `yaml:"acme_challenge_url"`

	// IndexURL is the path served from a virtual host's index document.
	// Default: "/"
	IndexURL string `yaml:"index_url"`

	// TmpDir is a scratch directory shared with backends.
	// Default: os.TempDir()
	TmpDir string `yaml:"tmp_dir"`

	// MaxRequestSizeMB is the hard ceiling on bytes read from one
	// connection. Requests past it receive a 413 response.
	// Default: 10
	MaxRequestSizeMB int `yaml:"max_request_size_mb"`

	// PidFile is the path of the pid file written at startup.
	// Default: "miarh.pid"
	PidFile string `yaml:"pid_file"`

	// DevMode serves static assets from each virtual host's DevStaticDir.
	// Default: false
	DevMode bool `yaml:"dev_mode"`

	// ShutdownTimeout bounds how long in-flight connections are awaited
	// after a shutdown signal.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// VirtualHostConfig binds one or more hostnames to an application backend.
type VirtualHostConfig struct {
	// Name identifies the virtual host in logs and metrics.
	Name string `yaml:"name"`

	// Hostnames are matched exactly (case-preserving) against the
	// request Host header.
	Hostnames []string `yaml:"hostnames"`

	// SocketPath is the backend Unix-domain socket.
	SocketPath string `yaml:"socket_path"`

	// StaticDir is the root for /static/ requests.
	StaticDir string `yaml:"static_dir"`

	// DevStaticDir replaces StaticDir when server.dev_mode is set.
	DevStaticDir string `yaml:"dev_static_dir"`

	// IndexPath is the file served for server.index_url.
	IndexPath string `yaml:"index_path"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the admin listener serving metrics and health
	// endpoints. Empty disables the admin listener.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "miarh"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "gateway"
	Subsystem string `yaml:"subsystem"`

	// DispatchDurationBuckets defines histogram buckets for backend
	// round trips (seconds).
	// Default: [0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5]
	DispatchDurationBuckets []float64 `yaml:"dispatch_duration_buckets"`
}

// HealthConfig contains health check configuration.
type HealthConfig struct {
	// Enabled controls whether health endpoints are mounted on the admin
	// listener.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the liveness probe path.
	// Default: "/health/live"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the readiness probe path.
	// Default: "/health/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout bounds each readiness check.
	// Default: 2s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// SecurityConfig contains security-related configuration.
type SecurityConfig struct {
	// TLS contains the HTTPS listener identity.
	TLS TLSConfig `yaml:"tls"`

	// Admin controls access to the admin listener.
	Admin AdminAuthConfig `yaml:"admin"`
}

// AdminAuthConfig contains bearer-token authentication for the admin
// listener. With no tokens configured the admin endpoints are open.
type AdminAuthConfig struct {
	// Tokens are the bearer tokens accepted on the admin listener.
	Tokens []AdminTokenConfig `yaml:"tokens"`

	// PublicPaths are served without a token, typically the probe paths.
	PublicPaths []string `yaml:"public_paths"`
}

// AdminTokenConfig is one named admin token.
type AdminTokenConfig struct {
	// Name identifies the token holder in logs.
	Name string `yaml:"name"`

	// Token is the secret presented as "Authorization: Bearer <token>".
	Token string `yaml:"token"`

	// Disabled rejects the token without removing it.
	// Default: false
	Disabled bool `yaml:"disabled"`
}

// TLSConfig contains TLS identity configuration for the HTTPS listener.
type TLSConfig struct {
	// CertFile is the path to the PEM certificate chain.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM private key.
	KeyFile string `yaml:"key_file"`

	// MinVersion is the minimum TLS version to accept.
	// Options: "1.2", "1.3"
	// Default: "1.2"
	MinVersion string `yaml:"min_version"`

	// CipherSuites is a list of enabled TLS 1.2 cipher suites.
	// If empty, Go's default secure cipher suites are used.
	CipherSuites []string `yaml:"cipher_suites"`

	// Watch reloads the identity when the certificate or key file changes.
	// Default: true
	Watch bool `yaml:"watch"`

	// ExpiryCheckSchedule is a cron expression for logging certificate
	// expiry warnings. Empty disables the check.
	// Default: "0 6 * * *"
	ExpiryCheckSchedule string `yaml:"expiry_check_schedule"`
}

// MaxRequestSize returns the request ceiling in bytes.
func (c *ServerConfig) MaxRequestSize() int {
	return c.MaxRequestSizeMB * 1024 * 1024
}

// HostFor returns the virtual host owning hostname, or nil. Matching is an
// exact, case-preserving string comparison.
func (c *Config) HostFor(hostname string) *VirtualHostConfig {
	for i := range c.VirtualHosts {
		for _, h := range c.VirtualHosts[i].Hostnames {
			if h == hostname {
				return &c.VirtualHosts[i]
			}
		}
	}
	return nil
}

// StaticRoot returns the directory /static/ requests resolve under for vh.
func (c *Config) StaticRoot(vh *VirtualHostConfig) string {
	if c.Server.DevMode && vh.DevStaticDir != "" {
		return vh.DevStaticDir
	}
	return vh.StaticDir
}
