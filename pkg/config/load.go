package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration and applies defaults without validating.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention MIARH_SECTION_FIELD (e.g., MIARH_SERVER_HTTPS_PORT).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format MIARH_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("MIARH_SERVER_IP"); val != "" {
		cfg.Server.IP = val
	}
	if val := os.Getenv("MIARH_SERVER_HTTPS_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Server.HTTPSPort = i
		}
	}
	if val := os.Getenv("MIARH_SERVER_HTTP_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Server.HTTPPort = i
		}
	}
	if val := os.Getenv("MIARH_SERVER_ACME_CHALLENGE_DIR"); val != "" {
		cfg.Server.ACMEChallengeDir = val
	}
	if val := os.Getenv("MIARH_SERVER_TMP_DIR"); val != "" {
		cfg.Server.TmpDir = val
	}
	if val := os.Getenv("MIARH_SERVER_MAX_REQUEST_SIZE_MB"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Server.MaxRequestSizeMB = i
		}
	}
	if val := os.Getenv("MIARH_SERVER_PID_FILE"); val != "" {
		cfg.Server.PidFile = val
	}
	if val := os.Getenv("MIARH_SERVER_DEV_MODE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Server.DevMode = b
		}
	}
	if val := os.Getenv("MIARH_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	// Telemetry overrides
	if val := os.Getenv("MIARH_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("MIARH_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("MIARH_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("MIARH_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}

	// Security overrides
	if val := os.Getenv("MIARH_SECURITY_TLS_CERT_FILE"); val != "" {
		cfg.Security.TLS.CertFile = val
	}
	if val := os.Getenv("MIARH_SECURITY_TLS_KEY_FILE"); val != "" {
		cfg.Security.TLS.KeyFile = val
	}
	if val := os.Getenv("MIARH_SECURITY_ADMIN_TOKEN"); val != "" {
		cfg.Security.Admin.Tokens = append(cfg.Security.Admin.Tokens, AdminTokenConfig{
			Name:  "env",
			Token: val,
		})
	}
	if val := os.Getenv("MIARH_SECURITY_TLS_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Security.TLS.Watch = b
		}
	}
}
