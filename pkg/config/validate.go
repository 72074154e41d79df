package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.https_port").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateVirtualHosts(cfg.VirtualHosts)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateSecurity(&cfg.Security)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates the listener and layout settings.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if ip := net.ParseIP(cfg.IP); ip == nil || ip.To4() == nil {
		errs = append(errs, FieldError{
			Field:   "server.ip",
			Message: fmt.Sprintf("invalid IPv4 address %q", cfg.IP),
		})
	}

	for field, port := range map[string]int{"server.https_port": cfg.HTTPSPort, "server.http_port": cfg.HTTPPort} {
		if port < 0 || port > 65535 {
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("port %d out of range", port),
			})
		}
	}
	if cfg.HTTPSPort != 0 && cfg.HTTPSPort == cfg.HTTPPort {
		errs = append(errs, FieldError{
			Field:   "server.http_port",
			Message: "HTTP and HTTPS listeners cannot share a port",
		})
	}

	if !strings.HasPrefix(cfg.ACMEChallengeURL, "/") {
		errs = append(errs, FieldError{
			Field:   "server.acme_challenge_url",
			Message: "URL prefix must start with '/'",
		})
	}
	if !strings.HasPrefix(cfg.IndexURL, "/") {
		errs = append(errs, FieldError{
			Field:   "server.index_url",
			Message: "index URL must start with '/'",
		})
	}
	if cfg.ACMEChallengeDir == "" {
		errs = append(errs, FieldError{
			Field:   "server.acme_challenge_dir",
			Message: "ACME challenge directory is required",
		})
	}

	if cfg.MaxRequestSizeMB <= 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_request_size_mb",
			Message: "max request size must be positive",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be non-negative",
		})
	}

	return errs
}

// validateVirtualHosts validates the virtual host table.
func validateVirtualHosts(hosts []VirtualHostConfig) []FieldError {
	var errs []FieldError

	if len(hosts) == 0 {
		errs = append(errs, FieldError{
			Field:   "virtual_hosts",
			Message: "at least one virtual host is required",
		})
		return errs
	}

	seenNames := make(map[string]bool)
	seenHosts := make(map[string]string)
	for i, vh := range hosts {
		prefix := fmt.Sprintf("virtual_hosts[%d]", i)

		if vh.Name == "" {
			errs = append(errs, FieldError{Field: prefix + ".name", Message: "name is required"})
		} else if seenNames[vh.Name] {
			errs = append(errs, FieldError{Field: prefix + ".name", Message: fmt.Sprintf("duplicate virtual host %q", vh.Name)})
		}
		seenNames[vh.Name] = true

		if len(vh.Hostnames) == 0 {
			errs = append(errs, FieldError{Field: prefix + ".hostnames", Message: "at least one hostname is required"})
		}
		for _, h := range vh.Hostnames {
			if owner, ok := seenHosts[h]; ok {
				errs = append(errs, FieldError{
					Field:   prefix + ".hostnames",
					Message: fmt.Sprintf("hostname %q already bound to %q", h, owner),
				})
				continue
			}
			seenHosts[h] = vh.Name
		}

		if vh.SocketPath == "" {
			errs = append(errs, FieldError{Field: prefix + ".socket_path", Message: "backend socket path is required"})
		}
		if vh.StaticDir == "" {
			errs = append(errs, FieldError{Field: prefix + ".static_dir", Message: "static directory is required"})
		} else if !filepath.IsAbs(vh.StaticDir) {
			errs = append(errs, FieldError{Field: prefix + ".static_dir", Message: "static directory must be absolute"})
		}
		if vh.DevStaticDir != "" && !filepath.IsAbs(vh.DevStaticDir) {
			errs = append(errs, FieldError{Field: prefix + ".dev_static_dir", Message: "dev static directory must be absolute"})
		}
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json, text, or console)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddress != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.ListenAddress); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: fmt.Sprintf("invalid address: %v", err),
			})
		}
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/'",
		})
	}

	if cfg.Health.CheckTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.check_timeout",
			Message: "check timeout must be non-negative",
		})
	}

	return errs
}

// validateSecurity validates security configuration.
func validateSecurity(cfg *SecurityConfig) []FieldError {
	var errs []FieldError

	if cfg.TLS.CertFile == "" {
		errs = append(errs, FieldError{
			Field:   "security.tls.cert_file",
			Message: "TLS certificate file is required",
		})
	}
	if cfg.TLS.KeyFile == "" {
		errs = append(errs, FieldError{
			Field:   "security.tls.key_file",
			Message: "TLS key file is required",
		})
	}

	seen := make(map[string]bool)
	for i, tok := range cfg.Admin.Tokens {
		prefix := fmt.Sprintf("security.admin.tokens[%d]", i)
		if tok.Name == "" {
			errs = append(errs, FieldError{Field: prefix + ".name", Message: "token name is required"})
		} else if seen[tok.Name] {
			errs = append(errs, FieldError{Field: prefix + ".name", Message: fmt.Sprintf("duplicate token name %q", tok.Name)})
		}
		seen[tok.Name] = true
		if tok.Token == "" {
			errs = append(errs, FieldError{Field: prefix + ".token", Message: "token value is required"})
		}
	}
	for i, p := range cfg.Admin.PublicPaths {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("security.admin.public_paths[%d]", i),
				Message: "path must start with '/'",
			})
		}
	}

	switch cfg.TLS.MinVersion {
	case "1.2", "1.3":
	default:
		errs = append(errs, FieldError{
			Field:   "security.tls.min_version",
			Message: fmt.Sprintf("unsupported TLS version %q (must be 1.2 or 1.3)", cfg.TLS.MinVersion),
		})
	}

	return errs
}
