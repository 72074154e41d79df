// Package config provides configuration management for the miarh gateway.
//
// This package handles loading, validating, and sharing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("miarh.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("miarh.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention MIARH_SECTION_FIELD.
// For example:
//
//   - MIARH_SERVER_HTTPS_PORT overrides server.https_port
//   - MIARH_SERVER_MAX_REQUEST_SIZE_MB overrides server.max_request_size_mb
//   - MIARH_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//   - MIARH_SECURITY_ADMIN_TOKEN adds an admin token named "env"
//
// # Sharing
//
// The loaded snapshot is wrapped in a Holder owned by the server and handed
// to connection tasks by reference. The snapshot is read-only after startup.
//
// # Example Configuration
//
//	server:
//	  ip: "0.0.0.0"
//	  https_port: 443
//	  http_port: 80
//	  acme_challenge_dir: "/var/www/acme"
//	  acme_challenge_url: "/.well-known/acme-challenge/"
//	  index_url: "/"
//	  max_request_size_mb: 10
//
//	virtual_hosts:
//	  - name: "shop"
//	    hostnames: ["shop.example.com", "www.shop.example.com"]
//	    socket_path: "/run/shop/app.sock"
//	    static_dir: "/srv/shop/static"
//	    dev_static_dir: "/home/dev/shop/static"
//	    index_path: "/srv/shop/static/index.html"
//
//	security:
//	  tls:
//	    cert_file: "/etc/miarh/fullchain.pem"
//	    key_file: "/etc/miarh/privkey.pem"
//	  admin:
//	    tokens:
//	      - name: "ops"
//	        token: "change-me"
//	    public_paths: ["/health/live", "/health/ready"]
package config
