package config

// validConfig returns a minimal configuration that passes validation.
func validConfig() *Config {
	cfg := &Config{
		VirtualHosts: []VirtualHostConfig{
			{
				Name:       "shop",
				Hostnames:  []string{"shop.example.com", "www.shop.example.com"},
				SocketPath: "/run/shop.sock",
				StaticDir:  "/srv/shop/static",
				IndexPath:  "/srv/shop/static/index.html",
			},
		},
		Security: SecurityConfig{
			TLS: TLSConfig{CertFile: "/etc/miarh/cert.pem", KeyFile: "/etc/miarh/key.pem"},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
