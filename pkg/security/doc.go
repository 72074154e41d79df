/*
Package security groups the gateway's transport security and admin access
control.

# TLS

Subpackage tls loads the HTTPS identity, reloads it when the certificate or
key file changes and logs expiry warnings on a cron schedule:

	reloader := tls.NewCertificateReloader(cfg.CertFile, cfg.KeyFile, logger)
	if err := reloader.Load(); err != nil {
		log.Fatal(err)
	}

	tlsConfig, err := tls.ServerConfig(cfg, reloader)
	if err != nil {
		log.Fatal(err)
	}

	go reloader.Watch(ctx)

# Admin Authentication

Subpackage auth guards the admin listener with bearer tokens:

	validator := auth.FromConfig(cfg.Security.Admin)
	mw := auth.NewMiddleware(validator, cfg.Security.Admin.PublicPaths, logger)

	http.Handle("/", mw.Handle(adminMux))
*/
package security
