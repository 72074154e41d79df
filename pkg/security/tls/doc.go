/*
Package tls provides the HTTPS listener identity for miarh.

# Server Configuration

ServerConfig builds a crypto/tls configuration from the security.tls
section. The certificate is served through a CertificateReloader:

	reloader := tls.NewCertificateReloader(cfg.CertFile, cfg.KeyFile, logger)
	if err := reloader.Load(); err != nil {
		return err
	}
	tlsConfig, err := tls.ServerConfig(cfg, reloader)

# Certificate Reload

Watch follows the certificate and key files with fsnotify and swaps the
identity after ACME renewals. A failed reload keeps the previous identity:

	go reloader.Watch(ctx)

# Expiry Checks

ExpiryScheduler logs remaining validity on a cron schedule:

	scheduler := tls.NewExpiryScheduler(reloader, "0 6 * * *", logger)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
*/
package tls
