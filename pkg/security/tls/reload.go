package tls

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is how long the reloader waits after the last
// file event before loading the new identity. ACME clients write the chain
// and key separately.
const DefaultDebounceInterval = 200 * time.Millisecond

// CertificateReloader holds the HTTPS identity and replaces it when the
// certificate or key file changes on disk.
type CertificateReloader struct {
	certFile string
	keyFile  string
	debounce time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	cert     *tls.Certificate
	loadedAt time.Time
	onReload []func(*tls.Certificate)
}

// NewCertificateReloader creates a reloader for the given PEM files. No
// files are read until Load is called.
func NewCertificateReloader(certFile, keyFile string, logger *slog.Logger) *CertificateReloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &CertificateReloader{
		certFile: certFile,
		keyFile:  keyFile,
		debounce: DefaultDebounceInterval,
		logger:   logger.With("component", "tls.reloader"),
	}
}

// OnReload registers fn to be called with each newly loaded certificate.
func (r *CertificateReloader) OnReload(fn func(*tls.Certificate)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onReload = append(r.onReload, fn)
}

// Load reads and validates the certificate and key. On failure the
// previously loaded identity stays in place.
func (r *CertificateReloader) Load() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificate %s: %w", r.certFile, err)
	}

	if err := ValidateCertificate(&cert); err != nil {
		return fmt.Errorf("certificate validation failed: %w", err)
	}

	r.mu.Lock()
	r.cert = &cert
	r.loadedAt = time.Now()
	hooks := append([]func(*tls.Certificate){}, r.onReload...)
	r.mu.Unlock()

	r.logCertificateInfo(&cert)
	for _, fn := range hooks {
		fn(&cert)
	}
	return nil
}

// Watch reloads the identity whenever the certificate or key file is
// written, created or renamed. The parent directories are watched so that
// atomic replacements are seen. Watch blocks until ctx is cancelled.
func (r *CertificateReloader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dirs := map[string]bool{
		filepath.Dir(r.certFile): true,
		filepath.Dir(r.keyFile):  true,
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %q: %w", dir, err)
		}
	}

	r.logger.Info("certificate watcher started",
		"cert_file", r.certFile,
		"key_file", r.keyFile,
	)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("certificate watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !r.relevant(event) {
				continue
			}
			r.logger.Debug("certificate file event",
				"path", event.Name,
				"op", event.Op.String(),
			)
			if timer == nil {
				timer = time.NewTimer(r.debounce)
			} else {
				timer.Reset(r.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := r.Load(); err != nil {
				r.logger.Error("failed to reload certificate", "error", err)
				continue
			}
			r.logger.Info("certificate reloaded", "cert_file", r.certFile)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			r.logger.Error("certificate watcher error", "error", err)
		}
	}
}

// relevant reports whether event touches the certificate or key file.
func (r *CertificateReloader) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == filepath.Clean(r.certFile) || name == filepath.Clean(r.keyFile)
}

// GetCertificate returns the current certificate, or nil before Load.
func (r *CertificateReloader) GetCertificate() *tls.Certificate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert
}

// LoadedAt returns when the current certificate was loaded.
func (r *CertificateReloader) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}

// GetCertificateFunc returns a function compatible with tls.Config.GetCertificate.
func (r *CertificateReloader) GetCertificateFunc() func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
		cert := r.GetCertificate()
		if cert == nil {
			return nil, fmt.Errorf("no certificate loaded")
		}
		return cert, nil
	}
}

// logCertificateInfo logs the subject and expiry of cert.
func (r *CertificateReloader) logCertificateInfo(cert *tls.Certificate) {
	leaf, err := Leaf(cert)
	if err != nil {
		return
	}

	daysUntilExpiry, warning := CheckCertificateExpiration(leaf, time.Now())
	if warning != "" {
		r.logger.Warn("certificate expiring soon",
			"subject", leaf.Subject.CommonName,
			"expires_in_days", daysUntilExpiry,
			"expires_at", leaf.NotAfter.Format(time.RFC3339),
		)
		return
	}
	r.logger.Info("certificate loaded",
		"subject", leaf.Subject.CommonName,
		"issuer", leaf.Issuer.CommonName,
		"expires_in_days", daysUntilExpiry,
		"expires_at", leaf.NotAfter.Format(time.RFC3339),
	)
}
