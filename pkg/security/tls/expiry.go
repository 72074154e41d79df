package tls

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ExpiryScheduler periodically logs how long the current HTTPS certificate
// remains valid, warning inside ExpiryWarningWindow.
type ExpiryScheduler struct {
	reloader *CertificateReloader
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewExpiryScheduler creates a scheduler running on the standard cron
// expression schedule (e.g. "0 6 * * *" for daily at 6 AM).
func NewExpiryScheduler(reloader *CertificateReloader, schedule string, logger *slog.Logger) *ExpiryScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpiryScheduler{
		reloader: reloader,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "tls.expiry"),
	}
}

// Start schedules the check. An empty schedule disables it. The scheduler
// stops when ctx is cancelled.
func (s *ExpiryScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("expiry check schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.Check(time.Now()) }); err != nil {
		return fmt.Errorf("failed to schedule expiry check: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("certificate expiry scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Check logs the remaining validity of the current certificate as of now
// and returns the days until expiry. It returns -1 when no certificate is
// loaded.
func (s *ExpiryScheduler) Check(now time.Time) int {
	cert := s.reloader.GetCertificate()
	if cert == nil {
		s.logger.Error("no certificate loaded")
		return -1
	}

	leaf, err := Leaf(cert)
	if err != nil {
		s.logger.Error("failed to inspect certificate", "error", err)
		return -1
	}

	days, warning := CheckCertificateExpiration(leaf, now)
	if warning != "" {
		s.logger.Warn(warning,
			"subject", leaf.Subject.CommonName,
			"expires_at", leaf.NotAfter.Format(time.RFC3339),
		)
	} else {
		s.logger.Debug("certificate expiry checked", "expires_in_days", days)
	}
	return days
}

// Stop stops the scheduler and waits for a running check to complete.
func (s *ExpiryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("certificate expiry scheduler stopped")
	}
}

// NextRun returns the next scheduled check, or nil when not running.
func (s *ExpiryScheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if !s.running || len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
