package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"
)

// ExpiryWarningWindow is how close to expiry a certificate must be before
// warnings are logged.
const ExpiryWarningWindow = 30 * 24 * time.Hour

// ValidateCertificate checks that a certificate is parseable and within its
// validity period.
func ValidateCertificate(cert *tls.Certificate) error {
	if cert == nil {
		return fmt.Errorf("certificate is nil")
	}

	leaf, err := Leaf(cert)
	if err != nil {
		return err
	}

	return ValidateX509Certificate(leaf, time.Now())
}

// Leaf returns the parsed leaf of cert, parsing and caching it when the
// chain was loaded without one.
func Leaf(cert *tls.Certificate) (*x509.Certificate, error) {
	if cert.Leaf != nil {
		return cert.Leaf, nil
	}
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("certificate chain is empty")
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	cert.Leaf = leaf
	return leaf, nil
}

// ValidateX509Certificate validates an x509 certificate against now.
func ValidateX509Certificate(cert *x509.Certificate, now time.Time) error {
	if now.Before(cert.NotBefore) {
		return fmt.Errorf("certificate is not yet valid (valid from %s)", cert.NotBefore.Format(time.RFC3339))
	}

	if now.After(cert.NotAfter) {
		return fmt.Errorf("certificate expired on %s", cert.NotAfter.Format(time.RFC3339))
	}

	return nil
}

// CheckCertificateExpiration returns the number of days until cert expires
// and a warning when that falls inside ExpiryWarningWindow.
func CheckCertificateExpiration(cert *x509.Certificate, now time.Time) (daysUntilExpiry int, warning string) {
	remaining := cert.NotAfter.Sub(now)
	daysUntilExpiry = int(remaining.Hours() / 24)

	if remaining < ExpiryWarningWindow {
		warning = fmt.Sprintf("certificate expires in %d days (on %s)",
			daysUntilExpiry, cert.NotAfter.Format("2006-01-02"))
	}

	return daysUntilExpiry, warning
}

// CertificateInfo is a human-readable summary of a certificate.
type CertificateInfo struct {
	Subject   string
	Issuer    string
	NotBefore time.Time
	NotAfter  time.Time
	DNSNames  []string
}

// ExtractCertificateInfo extracts information from an x509 certificate.
func ExtractCertificateInfo(cert *x509.Certificate) *CertificateInfo {
	return &CertificateInfo{
		Subject:   cert.Subject.String(),
		Issuer:    cert.Issuer.String(),
		NotBefore: cert.NotBefore,
		NotAfter:  cert.NotAfter,
		DNSNames:  cert.DNSNames,
	}
}

// Covers reports which of hostnames the certificate is not valid for.
func Covers(cert *x509.Certificate, hostnames []string) (missing []string) {
	for _, h := range hostnames {
		if err := cert.VerifyHostname(h); err != nil {
			missing = append(missing, h)
		}
	}
	return missing
}
