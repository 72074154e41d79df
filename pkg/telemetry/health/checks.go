package health

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"time"
)

// SocketCheck reports whether a backend accepts connections on the Unix
// socket at path.
func SocketCheck(path string) CheckFunc {
	return func(ctx context.Context) error {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "unix", path)
		if err != nil {
			return fmt.Errorf("backend socket %s: %w", path, err)
		}
		return conn.Close()
	}
}

// DirCheck reports whether path is a readable directory.
func DirCheck(path string) CheckFunc {
	return func(ctx context.Context) error {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", path)
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		return f.Close()
	}
}

// CertificateCheck fails when the certificate returned by current expires
// within minValidity.
func CertificateCheck(current func() *tls.Certificate, minValidity time.Duration) CheckFunc {
	return func(ctx context.Context) error {
		cert := current()
		if cert == nil || cert.Leaf == nil {
			return fmt.Errorf("no certificate loaded")
		}
		remaining := time.Until(cert.Leaf.NotAfter)
		if remaining < minValidity {
			return fmt.Errorf("certificate expires in %s", remaining.Round(time.Hour))
		}
		return nil
	}
}
