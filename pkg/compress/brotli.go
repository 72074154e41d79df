// Package compress is the one-shot brotli codec used for static assets.
package compress

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
)

const (
	// Quality is the brotli quality level used for every asset.
	Quality = 11

	// WindowBits is the brotli LZ77 window size (log2).
	WindowBits = 22
)

// compressible lists the extensions served brotli-encoded.
var compressible = map[string]bool{
	"html": true,
	"css":  true,
	"js":   true,
}

// Compress returns b encoded as a brotli stream. A writer error is logged
// and whatever was produced up to that point is returned.
func Compress(b []byte) []byte {
	var buf bytes.Buffer
	w := brotli.NewWriterOptions(&buf, brotli.WriterOptions{
		Quality: Quality,
		LGWin:   WindowBits,
	})
	if _, err := w.Write(b); err != nil {
		slog.Error("brotli compress failed", "component", "compress", "error", err)
	}
	if err := w.Close(); err != nil {
		slog.Error("brotli flush failed", "component", "compress", "error", err)
	}
	return buf.Bytes()
}

// Decompress decodes a brotli stream.
func Decompress(b []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(b)))
}

// AcceptsBrotli reports whether an accept-encoding header value admits br.
func AcceptsBrotli(acceptEncoding string) bool {
	return strings.Contains(acceptEncoding, "br")
}

// IsCompressible reports whether a static response for path should be
// served from the brotli cache given the client's accept-encoding header.
func IsCompressible(acceptEncoding, path string) bool {
	if !AcceptsBrotli(acceptEncoding) {
		return false
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false
	}
	return compressible[strings.ToLower(ext)]
}
