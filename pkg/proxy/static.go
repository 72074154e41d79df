package proxy

import (
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"mercator-hq/miarh/pkg/cache"
	"mercator-hq/miarh/pkg/compress"
)

// StaticResponder builds responses for resolved static paths.
type StaticResponder struct {
	cache  *cache.Cache
	logger *slog.Logger
}

// NewStaticResponder creates a responder serving compressible files from c.
func NewStaticResponder(c *cache.Cache, logger *slog.Logger) *StaticResponder {
	if logger == nil {
		logger = slog.Default()
	}
	return &StaticResponder{
		cache:  c,
		logger: logger.With("component", "static"),
	}
}

// Respond returns the full 200 response for path. Compressible files are
// served brotli-encoded from the cache when the client accepts br; all
// others are read from disk as is. Any error means the caller sends 404.
func (s *StaticResponder) Respond(path, acceptEncoding string) ([]byte, error) {
	contentType := mime.TypeByExtension(filepath.Ext(path))

	if compress.IsCompressible(acceptEncoding, path) {
		body, err := s.cache.Lookup(path)
		if err != nil {
			return nil, err
		}
		return StaticResponse(body, contentType, true), nil
	}

	body, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return StaticResponse(body, contentType, false), nil
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cache.ErrNotFound, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", cache.ErrIsDirectory, path)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cache.ErrNotFound, err)
	}
	return body, nil
}
