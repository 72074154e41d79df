package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"mercator-hq/miarh/pkg/compress"
)

var (
	// ErrNotFound wraps every failure to load a static file.
	ErrNotFound = errors.New("static file not found")

	// ErrIsDirectory is returned when a static path names a directory.
	ErrIsDirectory = errors.New("path is a directory")
)

// CachedFile is one compressed static asset.
type CachedFile struct {
	// Path is the absolute file path and the cache key.
	Path string

	// Content is the brotli-compressed file body.
	Content []byte

	// ModTime is the file modification time observed at load.
	ModTime time.Time

	// Hits counts lookups served by this entry, including the one that
	// created it.
	Hits uint64
}

// Loader reads and compresses files for the cache.
type Loader interface {
	// Load reads path, compresses it and returns a fresh entry.
	Load(path string) (*CachedFile, error)

	// ModTime returns the live modification time of path.
	ModTime(path string) (time.Time, error)
}

// DiskLoader loads files from the local filesystem and compresses them
// with brotli.
type DiskLoader struct{}

// Load implements Loader.
func (DiskLoader) Load(path string) (*CachedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrNotFound, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrNotFound, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, ErrIsDirectory)
	}

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrNotFound, path, err)
	}

	return &CachedFile{
		Path:    path,
		Content: compress.Compress(raw),
		ModTime: info.ModTime(),
		Hits:    1,
	}, nil
}

// ModTime implements Loader.
func (DiskLoader) ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
