package request

import (
	"path/filepath"
	"strings"

	"mercator-hq/miarh/pkg/config"
)

// StaticPrefix is the URL prefix mapped onto a virtual host's static root.
const StaticPrefix = "/static/"

// Classify runs static resolution, multipart detection and query parsing.
func (r *ParsedRequest) Classify(cfg *config.Config) {
	r.checkStatic(cfg)
	r.checkMultipart()
	r.parseQuery()
}

// IsACME reports whether the request targets the ACME challenge prefix.
func (r *ParsedRequest) IsACME(cfg *config.Config) bool {
	return strings.HasPrefix(r.Path(), cfg.Server.ACMEChallengeURL)
}

func (r *ParsedRequest) checkStatic(cfg *config.Config) {
	r.IsStatic, r.IsStaticValid = false, false
	if !r.Has(KeyHost) || !r.Has(KeyPath) {
		r.removeTrailingSlash()
		return
	}

	path, _, _ := strings.Cut(r.Path(), "?")
	srv := &cfg.Server
	switch {
	case strings.HasPrefix(path, StaticPrefix),
		path == srv.IndexURL,
		strings.HasPrefix(path, srv.ACMEChallengeURL):
		r.IsStatic = true
	default:
		r.removeTrailingSlash()
		return
	}

	if resolved, ok := resolveStatic(cfg, r.Host(), path); ok {
		r.IsStaticValid = true
		r.headers[KeyStaticPath] = resolved
		return
	}
	r.removeTrailingSlash()
}

// resolveStatic maps path onto the filesystem for the virtual host owning
// host. The result must stay inside the configured root.
func resolveStatic(cfg *config.Config, host, path string) (string, bool) {
	vh := cfg.HostFor(host)
	if vh == nil {
		return "", false
	}
	srv := &cfg.Server

	switch {
	case strings.HasPrefix(path, StaticPrefix):
		root := cfg.StaticRoot(vh)
		return within(root, strings.TrimPrefix(path, StaticPrefix))
	case path == srv.IndexURL:
		if vh.IndexPath == "" {
			return "", false
		}
		return vh.IndexPath, true
	case strings.HasPrefix(path, srv.ACMEChallengeURL):
		return within(srv.ACMEChallengeDir, strings.TrimPrefix(path, srv.ACMEChallengeURL))
	}
	return "", false
}

// within joins rel onto root and rejects results outside root.
func within(root, rel string) (string, bool) {
	if root == "" {
		return "", false
	}
	root = filepath.Clean(root)
	full := filepath.Join(root, filepath.FromSlash(rel))
	if full == root || root == string(filepath.Separator) {
		return full, true
	}
	if !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

func (r *ParsedRequest) removeTrailingSlash() {
	path, ok := r.headers[KeyPath]
	if !ok {
		return
	}
	// A bare "/" becomes the empty path.
	r.headers[KeyPath] = strings.TrimSuffix(path, "/")
}

func (r *ParsedRequest) checkMultipart() {
	r.IsMultipart = strings.Contains(r.headers[KeyContentType], "multipart/form-data")
}

func (r *ParsedRequest) parseQuery() {
	_, q, found := strings.Cut(r.Path(), "?")
	if !found {
		return
	}
	for _, kv := range strings.Split(q, "&") {
		k, v, ok := strings.Cut(kv, "=")
		// Only the first '=' separates; anything after a second one is
		// dropped.
		v, _, _ = strings.Cut(v, "=")
		if !ok || k == "" || v == "" {
			continue
		}
		r.Query[k] = v
	}
}
