package config

import (
	"fmt"
	"sync"
)

// Holder owns the configuration snapshot shared by every connection task.
// Readers take the read lock on each access; the snapshot is only replaced
// at startup or from tests, never while serving.
type Holder struct {
	mu  sync.RWMutex
	cfg *Config
}

// NewHolder returns a Holder wrapping cfg.
func NewHolder(cfg *Config) *Holder {
	return &Holder{cfg: cfg}
}

// Load reads configuration from path with environment overrides and returns
// a Holder for it.
func Load(path string) (*Holder, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, err
	}
	return NewHolder(cfg), nil
}

// Get returns the current configuration snapshot. It returns nil if the
// Holder was created empty. Callers must treat the result as read-only.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// Set replaces the snapshot.
func (h *Holder) Set(cfg *Config) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cfg = cfg
}

// MustGet returns the snapshot and panics if none is set. It is meant for
// code paths that run strictly after a successful Load.
func (h *Holder) MustGet() *Config {
	cfg := h.Get()
	if cfg == nil {
		panic(fmt.Sprintf("configuration not initialized: %T has no snapshot", h))
	}
	return cfg
}
