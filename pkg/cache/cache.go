package cache

import (
	"container/list"
	"log/slog"
	"sync"
)

// MaxSize is the ceiling on cached compressed bytes.
const MaxSize = 5 * 1024 * 1024

// Name labels this cache in metrics.
const Name = "static"

// Observer receives cache events. metrics.CacheMetrics satisfies it.
type Observer interface {
	RecordHit(cacheName string)
	RecordMiss(cacheName string)
	RecordStale(cacheName string)
	RecordEviction(cacheName string)
	UpdateSize(cacheName string, entries int)
	UpdateBytes(cacheName string, bytes int)
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Entries   int
	Bytes     int
	Hits      uint64
	Misses    uint64
	Stale     uint64
	Evictions uint64
}

// Cache is a size-bounded store of compressed static files with
// least-recently-touched eviction.
type Cache struct {
	mu sync.RWMutex

	files map[string]*CachedFile

	// ordering holds keys oldest-touched first; elems indexes it.
	ordering *list.List
	elems    map[string]*list.Element

	size    int
	maxSize int

	loader   Loader
	observer Observer
	logger   *slog.Logger

	hits, misses, stale, evictions uint64
}

// Config configures a Cache. Zero fields take defaults.
type Config struct {
	// MaxSize is the byte ceiling on cached content.
	// Default: MaxSize
	MaxSize int

	// Loader reads and compresses files.
	// Default: DiskLoader
	Loader Loader

	// Observer receives hit, miss, stale and eviction events. Optional.
	Observer Observer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// New creates an empty cache. A nil cfg uses the defaults.
func New(cfg *Config) *Cache {
	if cfg == nil {
		cfg = &Config{}
	}
	c := &Cache{
		files:    make(map[string]*CachedFile),
		ordering: list.New(),
		elems:    make(map[string]*list.Element),
		maxSize:  cfg.MaxSize,
		loader:   cfg.Loader,
		observer: cfg.Observer,
		logger:   cfg.Logger,
	}
	if c.maxSize <= 0 {
		c.maxSize = MaxSize
	}
	if c.loader == nil {
		c.loader = DiskLoader{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "cache")
	return c
}

// Lookup returns the compressed bytes for path, loading and compressing the
// file on a miss and reloading it when the file changed or disappeared.
// A load failure is returned to the caller, which maps it to a 404.
func (c *Cache) Lookup(path string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.touch(path)

	if cf, ok := c.files[path]; ok {
		if !c.isStale(cf) {
			cf.Hits++
			c.hits++
			c.notify(func(o Observer) { o.RecordHit(Name) })
			return cf.Content, nil
		}
		c.stale++
		c.notify(func(o Observer) { o.RecordStale(Name) })
		c.logger.Debug("cached file is stale", "path", path)
		c.remove(path)
		return c.insert(path)
	}

	c.misses++
	c.notify(func(o Observer) { o.RecordMiss(Name) })
	c.evict()
	return c.insert(path)
}

// insert loads path and stores it. The key must already be in ordering.
func (c *Cache) insert(path string) ([]byte, error) {
	cf, err := c.loader.Load(path)
	if err != nil {
		c.forget(path)
		c.publish()
		return nil, err
	}
	c.files[path] = cf
	c.size += len(cf.Content)
	c.publish()
	return cf.Content, nil
}

// isStale reports whether the file behind cf changed or was deleted.
func (c *Cache) isStale(cf *CachedFile) bool {
	mod, err := c.loader.ModTime(cf.Path)
	if err != nil {
		return true
	}
	return !mod.Equal(cf.ModTime)
}

// touch moves path to the most-recent end of the ordering.
func (c *Cache) touch(path string) {
	if e, ok := c.elems[path]; ok {
		c.ordering.MoveToBack(e)
		return
	}
	c.elems[path] = c.ordering.PushBack(path)
}

// remove drops the entry for path but keeps its recency position.
func (c *Cache) remove(path string) {
	if cf, ok := c.files[path]; ok {
		c.size -= len(cf.Content)
		delete(c.files, path)
	}
}

// forget drops path from both the entries and the ordering.
func (c *Cache) forget(path string) {
	c.remove(path)
	if e, ok := c.elems[path]; ok {
		c.ordering.Remove(e)
		delete(c.elems, path)
	}
}

// evict removes oldest-touched entries while the total exceeds the ceiling.
func (c *Cache) evict() {
	for c.size > c.maxSize {
		front := c.ordering.Front()
		if front == nil {
			return
		}
		key := front.Value.(string)
		if _, ok := c.files[key]; !ok {
			// Only the key being inserted can lack an entry, and it is
			// always at the back.
			return
		}
		c.forget(key)
		c.evictions++
		c.logger.Debug("evicted cached file", "path", key, "cache_bytes", c.size)
		c.notify(func(o Observer) { o.RecordEviction(Name) })
	}
}

func (c *Cache) notify(fn func(Observer)) {
	if c.observer != nil {
		fn(c.observer)
	}
}

func (c *Cache) publish() {
	c.notify(func(o Observer) {
		o.UpdateSize(Name, len(c.files))
		o.UpdateBytes(Name, c.size)
	})
}

// Size returns the total cached bytes.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Len returns the number of cached files.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

// Keys returns cached paths, least recently touched first.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, c.ordering.Len())
	for e := c.ordering.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(string))
	}
	return keys
}

// Contains reports whether path has a cached entry.
func (c *Cache) Contains(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.files[path]
	return ok
}

// Entry returns a copy of the cached entry for path.
func (c *Cache) Entry(path string) (CachedFile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cf, ok := c.files[path]
	if !ok {
		return CachedFile{}, false
	}
	return *cf, true
}

// Stats returns counters and totals.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Entries:   len(c.files),
		Bytes:     c.size,
		Hits:      c.hits,
		Misses:    c.misses,
		Stale:     c.stale,
		Evictions: c.evictions,
	}
}
