// Package cache holds brotli-compressed static assets in memory.
//
// The cache maps a resolved file path to its compressed bytes and the file's
// modification time at compression. Entries are revalidated lazily on every
// Lookup: a changed or deleted file is dropped and reloaded. There is no
// background sweep.
//
// # Eviction
//
// The running total of cached bytes is bounded by MaxSize (5 MiB). When a
// lookup misses and the total already exceeds the ceiling, the least
// recently touched entries are evicted until it no longer does. Eviction
// runs before the new entry is inserted, so one file larger than the
// ceiling is still admitted.
//
// # Concurrency
//
// Every Lookup takes the exclusive lock, including pure hits, because a hit
// updates the recency order and hit counter. This also guarantees that N
// concurrent first requests for the same cold path load and compress the
// file exactly once.
package cache
