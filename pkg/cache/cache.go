package cache

import "time"

// Cache is the interface for the short-lived response memoization layer. The
// real per-address freshness logic lives in the enrichment coordinator; this
// layer only absorbs identical request bursts, so implementations are allowed
// to be lossy.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns (value, true) if found, (nil, false) if not found.
	Get(key string) (interface{}, bool)

	// Set stores a value in the cache with a TTL.
	Set(key string, value interface{}, ttl time.Duration) bool

	// Delete removes a value from the cache.
	Delete(key string)

	// Clear removes all values from the cache.
	Clear()

	// Close closes the cache and releases resources.
	Close()
}
