// Package cache stores fetched source payloads and rendered artifacts.
//
// Two backends are provided: [FileCache] for the CLI (entries under the user
// cache directory) and [RedisCache] for servers that share a cache across
// instances. [NullCache] disables caching.
//
// Keys are produced by a [Keyer] so that the storage layout does not leak
// into the callers:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.SourceKey("https://example.com/world_countries.json")
//	data, ok, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per entry kind.
const (
	TTLSource   = 24 * time.Hour
	TTLArtifact = time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the stored value. A miss is reported as ok == false with a
	// nil error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A ttl of zero keeps the entry until deleted.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is a Cache that can drop all of its own entries.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}
