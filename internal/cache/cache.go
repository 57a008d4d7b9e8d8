package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is not found in the cache or has expired
var ErrCacheMiss = errors.New("cache miss")

// Entry is a cached upstream response. Entries are never mutated after Set,
// a refetch replaces the whole entry.
type Entry struct {
	Body        []byte
	ContentType string
	ExpiresAt   time.Time
}

// Expired reports whether the entry is no longer valid at now
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Cache defines the interface for caching upstream responses
type Cache interface {
	// Get retrieves an unexpired entry from the cache
	Get(ctx context.Context, key string) (Entry, error)

	// Set stores an entry, replacing any previous one under the same key
	Set(ctx context.Context, key string, entry Entry) error

	// Len returns the number of entries currently held
	Len() int

	// Close releases any resources used by the cache
	Close() error
}
