package cache

import (
	"bytes"
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache is an in-process Cache bounded by a TTL and an optional
// maximum entry count. Expired entries are dropped on access and by the
// periodic sweep of the underlying LRU.
type MemoryCache struct {
	lru *expirable.LRU[string, Entry]
	now func() time.Time
}

// NewMemoryCache creates a cache holding at most maxEntries entries for ttl.
// A maxEntries of 0 means unbounded.
func NewMemoryCache(maxEntries int, ttl time.Duration, onEvict func(key string)) *MemoryCache {
	var evict expirable.EvictCallback[string, Entry]

	if onEvict != nil {
		evict = func(key string, _ Entry) { onEvict(key) }
	}

	return &MemoryCache{
		lru: expirable.NewLRU(maxEntries, evict, ttl),
		now: time.Now,
	}
}

// Get retrieves an unexpired entry. Reads do not refresh recency, so the
// entry evicted at capacity is always the one that expires first.
func (c *MemoryCache) Get(_ context.Context, key string) (Entry, error) {
	entry, ok := c.lru.Peek(key)

	if !ok {
		return Entry{}, ErrCacheMiss
	}

	if entry.Expired(c.now()) {
		c.lru.Remove(key)
		return Entry{}, ErrCacheMiss
	}

	entry.Body = bytes.Clone(entry.Body)

	return entry, nil
}

// Set stores a private copy of the entry
func (c *MemoryCache) Set(_ context.Context, key string, entry Entry) error {
	entry.Body = bytes.Clone(entry.Body)
	c.lru.Add(key, entry)

	return nil
}

// Len returns the number of entries, including expired ones not yet swept
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// Close drops all entries
func (c *MemoryCache) Close() error {
	c.lru.Purge()
	return nil
}
