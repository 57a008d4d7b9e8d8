package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nDmitry/stackfeed/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(10, time.Minute, nil)
	defer c.Close()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	body := []byte("<rss/>")
	require.NoError(t, c.Set(ctx, "k", cache.Entry{Body: body, ContentType: "application/rss+xml", ExpiresAt: time.Now().Add(time.Minute)}))

	// Mutating the caller's slice must not leak into the cache
	body[0] = 'X'

	entry, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "<rss/>", string(entry.Body))
	assert.Equal(t, "application/rss+xml", entry.ContentType)

	// Nor may mutating a returned entry
	entry.Body[0] = 'Y'

	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "<rss/>", string(again.Body))
}

func TestMemoryCache_ExpireOnAccess(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(10, time.Minute, nil)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", cache.Entry{Body: []byte("x"), ExpiresAt: time.Now().Add(-time.Second)}))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_TTLSweep(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(10, 30*time.Millisecond, nil)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", cache.Entry{Body: []byte("x"), ExpiresAt: time.Now().Add(time.Hour)}))

	assert.Eventually(t, func() bool {
		_, err := c.Get(ctx, "k")
		return err == cache.ErrCacheMiss
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryCache_EvictsOldestExpiringFirst(t *testing.T) {
	ctx := context.Background()

	var evicted []string

	c := cache.NewMemoryCache(3, time.Minute, func(key string) { evicted = append(evicted, key) })
	defer c.Close()

	for i := range 3 {
		key := fmt.Sprintf("k%d", i)
		require.NoError(t, c.Set(ctx, key, cache.Entry{Body: []byte(key), ExpiresAt: time.Now().Add(time.Minute)}))
	}

	// Reading k0 must not save it from eviction
	_, err := c.Get(ctx, "k0")
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "k3", cache.Entry{Body: []byte("k3"), ExpiresAt: time.Now().Add(time.Minute)}))

	assert.Equal(t, []string{"k0"}, evicted)
	assert.Equal(t, 3, c.Len())

	_, err = c.Get(ctx, "k0")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}
