package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunatria/starlight/internal/config"
)

func newTestMemoryCache(t *testing.T) Cache {
	t.Helper()

	c, err := New(&config.CacheConfig{Type: config.CacheTypeMemory}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestMemoryCacheGetSet(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "key", "value", 0))

	value, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "value", value)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", "value", 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "value", 0))
	require.NoError(t, c.Delete(ctx, "key"))

	_, err := c.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNewUnknownCacheType(t *testing.T) {
	_, err := New(&config.CacheConfig{Type: "memcached"}, nil)
	assert.Error(t, err)

	_, err = New(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
