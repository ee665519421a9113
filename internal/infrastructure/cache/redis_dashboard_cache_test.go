package cache

import (
	"context"
	"testing"
	"time"

	"github.com/invoicedesk/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableRedis points at a port nothing listens on
func unreachableRedis() config.RedisConfig {
	return config.RedisConfig{Host: "127.0.0.1", Port: 1}
}

func newUnreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisDashboardCache_KeyPrefix(t *testing.T) {
	c := NewRedisDashboardCacheWithClient(newUnreachableClient(t))
	assert.Equal(t, "invoice:dashboard:2026", c.cacheKey("2026"))

	c = NewRedisDashboardCacheWithClient(newUnreachableClient(t), WithKeyPrefix("test:"))
	assert.Equal(t, "test:all", c.cacheKey("all"))
}

func TestRedisDashboardCache_ErrorsWhenUnreachable(t *testing.T) {
	c := NewRedisDashboardCacheWithClient(newUnreachableClient(t))
	ctx := context.Background()

	_, err := c.Get(ctx, "all")
	assert.Error(t, err)

	err = c.Set(ctx, "all", sampleDashboard("1"), time.Minute)
	assert.Error(t, err)

	err = c.InvalidateAll(ctx)
	assert.Error(t, err)
}

func TestRedisDashboardCache_SetNilIsNoop(t *testing.T) {
	c := NewRedisDashboardCacheWithClient(newUnreachableClient(t))
	assert.NoError(t, c.Set(context.Background(), "all", nil, time.Minute))
}

func TestRedisDashboardCache_SharedClientNotClosed(t *testing.T) {
	client := newUnreachableClient(t)
	c := NewRedisDashboardCacheWithClient(client)
	require.NoError(t, c.Close())
	// The shared client is still usable by its owner.
	assert.NotNil(t, client.Options())
}

func TestNewRedisDashboardCache_ConnectFailure(t *testing.T) {
	_, err := NewRedisDashboardCache(unreachableRedis())
	assert.Error(t, err)
}

func TestDashboardCacheFactory(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		f := NewDashboardCacheFactory(config.ReportConfig{CacheBackend: config.CacheBackendMemory}, unreachableRedis())
		c, err := f.CreateCache()
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &InMemoryDashboardCache{}, c)
	})

	t.Run("redis unreachable falls back to memory", func(t *testing.T) {
		f := NewDashboardCacheFactory(config.ReportConfig{CacheBackend: config.CacheBackendRedis}, unreachableRedis())
		c, err := f.CreateCache()
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &InMemoryDashboardCache{}, c)
	})

	t.Run("redis unreachable without fallback", func(t *testing.T) {
		f := NewDashboardCacheFactory(
			config.ReportConfig{CacheBackend: config.CacheBackendRedis},
			unreachableRedis(),
			WithInMemoryFallback(false),
		)
		_, err := f.CreateCache()
		assert.Error(t, err)
	})
}
