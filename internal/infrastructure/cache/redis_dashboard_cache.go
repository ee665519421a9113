package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	appreport "github.com/invoicedesk/backend/internal/application/report"
	"github.com/invoicedesk/backend/internal/domain/report"
	"github.com/invoicedesk/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultKeyPrefix     = "invoice:dashboard:"
	defaultScanBatchSize = 100
	connectTimeout       = 5 * time.Second
)

// RedisDashboardCache implements DashboardCache using Redis
type RedisDashboardCache struct {
	client     *redis.Client
	ownsClient bool
	keyPrefix  string
	logger     *zap.Logger
}

// RedisDashboardCacheOption is a functional option for configuring the cache
type RedisDashboardCacheOption func(*RedisDashboardCache)

// WithKeyPrefix sets the prefix of every key written by the cache
func WithKeyPrefix(prefix string) RedisDashboardCacheOption {
	return func(c *RedisDashboardCache) {
		if prefix != "" {
			c.keyPrefix = prefix
		}
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisDashboardCacheOption {
	return func(c *RedisDashboardCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewRedisDashboardCache connects to Redis and creates a cache owning the client
func NewRedisDashboardCache(cfg config.RedisConfig, opts ...RedisDashboardCacheOption) (*RedisDashboardCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := NewRedisDashboardCacheWithClient(client, opts...)
	c.ownsClient = true
	return c, nil
}

// NewRedisDashboardCacheWithClient creates a cache on a shared client.
// The caller keeps ownership of the client.
func NewRedisDashboardCacheWithClient(client *redis.Client, opts ...RedisDashboardCacheOption) *RedisDashboardCache {
	c := &RedisDashboardCache{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisDashboardCache) cacheKey(key string) string {
	return c.keyPrefix + key
}

// Get retrieves a dashboard from cache, returning nil on a miss
func (c *RedisDashboardCache) Get(ctx context.Context, key string) (*report.DashboardData, error) {
	cacheKey := c.cacheKey(key)

	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("Cache miss for dashboard", zap.String("key", key))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard from cache: %w", err)
	}

	var dashboard report.DashboardData
	if err := json.Unmarshal(data, &dashboard); err != nil {
		c.logger.Error("Failed to unmarshal cached dashboard",
			zap.String("key", key),
			zap.Error(err))
		_ = c.client.Del(ctx, cacheKey)
		return nil, fmt.Errorf("failed to unmarshal dashboard: %w", err)
	}

	c.logger.Debug("Cache hit for dashboard", zap.String("key", key))
	return &dashboard, nil
}

// Set stores a dashboard in cache
func (c *RedisDashboardCache) Set(ctx context.Context, key string, dashboard *report.DashboardData, ttl time.Duration) error {
	if dashboard == nil {
		return nil
	}

	data, err := json.Marshal(dashboard)
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard: %w", err)
	}

	if err := c.client.Set(ctx, c.cacheKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set dashboard in cache: %w", err)
	}

	c.logger.Debug("Cached dashboard",
		zap.String("key", key),
		zap.Int("bytes", len(data)),
		zap.Duration("ttl", ttl))
	return nil
}

// InvalidateAll removes every dashboard written under the key prefix
func (c *RedisDashboardCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	var deletedCount int64

	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.keyPrefix+"*", defaultScanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}

		if len(keys) > 0 {
			deleted, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			deletedCount += deleted
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.logger.Info("Invalidated dashboard cache", zap.Int64("deleted_count", deletedCount))
	return nil
}

// Close releases the client when the cache created it
func (c *RedisDashboardCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

var _ appreport.DashboardCache = (*RedisDashboardCache)(nil)
