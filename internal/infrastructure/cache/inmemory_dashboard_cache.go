package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	appreport "github.com/invoicedesk/backend/internal/application/report"
	"github.com/invoicedesk/backend/internal/domain/report"
	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

// InMemoryDashboardCache implements DashboardCache in process memory.
// Suitable for a single instance; entries are not shared across processes.
// Values are copied on Set and Get, so callers never share a cached dashboard.
type InMemoryDashboardCache struct {
	entries         sync.Map // map[string]*cacheEntry
	logger          *zap.Logger
	now             func() time.Time
	cleanupInterval time.Duration
	stopCh          chan struct{}
	stopped         int32

	hits   int64
	misses int64
}

type cacheEntry struct {
	value     *report.DashboardData
	expiresAt time.Time
}

func (e *cacheEntry) isExpired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// InMemoryDashboardCacheOption is a functional option for configuring the cache
type InMemoryDashboardCacheOption func(*InMemoryDashboardCache)

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryDashboardCacheOption {
	return func(c *InMemoryDashboardCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithInMemoryClock sets the clock used for expiry checks
func WithInMemoryClock(now func() time.Time) InMemoryDashboardCacheOption {
	return func(c *InMemoryDashboardCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithCleanupInterval sets how often expired entries are swept
func WithCleanupInterval(interval time.Duration) InMemoryDashboardCacheOption {
	return func(c *InMemoryDashboardCache) {
		if interval > 0 {
			c.cleanupInterval = interval
		}
	}
}

// NewInMemoryDashboardCache creates a cache and starts its cleanup goroutine.
// Call Close to stop it.
func NewInMemoryDashboardCache(opts ...InMemoryDashboardCacheOption) *InMemoryDashboardCache {
	c := &InMemoryDashboardCache{
		logger:          zap.NewNop(),
		now:             time.Now,
		cleanupInterval: defaultCleanupInterval,
		stopCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupExpired()

	return c
}

// Get retrieves a dashboard, returning nil on a miss or an expired entry
func (c *InMemoryDashboardCache) Get(ctx context.Context, key string) (*report.DashboardData, error) {
	if value, ok := c.entries.Load(key); ok {
		entry := value.(*cacheEntry)
		if !entry.isExpired(c.now()) {
			atomic.AddInt64(&c.hits, 1)
			return entry.value.Clone(), nil
		}
		c.entries.Delete(key)
	}

	atomic.AddInt64(&c.misses, 1)
	return nil, nil
}

// Set stores a dashboard. A zero ttl keeps the entry until invalidated.
func (c *InMemoryDashboardCache) Set(ctx context.Context, key string, dashboard *report.DashboardData, ttl time.Duration) error {
	if dashboard == nil {
		return nil
	}

	entry := &cacheEntry{value: dashboard.Clone()}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.entries.Store(key, entry)
	return nil
}

// InvalidateAll removes every entry
func (c *InMemoryDashboardCache) InvalidateAll(ctx context.Context) error {
	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})
	c.logger.Debug("Invalidated in-memory dashboard cache")
	return nil
}

// Close stops the cleanup goroutine
func (c *InMemoryDashboardCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache hit and miss counts
func (c *InMemoryDashboardCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Count returns the number of stored entries, expired ones included
func (c *InMemoryDashboardCache) Count() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (c *InMemoryDashboardCache) cleanupExpired() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.doCleanup()
		}
	}
}

func (c *InMemoryDashboardCache) doCleanup() {
	now := c.now()
	removed := 0
	c.entries.Range(func(key, value any) bool {
		if value.(*cacheEntry).isExpired(now) {
			c.entries.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		c.logger.Debug("Cleaned up expired dashboard entries", zap.Int("removed", removed))
	}
}

var _ appreport.DashboardCache = (*InMemoryDashboardCache)(nil)
