package report

import (
	"context"
	"strconv"
	"time"

	"github.com/invoicedesk/backend/internal/domain/report"
	"go.uber.org/zap"
)

// DashboardCache stores computed dashboards by key
type DashboardCache interface {
	// Get returns the cached dashboard, or nil and no error on a miss
	Get(ctx context.Context, key string) (*report.DashboardData, error)
	Set(ctx context.Context, key string, data *report.DashboardData, ttl time.Duration) error
	// InvalidateAll drops every cached dashboard
	InvalidateAll(ctx context.Context) error
}

// DashboardCacheKey returns the cache key for a dashboard year filter
func DashboardCacheKey(year *int) string {
	if year == nil {
		return "all"
	}
	return strconv.Itoa(*year)
}

// CachedDashboardService serves dashboards from a cache, computing them on a miss.
// Cache failures are logged and fall through to the wrapped service.
// A cached dashboard reflects its GeneratedAt time: deadline buckets and risk flags
// are not recomputed until the entry expires or is invalidated.
type CachedDashboardService struct {
	next   DashboardProvider
	cache  DashboardCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedDashboardService creates a new CachedDashboardService
func NewCachedDashboardService(next DashboardProvider, cache DashboardCache, ttl time.Duration, logger *zap.Logger) *CachedDashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedDashboardService{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// GetDashboardData returns the cached dashboard for year or computes and caches it
func (s *CachedDashboardService) GetDashboardData(ctx context.Context, year *int) (*report.DashboardData, error) {
	key := DashboardCacheKey(year)

	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Dashboard cache read failed", zap.String("key", key), zap.Error(err))
	} else if cached != nil {
		s.logger.Debug("Dashboard cache hit", zap.String("key", key))
		return cached, nil
	}

	data, err := s.next.GetDashboardData(ctx, year)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("Dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return data, nil
}

// GetDeadlineCompliance is not cached since the horizon varies per request
func (s *CachedDashboardService) GetDeadlineCompliance(ctx context.Context, year *int, horizonDays int) (*report.DeadlineData, error) {
	return s.next.GetDeadlineCompliance(ctx, year, horizonDays)
}

// Invalidate drops every cached dashboard
func (s *CachedDashboardService) Invalidate(ctx context.Context) error {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Warn("Dashboard cache invalidation failed", zap.Error(err))
		return err
	}
	return nil
}
