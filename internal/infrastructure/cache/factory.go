package cache

import (
	"fmt"
	"io"

	appreport "github.com/invoicedesk/backend/internal/application/report"
	"github.com/invoicedesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DashboardCacheCloser is a DashboardCache that holds resources
type DashboardCacheCloser interface {
	appreport.DashboardCache
	io.Closer
}

// DashboardCacheFactory creates dashboard caches based on configuration
type DashboardCacheFactory struct {
	reportConfig          config.ReportConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// DashboardCacheFactoryOption is a functional option for configuring the factory
type DashboardCacheFactoryOption func(*DashboardCacheFactory)

// WithLogger sets the logger for the factory and the caches it creates
func WithLogger(logger *zap.Logger) DashboardCacheFactoryOption {
	return func(f *DashboardCacheFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to memory.
// Default is true.
func WithInMemoryFallback(allow bool) DashboardCacheFactoryOption {
	return func(f *DashboardCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewDashboardCacheFactory creates a new factory
func NewDashboardCacheFactory(reportCfg config.ReportConfig, redisCfg config.RedisConfig, opts ...DashboardCacheFactoryOption) *DashboardCacheFactory {
	f := &DashboardCacheFactory{
		reportConfig:          reportCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateCache returns the configured cache backend. A "redis" backend that
// cannot be reached falls back to memory unless fallback is disabled.
func (f *DashboardCacheFactory) CreateCache() (DashboardCacheCloser, error) {
	if f.reportConfig.CacheBackend == config.CacheBackendMemory {
		f.logger.Info("Using in-memory dashboard cache")
		return NewInMemoryDashboardCache(WithInMemoryLogger(f.logger)), nil
	}

	redisCache, err := NewRedisDashboardCache(f.redisConfig, WithCacheLogger(f.logger))
	if err == nil {
		f.logger.Info("Using Redis dashboard cache", zap.String("addr", f.redisConfig.Addr()))
		return redisCache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for dashboard cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory dashboard cache. "+
		"Invoice writes on other instances will not invalidate it.",
		zap.Error(err),
	)
	return NewInMemoryDashboardCache(WithInMemoryLogger(f.logger)), nil
}
