package storage

import (
	"context"
	"fmt"

	appinvoicing "github.com/invoicedesk/backend/internal/application/invoicing"
	infraconfig "github.com/invoicedesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Storage backends
const (
	TypeLocal = "local"
	TypeS3    = "s3"
)

// NewDocumentStorage builds the configured backend. S3 buckets are created when missing.
func NewDocumentStorage(ctx context.Context, cfg *infraconfig.StorageConfig, logger *zap.Logger) (appinvoicing.DocumentStorage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		return nil, fmt.Errorf("storage configuration is required")
	}

	switch cfg.Type {
	case TypeLocal, "":
		s, err := NewLocalDocumentStorage(cfg, WithLocalLogger(logger))
		if err != nil {
			return nil, err
		}
		logger.Info("Using local document storage", zap.String("path", cfg.LocalPath))
		return s, nil

	case TypeS3:
		s, err := NewS3DocumentStorage(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logger.Info("Using S3 document storage",
			zap.String("bucket", cfg.Bucket),
			zap.String("endpoint", cfg.Endpoint))
		return s, nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
