package storage

import (
	"context"
	"testing"

	"github.com/invoicedesk/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewDocumentStorage(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	t.Run("local", func(t *testing.T) {
		s, err := NewDocumentStorage(ctx, &config.StorageConfig{Type: TypeLocal, LocalPath: t.TempDir()}, logger)
		require.NoError(t, err)
		assert.IsType(t, &LocalDocumentStorage{}, s)
	})

	t.Run("invalid s3 config", func(t *testing.T) {
		_, err := NewDocumentStorage(ctx, &config.StorageConfig{Type: TypeS3}, logger)
		assert.ErrorContains(t, err, "bucket is required")
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewDocumentStorage(ctx, &config.StorageConfig{Type: "ftp"}, logger)
		assert.ErrorContains(t, err, `unknown storage type "ftp"`)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewDocumentStorage(ctx, nil, nil)
		assert.Error(t, err)
	})
}
