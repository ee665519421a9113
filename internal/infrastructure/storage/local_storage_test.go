package storage

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/invoicedesk/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalStorage(t *testing.T, now *time.Time) *LocalDocumentStorage {
	t.Helper()
	s, err := NewLocalDocumentStorage(&config.StorageConfig{
		Type:         TypeLocal,
		LocalPath:    t.TempDir(),
		LocalBaseURL: "/files/",
		SigningKey:   "test-signing-key",
	}, WithLocalClock(func() time.Time { return *now }))
	require.NoError(t, err)
	return s
}

func parseLink(t *testing.T, link string) (key, expires, signature string) {
	t.Helper()
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	return strings.TrimPrefix(parsed.Path, "/files/"), parsed.Query().Get("expires"), parsed.Query().Get("signature")
}

func TestNewLocalDocumentStorage(t *testing.T) {
	t.Run("requires path", func(t *testing.T) {
		_, err := NewLocalDocumentStorage(&config.StorageConfig{})
		assert.ErrorContains(t, err, "local path is required")
	})

	t.Run("creates root and defaults", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "docs")
		s, err := NewLocalDocumentStorage(&config.StorageConfig{LocalPath: root, LocalBaseURL: "/files"})
		require.NoError(t, err)

		info, err := os.Stat(root)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Len(t, s.signingKey, 32)
		assert.Equal(t, defaultPresignExpiration, s.presignExpiration)
		assert.Equal(t, "/files", s.BaseURL())
	})
}

func TestLocalDocumentStorage_UploadAndOpen(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newLocalStorage(t, &now)
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "invoices/42/a.pdf", []byte("%PDF-1"), "application/pdf"))
	require.NoError(t, s.Upload(ctx, "invoices/42/a.pdf", []byte("%PDF-2"), "application/pdf"))

	f, err := s.Open(ctx, "invoices/42/a.pdf")
	require.NoError(t, err)
	defer f.Close()
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-2", string(content))

	entries, err := os.ReadDir(filepath.Join(s.root, "invoices", "42"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestLocalDocumentStorage_RejectsEscapingKeys(t *testing.T) {
	now := time.Now()
	s := newLocalStorage(t, &now)
	ctx := context.Background()

	for _, key := range []string{"../secret.pdf", "/etc/passwd", "invoices/../../x"} {
		assert.ErrorIs(t, s.Upload(ctx, key, []byte("x"), "text/plain"), ErrInvalidKey, key)
		_, err := s.Open(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
	assert.ErrorIs(t, s.Upload(ctx, "", []byte("x"), "text/plain"), ErrEmptyKey)
}

func TestLocalDocumentStorage_OpenMissing(t *testing.T) {
	now := time.Now()
	s := newLocalStorage(t, &now)

	_, err := s.Open(context.Background(), "invoices/1/missing.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalDocumentStorage_SignedLinks(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newLocalStorage(t, &now)
	ctx := context.Background()

	link, expiresAt, err := s.GenerateDownloadURL(ctx, "invoices/42/a.pdf", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "/files/invoices/42/a.pdf?"))
	assert.Equal(t, now.Add(10*time.Minute), expiresAt)

	key, expires, signature := parseLink(t, link)
	assert.Equal(t, "invoices/42/a.pdf", key)
	assert.NoError(t, s.Verify(key, expires, signature))

	t.Run("tampered key", func(t *testing.T) {
		assert.ErrorIs(t, s.Verify("invoices/43/a.pdf", expires, signature), ErrInvalidSignature)
	})

	t.Run("tampered expiry", func(t *testing.T) {
		assert.ErrorIs(t, s.Verify(key, "9999999999", signature), ErrInvalidSignature)
		assert.ErrorIs(t, s.Verify(key, "soon", signature), ErrInvalidSignature)
	})

	t.Run("expired", func(t *testing.T) {
		now = now.Add(11 * time.Minute)
		assert.ErrorIs(t, s.Verify(key, expires, signature), ErrLinkExpired)
	})
}

func TestLocalDocumentStorage_DefaultExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newLocalStorage(t, &now)

	_, expiresAt, err := s.GenerateDownloadURL(context.Background(), "invoices/1/b.pdf", 0)
	require.NoError(t, err)
	assert.Equal(t, now.Add(defaultPresignExpiration), expiresAt)
}

func TestLocalDocumentStorage_Delete(t *testing.T) {
	now := time.Now()
	s := newLocalStorage(t, &now)
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "invoices/1/c.pdf", []byte("x"), "application/pdf"))
	require.NoError(t, s.Delete(ctx, "invoices/1/c.pdf"))
	require.NoError(t, s.Delete(ctx, "invoices/1/c.pdf"))

	_, err := s.Open(ctx, "invoices/1/c.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
