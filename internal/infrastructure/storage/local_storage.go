package storage

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	appinvoicing "github.com/invoicedesk/backend/internal/application/invoicing"
	infraconfig "github.com/invoicedesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Errors returned by LocalDocumentStorage
var (
	ErrInvalidKey       = errors.New("storage key must be a relative path inside the storage root")
	ErrInvalidSignature = errors.New("download link signature is invalid")
	ErrLinkExpired      = errors.New("download link has expired")
	ErrObjectNotFound   = errors.New("document not found")
)

var _ appinvoicing.DocumentStorage = (*LocalDocumentStorage)(nil)

// LocalDocumentStorage keeps documents under a directory and signs download
// links with HMAC-SHA256 so they can be served by the HTTP layer.
type LocalDocumentStorage struct {
	root              string
	baseURL           string
	signingKey        []byte
	presignExpiration time.Duration
	now               func() time.Time
	logger            *zap.Logger
}

// LocalOption configures a LocalDocumentStorage
type LocalOption func(*LocalDocumentStorage)

// WithLocalLogger sets the logger
func WithLocalLogger(logger *zap.Logger) LocalOption {
	return func(s *LocalDocumentStorage) {
		s.logger = logger
	}
}

// WithLocalClock overrides the clock used for link expiry
func WithLocalClock(now func() time.Time) LocalOption {
	return func(s *LocalDocumentStorage) {
		s.now = now
	}
}

// NewLocalDocumentStorage creates the storage root if needed.
// Without a configured signing key a random one is generated, so links do not survive a restart.
func NewLocalDocumentStorage(cfg *infraconfig.StorageConfig, opts ...LocalOption) (*LocalDocumentStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.LocalPath == "" {
		return nil, errors.New("storage local path is required")
	}

	if err := os.MkdirAll(cfg.LocalPath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory %s: %w", cfg.LocalPath, err)
	}

	key := []byte(cfg.SigningKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	}

	s := &LocalDocumentStorage{
		root:              cfg.LocalPath,
		baseURL:           strings.TrimRight(cfg.LocalBaseURL, "/"),
		signingKey:        key,
		presignExpiration: cfg.PresignExpiration,
		now:               time.Now,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.presignExpiration <= 0 {
		s.presignExpiration = defaultPresignExpiration
	}
	return s, nil
}

// BaseURL returns the URL prefix download links are issued under
func (s *LocalDocumentStorage) BaseURL() string {
	return s.baseURL
}

// path resolves storageKey inside the root
func (s *LocalDocumentStorage) path(storageKey string) (string, error) {
	if storageKey == "" {
		return "", ErrEmptyKey
	}
	if !filepath.IsLocal(filepath.FromSlash(storageKey)) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(storageKey)), nil
}

// Upload writes data under storageKey, replacing any previous document atomically.
// contentType is implied by the key's extension when served.
func (s *LocalDocumentStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.path(storageKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create document directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close document: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("store document: %w", err)
	}

	s.logger.Debug("Document stored",
		zap.String("storage_key", storageKey),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(data)))
	return nil
}

// GenerateDownloadURL returns {baseURL}/{key}?expires=<unix>&signature=<hex>
func (s *LocalDocumentStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if _, err := s.path(storageKey); err != nil {
		return "", time.Time{}, err
	}
	if expiresIn <= 0 {
		expiresIn = s.presignExpiration
	}

	expiresAt := s.now().Add(expiresIn).Truncate(time.Second)
	expires := strconv.FormatInt(expiresAt.Unix(), 10)

	query := url.Values{}
	query.Set("expires", expires)
	query.Set("signature", s.sign(storageKey, expires))

	link := (&url.URL{Path: s.baseURL + "/" + storageKey}).EscapedPath() + "?" + query.Encode()
	return link, expiresAt, nil
}

// Verify checks a download link's expiry and signature
func (s *LocalDocumentStorage) Verify(storageKey, expires, signature string) error {
	if _, err := s.path(storageKey); err != nil {
		return err
	}
	unix, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal([]byte(signature), []byte(s.sign(storageKey, expires))) {
		return ErrInvalidSignature
	}
	if s.now().After(time.Unix(unix, 0)) {
		return ErrLinkExpired
	}
	return nil
}

// Open returns the stored document. The caller closes it.
func (s *LocalDocumentStorage) Open(ctx context.Context, storageKey string) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := s.path(storageKey)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open document: %w", err)
	}
	return f, nil
}

// Delete removes a document; missing documents are not an error
func (s *LocalDocumentStorage) Delete(ctx context.Context, storageKey string) error {
	target, err := s.path(storageKey)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *LocalDocumentStorage) sign(storageKey, expires string) string {
	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write([]byte(storageKey))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(expires))
	return hex.EncodeToString(mac.Sum(nil))
}
