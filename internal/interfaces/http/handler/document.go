package handler

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/invoicedesk/backend/internal/infrastructure/storage"
)

// SignedDocumentStore verifies signed links and opens the documents they point to
type SignedDocumentStore interface {
	Verify(storageKey, expires, signature string) error
	Open(ctx context.Context, storageKey string) (*os.File, error)
}

var _ SignedDocumentStore = (*storage.LocalDocumentStorage)(nil)

// DocumentHandler serves documents kept in local storage through signed links
type DocumentHandler struct {
	BaseHandler
	store SignedDocumentStore
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(store SignedDocumentStore) *DocumentHandler {
	return &DocumentHandler{store: store}
}

// Download godoc
// @ID           downloadDocument
// @Summary      Download a stored document
// @Description  Serves a document through the link returned by the PDF export
// @Tags         documents
// @Produce      application/pdf
// @Param        key       path  string true "Storage key"
// @Param        expires   query int    true "Link expiry (unix seconds)"
// @Param        signature query string true "Link signature"
// @Success      200 {file} binary
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      410 {object} ErrorResponse
// @Router       /files/{key} [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if err := h.store.Verify(key, c.Query("expires"), c.Query("signature")); err != nil {
		h.HandleError(c, err)
		return
	}

	f, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	name := path.Base(key)
	if contentType := mime.TypeByExtension(path.Ext(name)); contentType != "" {
		c.Header("Content-Type", contentType)
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	c.Header("Cache-Control", "private, no-store")
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), f)
}
