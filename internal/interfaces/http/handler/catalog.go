package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	appinvoicing "github.com/invoicedesk/backend/internal/application/invoicing"
)

// CatalogAppService is the customer and product search surface used by CatalogHandler
type CatalogAppService interface {
	SearchCustomers(ctx context.Context, query string, page, perPage int) (*appinvoicing.CustomerListResponse, error)
	SearchProducts(ctx context.Context, query string, page, perPage int) (*appinvoicing.ProductListResponse, error)
}

var _ CatalogAppService = (*appinvoicing.CatalogService)(nil)

// SearchQuery holds the query parameters of a catalog search
type SearchQuery struct {
	Query   string `form:"query" binding:"max=100"`
	Page    int    `form:"page" binding:"omitempty,min=1"`
	PerPage int    `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// CatalogHandler serves customer and product lookups for invoice editing
type CatalogHandler struct {
	BaseHandler
	catalogService CatalogAppService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService CatalogAppService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// SearchCustomers godoc
// @ID           searchCustomers
// @Summary      Search customers
// @Description  Case-insensitive match on first or last name; an empty query lists all customers
// @Tags         catalog
// @Produce      json
// @Param        query    query string false "Search text"
// @Param        page     query int    false "Page number" default(1)
// @Param        per_page query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]invoicing.Customer]
// @Failure      400 {object} ErrorResponse
// @Router       /customers/search [get]
func (h *CatalogHandler) SearchCustomers(c *gin.Context) {
	var q SearchQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.catalogService.SearchCustomers(c.Request.Context(), q.Query, q.Page, q.PerPage)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	p := result.Pagination
	h.SuccessWithMeta(c, result.Customers, p.Total, p.Page, p.PageSize)
}

// SearchProducts godoc
// @ID           searchProducts
// @Summary      Search products
// @Description  Case-insensitive match on the product label; an empty query lists all products
// @Tags         catalog
// @Produce      json
// @Param        query    query string false "Search text"
// @Param        page     query int    false "Page number" default(1)
// @Param        per_page query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]invoicing.Product]
// @Failure      400 {object} ErrorResponse
// @Router       /products/search [get]
func (h *CatalogHandler) SearchProducts(c *gin.Context) {
	var q SearchQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.catalogService.SearchProducts(c.Request.Context(), q.Query, q.Page, q.PerPage)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	p := result.Pagination
	h.SuccessWithMeta(c, result.Products, p.Total, p.Page, p.PageSize)
}
