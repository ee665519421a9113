package invoicing

import (
	"context"
	"strings"

	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/shared"
)

// CatalogService searches customers and products for invoice editing
type CatalogService struct {
	customerRepo invoicing.CustomerRepository
	productRepo  invoicing.ProductRepository
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(customerRepo invoicing.CustomerRepository, productRepo invoicing.ProductRepository) *CatalogService {
	return &CatalogService{
		customerRepo: customerRepo,
		productRepo:  productRepo,
	}
}

// SearchCustomers matches customers by first or last name, case-insensitively
func (s *CatalogService) SearchCustomers(ctx context.Context, query string, page, perPage int) (*CustomerListResponse, error) {
	page, perPage = shared.NormalizePage(page, perPage, maxPerPage)
	customers, total, err := s.customerRepo.Search(ctx, strings.TrimSpace(query), page, perPage)
	if err != nil {
		return nil, err
	}
	if customers == nil {
		customers = []invoicing.Customer{}
	}
	return &CustomerListResponse{
		Customers:  customers,
		Pagination: shared.NewPagination(total, page, perPage),
	}, nil
}

// SearchProducts matches products by label, case-insensitively
func (s *CatalogService) SearchProducts(ctx context.Context, query string, page, perPage int) (*ProductListResponse, error) {
	page, perPage = shared.NormalizePage(page, perPage, maxPerPage)
	products, total, err := s.productRepo.Search(ctx, strings.TrimSpace(query), page, perPage)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []invoicing.Product{}
	}
	return &ProductListResponse{
		Products:   products,
		Pagination: shared.NewPagination(total, page, perPage),
	}, nil
}
