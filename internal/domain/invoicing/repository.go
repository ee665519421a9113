package invoicing

import (
	"context"

	"github.com/invoicedesk/backend/internal/domain/shared"
)

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	Finalized  *bool
	Paid       *bool
	Year       *int
	CustomerID *int64
	DateFrom   *string // ISO date, inclusive
	DateTo     *string // ISO date, inclusive
	OrderBy    string  // whitelisted column, empty means the default order
	OrderDir   string  // asc or desc
}

// InvoicePage is one page of invoices
type InvoicePage struct {
	Invoices   []InvoiceRecord   `json:"invoices"`
	Pagination shared.Pagination `json:"pagination"`
}

// InvoiceGateway provides read access to invoices for reporting
type InvoiceGateway interface {
	GetAllInvoices(ctx context.Context, page, perPage int, filter InvoiceFilter) (*InvoicePage, error)
}

// InvoiceRepository defines persistence operations for invoices
type InvoiceRepository interface {
	InvoiceGateway

	// FindByID returns the invoice with its lines, customer and products
	FindByID(ctx context.Context, id int64) (*InvoiceRecord, error)

	// Create persists a new invoice and its lines, assigning ids
	Create(ctx context.Context, invoice *InvoiceRecord) error

	// Update replaces the invoice header and its full set of lines
	Update(ctx context.Context, invoice *InvoiceRecord) error

	// Delete removes an invoice and its lines
	Delete(ctx context.Context, id int64) error
}

// CustomerRepository defines lookups for customers
type CustomerRepository interface {
	FindByID(ctx context.Context, id int64) (*Customer, error)
	Search(ctx context.Context, query string, page, perPage int) ([]Customer, int64, error)
}

// ProductRepository defines lookups for products
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (*Product, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]Product, error)
	Search(ctx context.Context, query string, page, perPage int) ([]Product, int64, error)
}
