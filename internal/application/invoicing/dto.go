package invoicing

import (
	"time"

	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/invoicedesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceLineRequest is one line of a create or update request
type InvoiceLineRequest struct {
	ProductID int64  `json:"product_id" binding:"required,gt=0"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Label     string `json:"label" binding:"max=255"`
	Unit      string `json:"unit" binding:"omitempty,oneof=hour day piece"`
	VatRate   string `json:"vat_rate" binding:"omitempty,oneof=0 5.5 10 20"`
}

// CreateInvoiceRequest represents a request to create a new invoice
type CreateInvoiceRequest struct {
	CustomerID   int64                `json:"customer_id" binding:"required,gt=0"`
	Date         string               `json:"date" binding:"required,isodate"`
	Deadline     *string              `json:"deadline" binding:"omitempty,isodate"`
	Finalized    bool                 `json:"finalized"`
	Paid         bool                 `json:"paid"`
	InvoiceLines []InvoiceLineRequest `json:"invoice_lines" binding:"dive"`
}

// UpdateInvoiceRequest represents a request to update a draft invoice.
// When InvoiceLines is non-nil it replaces the full set of lines.
type UpdateInvoiceRequest struct {
	CustomerID   *int64                `json:"customer_id" binding:"omitempty,gt=0"`
	Date         *string               `json:"date" binding:"omitempty,isodate"`
	Deadline     *string               `json:"deadline" binding:"omitempty,isodate"`
	InvoiceLines *[]InvoiceLineRequest `json:"invoice_lines" binding:"omitempty,dive"`
}

// InvoiceListFilter defines the query parameters of an invoice listing
type InvoiceListFilter struct {
	Page       int     `form:"page" binding:"omitempty,min=1"`
	PerPage    int     `form:"per_page" binding:"omitempty,min=1,max=100"`
	Finalized  *bool   `form:"finalized"`
	Paid       *bool   `form:"paid"`
	Year       *int    `form:"year" binding:"omitempty,min=1900,max=3000"`
	CustomerID *int64  `form:"customer_id" binding:"omitempty,gt=0"`
	DateFrom   *string `form:"date_from" binding:"omitempty,isodate"`
	DateTo     *string `form:"date_to" binding:"omitempty,isodate"`
	OrderBy    string  `form:"order_by" binding:"omitempty,oneof=id date deadline total"`
	OrderDir   string  `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToDomain converts the listing filter to a domain filter
func (f InvoiceListFilter) ToDomain() invoicing.InvoiceFilter {
	return invoicing.InvoiceFilter{
		Finalized:  f.Finalized,
		Paid:       f.Paid,
		Year:       f.Year,
		CustomerID: f.CustomerID,
		DateFrom:   f.DateFrom,
		DateTo:     f.DateTo,
		OrderBy:    f.OrderBy,
		OrderDir:   f.OrderDir,
	}
}

// InvoiceResponse is an invoice with its derived status and amounts
type InvoiceResponse struct {
	invoicing.InvoiceRecord
	Status            invoicing.InvoiceStatus `json:"status"`
	SubtotalAmount    decimal.Decimal         `json:"subtotal_amount"`
	TotalTaxAmount    decimal.Decimal         `json:"total_tax_amount"`
	TotalAmount       decimal.Decimal         `json:"total_amount"`
	OutstandingAmount decimal.Decimal         `json:"outstanding_amount"`
}

// ToInvoiceResponse renders an entity as seen at now
func ToInvoiceResponse(e *invoicing.InvoiceEntity, now time.Time) InvoiceResponse {
	return InvoiceResponse{
		InvoiceRecord:     e.Record(),
		Status:            e.Status(now),
		SubtotalAmount:    e.SubtotalAmount(),
		TotalTaxAmount:    e.TotalTaxAmount(),
		TotalAmount:       e.TotalAmount(),
		OutstandingAmount: e.OutstandingAmount(),
	}
}

// InvoiceListResponse is one page of invoices
type InvoiceListResponse struct {
	Invoices   []InvoiceResponse `json:"invoices"`
	Pagination shared.Pagination `json:"pagination"`
}

// DocumentResponse describes a stored invoice document
type DocumentResponse struct {
	InvoiceID   int64     `json:"invoice_id"`
	StorageKey  string    `json:"storage_key"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// CustomerListResponse is one page of customers
type CustomerListResponse struct {
	Customers  []invoicing.Customer `json:"customers"`
	Pagination shared.Pagination    `json:"pagination"`
}

// ProductListResponse is one page of products
type ProductListResponse struct {
	Products   []invoicing.Product `json:"products"`
	Pagination shared.Pagination   `json:"pagination"`
}

func toLineSpec(req InvoiceLineRequest) invoicing.LineSpec {
	return invoicing.LineSpec{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Label:     req.Label,
		Unit:      valueobject.Unit(req.Unit),
		VatRate:   valueobject.VatRate(req.VatRate),
	}
}
