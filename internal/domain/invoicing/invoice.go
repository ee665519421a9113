// Package invoicing holds the invoice records exchanged with the invoicing API
// and the InvoiceEntity business view built on top of them.
package invoicing

import (
	"github.com/invoicedesk/backend/internal/domain/shared/valueobject"
)

// Customer is the customer reference embedded in invoices
type Customer struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Address     string `json:"address"`
	ZipCode     string `json:"zip_code"`
	City        string `json:"city"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}

// FullName returns "first last"
func (c Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Product is the catalog product referenced by invoice lines.
// Prices are decimal strings; UnitPrice includes tax.
type Product struct {
	ID                  int64               `json:"id"`
	Label               string              `json:"label"`
	VatRate             valueobject.VatRate `json:"vat_rate"`
	Unit                valueobject.Unit    `json:"unit"`
	UnitPrice           string              `json:"unit_price"`
	UnitPriceWithoutTax string              `json:"unit_price_without_tax"`
	UnitTax             string              `json:"unit_tax"`
}

// InvoiceLine is one line of an invoice.
// Price is the line amount and Tax the line tax, both decimal strings.
type InvoiceLine struct {
	ID        int64               `json:"id"`
	InvoiceID int64               `json:"invoice_id"`
	ProductID *int64              `json:"product_id"`
	Quantity  int                 `json:"quantity"`
	Label     string              `json:"label"`
	Unit      valueobject.Unit    `json:"unit"`
	VatRate   valueobject.VatRate `json:"vat_rate"`
	Price     string              `json:"price"`
	Tax       string              `json:"tax"`
	Product   *Product            `json:"product,omitempty"`
}

// InvoiceRecord is an invoice as returned by the invoicing API.
// Total and Tax are informational header values; Date and Deadline are ISO dates.
type InvoiceRecord struct {
	ID           int64         `json:"id"`
	CustomerID   *int64        `json:"customer_id"`
	Finalized    bool          `json:"finalized"`
	Paid         bool          `json:"paid"`
	Date         *string       `json:"date"`
	Deadline     *string       `json:"deadline"`
	Total        *string       `json:"total"`
	Tax          *string       `json:"tax"`
	InvoiceLines []InvoiceLine `json:"invoice_lines"`
	Customer     *Customer     `json:"customer,omitempty"`
}

// Clone returns a deep copy of the record
func (r InvoiceRecord) Clone() InvoiceRecord {
	out := r
	out.CustomerID = clonePtr(r.CustomerID)
	out.Date = clonePtr(r.Date)
	out.Deadline = clonePtr(r.Deadline)
	out.Total = clonePtr(r.Total)
	out.Tax = clonePtr(r.Tax)
	out.Customer = clonePtr(r.Customer)
	if r.InvoiceLines != nil {
		out.InvoiceLines = make([]InvoiceLine, len(r.InvoiceLines))
		for i, line := range r.InvoiceLines {
			line.ProductID = clonePtr(line.ProductID)
			line.Product = clonePtr(line.Product)
			out.InvoiceLines[i] = line
		}
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
