package printing

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const defaultLocale = "fr-FR"

// CompanyInfo is the issuer block printed on every invoice
type CompanyInfo struct {
	Name    string
	Address string
}

// InvoiceTemplate renders invoices to HTML with locale-aware amounts
type InvoiceTemplate struct {
	tmpl    *template.Template
	lang    language.Tag
	printer *message.Printer
	company CompanyInfo
	content string
}

// InvoiceTemplateOption configures an InvoiceTemplate
type InvoiceTemplateOption func(*InvoiceTemplate)

// WithLocale sets the BCP 47 locale used for amounts and labels.
// Unparseable tags fall back to the default locale.
func WithLocale(tag string) InvoiceTemplateOption {
	return func(t *InvoiceTemplate) {
		if parsed, err := language.Parse(tag); err == nil {
			t.lang = parsed
		}
	}
}

// WithCompany sets the issuer block
func WithCompany(company CompanyInfo) InvoiceTemplateOption {
	return func(t *InvoiceTemplate) {
		t.company = company
	}
}

// WithTemplateContent replaces the built-in layout
func WithTemplateContent(content string) InvoiceTemplateOption {
	return func(t *InvoiceTemplate) {
		t.content = content
	}
}

// NewInvoiceTemplate parses the invoice layout
func NewInvoiceTemplate(opts ...InvoiceTemplateOption) (*InvoiceTemplate, error) {
	t := &InvoiceTemplate{lang: language.MustParse(defaultLocale)}
	for _, opt := range opts {
		opt(t)
	}

	if t.content == "" {
		content, err := DefaultInvoiceTemplate()
		if err != nil {
			return nil, err
		}
		t.content = content
	}

	t.printer = message.NewPrinter(t.lang)

	tmpl, err := template.New("invoice").Funcs(t.funcMap()).Parse(t.content)
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to parse invoice template", err)
	}
	t.tmpl = tmpl
	return t, nil
}

func (t *InvoiceTemplate) funcMap() template.FuncMap {
	return template.FuncMap{
		"money":       t.formatMoney,
		"date":        formatDate,
		"statusClass": statusClass,
		"statusLabel": t.statusLabel,
	}
}

// formatMoney prints an amount with two decimals and locale grouping, e.g. 1 234,50
func (t *InvoiceTemplate) formatMoney(d decimal.Decimal) string {
	return t.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// statusLabel turns FINALIZED_UNPAID into "Finalized Unpaid".
// Casers are stateful, so each call gets its own.
func (t *InvoiceTemplate) statusLabel(status invoicing.InvoiceStatus) string {
	return cases.Title(t.lang).String(strings.ReplaceAll(statusClass(status), "_", " "))
}

func statusClass(status invoicing.InvoiceStatus) string {
	return strings.ToLower(string(status))
}

func formatDate(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format("2006-01-02")
}

type invoiceLineView struct {
	Label    string
	Quantity int
	Unit     valueobject.Unit
	VatRate  valueobject.VatRate
	Net      decimal.Decimal
	Tax      decimal.Decimal
	Price    decimal.Decimal
}

type invoiceView struct {
	Lang        string
	Title       string
	Company     CompanyInfo
	Customer    *invoicing.Customer
	IssueDate   time.Time
	Deadline    *time.Time
	Status      invoicing.InvoiceStatus
	Lines       []invoiceLineView
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
	Outstanding decimal.Decimal
}

// Title returns the document title for an invoice
func Title(invoice *invoicing.InvoiceEntity) string {
	return fmt.Sprintf("Invoice #%d", invoice.ID())
}

// Render renders invoice as of now
func (t *InvoiceTemplate) Render(invoice *invoicing.InvoiceEntity, now time.Time) (string, error) {
	view, err := t.buildView(invoice, now)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, view); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "failed to execute invoice template", err)
	}
	return buf.String(), nil
}

func (t *InvoiceTemplate) buildView(invoice *invoicing.InvoiceEntity, now time.Time) (*invoiceView, error) {
	if invoice == nil {
		return nil, NewRenderError(ErrCodeInvalidInvoice, "invoice is nil", nil)
	}

	view := &invoiceView{
		Lang:        t.lang.String(),
		Title:       Title(invoice),
		Company:     t.company,
		Status:      invoice.Status(now),
		Subtotal:    invoice.SubtotalAmount(),
		Tax:         invoice.TotalTaxAmount(),
		Total:       invoice.TotalAmount(),
		Outstanding: invoice.OutstandingAmount(),
	}
	if date, ok := invoice.Date(); ok {
		view.IssueDate = date
	}
	if deadline, ok := invoice.Deadline(); ok {
		view.Deadline = &deadline
	}
	if customer, ok := invoice.Customer(); ok {
		view.Customer = &customer
	}

	for _, line := range invoice.Lines() {
		price, err := valueobject.ParseAmount("line price", line.Price)
		if err != nil {
			return nil, NewRenderError(ErrCodeInvalidInvoice, "invalid line price", err)
		}
		tax, err := valueobject.ParseAmount("line tax", line.Tax)
		if err != nil {
			return nil, NewRenderError(ErrCodeInvalidInvoice, "invalid line tax", err)
		}
		view.Lines = append(view.Lines, invoiceLineView{
			Label:    line.Label,
			Quantity: line.Quantity,
			Unit:     line.Unit,
			VatRate:  line.VatRate,
			Net:      price.Sub(tax),
			Tax:      tax,
			Price:    price,
		})
	}
	return view, nil
}
