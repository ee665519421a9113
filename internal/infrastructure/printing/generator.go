package printing

import (
	"context"
	"html/template"
	"time"

	appinvoicing "github.com/invoicedesk/backend/internal/application/invoicing"
	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"go.uber.org/zap"
)

// InvoicePDFGenerator renders invoices through an InvoiceTemplate and a PDFRenderer
type InvoicePDFGenerator struct {
	renderer PDFRenderer
	tmpl     *InvoiceTemplate
	pageSize PageSize
	margins  Margins
	timeout  time.Duration
	logger   *zap.Logger
}

// GeneratorOption configures an InvoicePDFGenerator
type GeneratorOption func(*InvoicePDFGenerator)

// WithPageSize overrides the A4 default
func WithPageSize(size PageSize) GeneratorOption {
	return func(g *InvoicePDFGenerator) {
		g.pageSize = size
	}
}

// WithRenderTimeout bounds each render; zero keeps the renderer default
func WithRenderTimeout(d time.Duration) GeneratorOption {
	return func(g *InvoicePDFGenerator) {
		g.timeout = d
	}
}

// NewInvoicePDFGenerator creates a generator
func NewInvoicePDFGenerator(renderer PDFRenderer, tmpl *InvoiceTemplate, logger *zap.Logger, opts ...GeneratorOption) *InvoicePDFGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &InvoicePDFGenerator{
		renderer: renderer,
		tmpl:     tmpl,
		pageSize: PageSizeA4,
		margins:  DefaultMargins(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateInvoicePDF implements invoicing.InvoicePDFGenerator
func (g *InvoicePDFGenerator) GenerateInvoicePDF(ctx context.Context, invoice *invoicing.InvoiceEntity, now time.Time) ([]byte, error) {
	html, err := g.tmpl.Render(invoice, now)
	if err != nil {
		return nil, err
	}

	result, err := g.renderer.Render(ctx, &RenderRequest{
		HTML:       html,
		PageSize:   g.pageSize,
		Margins:    g.margins,
		Title:      Title(invoice),
		FooterHTML: footerTemplate(Title(invoice)),
		Timeout:    g.timeout,
	})
	if err != nil {
		return nil, err
	}

	g.logger.Debug("Invoice PDF generated",
		zap.Int64("invoice_id", invoice.ID()),
		zap.Int("pages", result.PageCount),
		zap.Duration("duration", result.RenderDuration))
	return result.PDFData, nil
}

// footerTemplate uses Chrome's pageNumber/totalPages placeholders
func footerTemplate(title string) string {
	return `<div style="font-size:8px;width:100%;text-align:center;color:#666;">` +
		template.HTMLEscapeString(title) +
		` - <span class="pageNumber"></span>/<span class="totalPages"></span></div>`
}

var _ appinvoicing.InvoicePDFGenerator = (*InvoicePDFGenerator)(nil)
