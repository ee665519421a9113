// Package invoicing implements invoice management use cases.
package invoicing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/report"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/invoicedesk/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	maxPerPage = 100

	pdfContentType    = "application/pdf"
	documentURLExpiry = 15 * time.Minute
)

// InvoicePDFGenerator renders an invoice as a PDF document
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, invoice *invoicing.InvoiceEntity, now time.Time) ([]byte, error)
}

// DocumentStorage stores generated documents
type DocumentStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// DashboardInvalidator drops derived dashboard state after invoice writes
type DashboardInvalidator interface {
	Invalidate(ctx context.Context) error
}

// InvoiceService handles invoice-related business operations
type InvoiceService struct {
	invoiceRepo  invoicing.InvoiceRepository
	customerRepo invoicing.CustomerRepository
	productRepo  invoicing.ProductRepository
	pdf          InvoicePDFGenerator
	storage      DocumentStorage
	invalidator  DashboardInvalidator
	clock        report.Clock
	logger       *zap.Logger
}

// InvoiceServiceOption configures an InvoiceService
type InvoiceServiceOption func(*InvoiceService)

// WithPDFExport enables PDF export through the given generator and storage
func WithPDFExport(pdf InvoicePDFGenerator, storage DocumentStorage) InvoiceServiceOption {
	return func(s *InvoiceService) {
		s.pdf = pdf
		s.storage = storage
	}
}

// WithDashboardInvalidator sets the invalidator notified after each write
func WithDashboardInvalidator(invalidator DashboardInvalidator) InvoiceServiceOption {
	return func(s *InvoiceService) {
		s.invalidator = invalidator
	}
}

// WithServiceClock sets the clock used to derive invoice status
func WithServiceClock(clock report.Clock) InvoiceServiceOption {
	return func(s *InvoiceService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo invoicing.InvoiceRepository,
	customerRepo invoicing.CustomerRepository,
	productRepo invoicing.ProductRepository,
	logger *zap.Logger,
	opts ...InvoiceServiceOption,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &InvoiceService{
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		clock:        report.SystemClock,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns a page of invoices
func (s *InvoiceService) List(ctx context.Context, filter InvoiceListFilter) (*InvoiceListResponse, error) {
	page, perPage := shared.NormalizePage(filter.Page, filter.PerPage, maxPerPage)

	result, err := s.invoiceRepo.GetAllInvoices(ctx, page, perPage, filter.ToDomain())
	if err != nil {
		return nil, err
	}

	entities, err := invoicing.ToEntities(result.Invoices)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	invoices := make([]InvoiceResponse, len(entities))
	for i, e := range entities {
		invoices[i] = ToInvoiceResponse(e, now)
	}
	return &InvoiceListResponse{Invoices: invoices, Pagination: result.Pagination}, nil
}

// Get retrieves an invoice by ID
func (s *InvoiceService) Get(ctx context.Context, id int64) (*InvoiceResponse, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(entity, s.clock())
	return &response, nil
}

// Create creates a new invoice with priced lines
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustomerID, req.CustomerID,
		telemetry.SpanAttrLineCount, len(req.InvoiceLines),
	)

	if err := invoicing.ValidateDates(&req.Date, req.Deadline); err != nil {
		return nil, err
	}
	if req.Paid && !req.Finalized {
		return nil, shared.NewDomainError(shared.CodeInvoiceNotFinalized, "Only finalized invoices can be marked as paid")
	}

	customer, err := s.customerRepo.FindByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer not found")
		}
		return nil, err
	}

	lines, err := s.priceLines(ctx, req.InvoiceLines)
	if err != nil {
		return nil, err
	}

	customerID := customer.ID
	date := req.Date
	record := &invoicing.InvoiceRecord{
		CustomerID:   &customerID,
		Finalized:    req.Finalized,
		Paid:         req.Paid,
		Date:         &date,
		Deadline:     req.Deadline,
		InvoiceLines: lines,
		Customer:     customer,
	}
	if err := invoicing.ApplyHeaderTotals(record); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Create(ctx, record); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, record.ID)
	s.logger.Info("Invoice created",
		zap.Int64("invoice_id", record.ID),
		zap.Int64("customer_id", customerID),
		zap.Stringp("total", record.Total))
	s.invalidate(ctx)

	return s.respond(*record)
}

// Update modifies a draft invoice
func (s *InvoiceService) Update(ctx context.Context, id int64, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	record, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Finalized {
		return nil, shared.NewDomainError(shared.CodeInvoiceFinalized, "Finalized invoices cannot be modified")
	}

	if req.CustomerID != nil {
		customer, err := s.customerRepo.FindByID(ctx, *req.CustomerID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer not found")
			}
			return nil, err
		}
		customerID := customer.ID
		record.CustomerID = &customerID
		record.Customer = customer
	}
	if req.Date != nil {
		record.Date = req.Date
	}
	if req.Deadline != nil {
		record.Deadline = req.Deadline
	}
	if err := invoicing.ValidateDates(record.Date, record.Deadline); err != nil {
		return nil, err
	}

	if req.InvoiceLines != nil {
		lines, err := s.priceLines(ctx, *req.InvoiceLines)
		if err != nil {
			return nil, err
		}
		for i := range lines {
			lines[i].InvoiceID = record.ID
		}
		record.InvoiceLines = lines
	}
	if err := invoicing.ApplyHeaderTotals(record); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Update(ctx, record); err != nil {
		return nil, err
	}
	s.logger.Info("Invoice updated", zap.Int64("invoice_id", id))
	s.invalidate(ctx)

	return s.respond(*record)
}

// Delete removes a draft invoice
func (s *InvoiceService) Delete(ctx context.Context, id int64) error {
	record, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if record.Finalized {
		return shared.NewDomainError(shared.CodeInvoiceFinalized, "Finalized invoices cannot be deleted")
	}
	if err := s.invoiceRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Invoice deleted", zap.Int64("invoice_id", id))
	s.invalidate(ctx)
	return nil
}

// Finalize locks a draft invoice
func (s *InvoiceService) Finalize(ctx context.Context, id int64) (*InvoiceResponse, error) {
	record, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Finalized {
		return nil, shared.NewDomainError(shared.CodeInvoiceFinalized, "Invoice is already finalized")
	}
	if len(record.InvoiceLines) == 0 {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "Cannot finalize an invoice without lines")
	}

	record.Finalized = true
	if err := s.invoiceRepo.Update(ctx, record); err != nil {
		return nil, err
	}
	s.logger.Info("Invoice finalized", zap.Int64("invoice_id", id))
	s.invalidate(ctx)

	return s.respond(*record)
}

// MarkPaid records payment of a finalized invoice
func (s *InvoiceService) MarkPaid(ctx context.Context, id int64) (*InvoiceResponse, error) {
	record, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !record.Finalized {
		return nil, shared.NewDomainError(shared.CodeInvoiceNotFinalized, "Only finalized invoices can be marked as paid")
	}
	if record.Paid {
		return nil, shared.NewDomainError(shared.CodeInvoiceAlreadyPaid, "Invoice is already paid")
	}

	record.Paid = true
	if err := s.invoiceRepo.Update(ctx, record); err != nil {
		return nil, err
	}
	s.logger.Info("Invoice marked as paid", zap.Int64("invoice_id", id))
	s.invalidate(ctx)

	return s.respond(*record)
}

// ExportPDF renders an invoice to PDF and stores it under invoices/{id}/{uuid}.pdf
func (s *InvoiceService) ExportPDF(ctx context.Context, id int64) (*DocumentResponse, error) {
	if s.pdf == nil || s.storage == nil {
		return nil, shared.NewDomainError("PDF_EXPORT_DISABLED", "PDF export is not configured")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "export_pdf",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, id))
	defer span.End()

	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := s.pdf.GenerateInvoicePDF(ctx, entity, s.clock())
	if err != nil {
		s.logger.Error("Invoice PDF generation failed", zap.Int64("invoice_id", id), zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("generate invoice pdf: %w", err)
	}

	key := fmt.Sprintf("invoices/%d/%s.pdf", id, uuid.New().String())
	telemetry.SetAttributes(span, telemetry.SpanAttrStorageKey, key)
	if err := s.storage.Upload(ctx, key, data, pdfContentType); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("store invoice pdf: %w", err)
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, documentURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign invoice pdf url: %w", err)
	}

	s.logger.Info("Invoice PDF exported",
		zap.Int64("invoice_id", id),
		zap.String("storage_key", key),
		zap.Int("bytes", len(data)))

	return &DocumentResponse{
		InvoiceID:   id,
		StorageKey:  key,
		ContentType: pdfContentType,
		Size:        len(data),
		URL:         url,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *InvoiceService) load(ctx context.Context, id int64) (*invoicing.InvoiceEntity, error) {
	record, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return invoicing.ToEntity(*record)
}

func (s *InvoiceService) respond(record invoicing.InvoiceRecord) (*InvoiceResponse, error) {
	entity, err := invoicing.ToEntity(record)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(entity, s.clock())
	return &response, nil
}

// priceLines prices requested lines against the catalog, keeping request order
func (s *InvoiceService) priceLines(ctx context.Context, reqs []InvoiceLineRequest) ([]invoicing.InvoiceLine, error) {
	lines := make([]invoicing.InvoiceLine, 0, len(reqs))
	if len(reqs) == 0 {
		return lines, nil
	}

	ids := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, r := range reqs {
		product, ok := products[r.ProductID]
		if !ok {
			return nil, shared.NewDomainErrorf("INVALID_PRODUCT", "Product %d not found", r.ProductID)
		}
		line, err := invoicing.PriceLine(product, toLineSpec(r))
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *InvoiceService) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("Dashboard invalidation failed", zap.Error(err))
	}
}
