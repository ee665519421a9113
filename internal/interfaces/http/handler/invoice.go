package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	appinvoicing "github.com/invoicedesk/backend/internal/application/invoicing"
)

// InvoiceAppService is the invoice use case surface used by InvoiceHandler
type InvoiceAppService interface {
	List(ctx context.Context, filter appinvoicing.InvoiceListFilter) (*appinvoicing.InvoiceListResponse, error)
	Get(ctx context.Context, id int64) (*appinvoicing.InvoiceResponse, error)
	Create(ctx context.Context, req appinvoicing.CreateInvoiceRequest) (*appinvoicing.InvoiceResponse, error)
	Update(ctx context.Context, id int64, req appinvoicing.UpdateInvoiceRequest) (*appinvoicing.InvoiceResponse, error)
	Delete(ctx context.Context, id int64) error
	Finalize(ctx context.Context, id int64) (*appinvoicing.InvoiceResponse, error)
	MarkPaid(ctx context.Context, id int64) (*appinvoicing.InvoiceResponse, error)
	ExportPDF(ctx context.Context, id int64) (*appinvoicing.DocumentResponse, error)
}

var _ InvoiceAppService = (*appinvoicing.InvoiceService)(nil)

// InvoiceHandler handles invoice-related API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService InvoiceAppService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService InvoiceAppService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// invoiceID reads the :id path parameter, answering 400 when it is malformed
func (h *InvoiceHandler) invoiceID(c *gin.Context) (int64, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
	}
	return id, ok
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Description  Returns a page of invoices, newest first unless ordered otherwise, with derived status and amounts
// @Tags         invoices
// @Produce      json
// @Param        page        query int    false "Page number" default(1)
// @Param        per_page    query int    false "Page size" default(20)
// @Param        finalized   query bool   false "Filter by finalized flag"
// @Param        paid        query bool   false "Filter by paid flag"
// @Param        year        query int    false "Invoice date year"
// @Param        customer_id query int    false "Customer ID"
// @Param        date_from   query string false "Earliest invoice date (YYYY-MM-DD)"
// @Param        date_to     query string false "Latest invoice date (YYYY-MM-DD)"
// @Param        order_by    query string false "Sort field" Enums(id, date, deadline, total)
// @Param        order_dir   query string false "Sort direction" Enums(asc, desc) default(desc)
// @Success      200 {object} APIResponse[[]appinvoicing.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter appinvoicing.InvoiceListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	result, err := h.invoiceService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	p := result.Pagination
	h.SuccessWithMeta(c, result.Invoices, p.Total, p.Page, p.PageSize)
}

// Get godoc
// @ID           getInvoice
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path int true "Invoice ID"
// @Success      200 {object} APIResponse[appinvoicing.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Create godoc
// @ID           createInvoice
// @Summary      Create an invoice
// @Description  Creates an invoice; lines are priced from the current product catalog
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body appinvoicing.CreateInvoiceRequest true "Invoice creation request"
// @Success      201 {object} APIResponse[appinvoicing.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req appinvoicing.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// Update godoc
// @ID           updateInvoice
// @Summary      Update a draft invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id      path int                              true "Invoice ID"
// @Param        request body appinvoicing.UpdateInvoiceRequest true "Invoice update request"
// @Success      200 {object} APIResponse[appinvoicing.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	var req appinvoicing.UpdateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Delete godoc
// @ID           deleteInvoice
// @Summary      Delete a draft invoice
// @Tags         invoices
// @Param        id path int true "Invoice ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Finalize godoc
// @ID           finalizeInvoice
// @Summary      Finalize an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path int true "Invoice ID"
// @Success      200 {object} APIResponse[appinvoicing.InvoiceResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /invoices/{id}/finalize [post]
func (h *InvoiceHandler) Finalize(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Finalize(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Pay godoc
// @ID           payInvoice
// @Summary      Mark a finalized invoice as paid
// @Tags         invoices
// @Produce      json
// @Param        id path int true "Invoice ID"
// @Success      200 {object} APIResponse[appinvoicing.InvoiceResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /invoices/{id}/pay [post]
func (h *InvoiceHandler) Pay(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.MarkPaid(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// ExportPDF godoc
// @ID           exportInvoicePDF
// @Summary      Export an invoice as PDF
// @Description  Renders the invoice, stores the document and returns a time-limited download link
// @Tags         invoices
// @Produce      json
// @Param        id path int true "Invoice ID"
// @Success      201 {object} APIResponse[appinvoicing.DocumentResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /invoices/{id}/pdf [post]
func (h *InvoiceHandler) ExportPDF(c *gin.Context) {
	id, ok := h.invoiceID(c)
	if !ok {
		return
	}

	document, err := h.invoiceService.ExportPDF(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, document)
}
