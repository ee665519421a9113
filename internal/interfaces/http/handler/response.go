package handler

import "github.com/invoicedesk/backend/internal/interfaces/http/dto"

// APIResponse documents the dto.Response envelope with a typed payload.
// Listing endpoints fill Meta with the page of results.
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse documents a failed request; Error.Code carries the domain error code
// (e.g. INVOICE_FINALIZED) and Error.RequestID the id to quote in support requests.
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}
