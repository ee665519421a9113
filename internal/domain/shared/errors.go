package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code.
// This lets errors.Is match sentinel errors created with NewDomainError.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return &DomainError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Common domain errors
var (
	ErrNotFound     = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Invoice domain error codes
const (
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeInvalidDate         = "INVALID_DATE"
	CodeInvalidVatRate      = "INVALID_VAT_RATE"
	CodeInvalidUnit         = "INVALID_UNIT"
	CodeInvalidQuantity     = "INVALID_QUANTITY"
	CodeInvoiceFinalized    = "INVOICE_FINALIZED"
	CodeInvoiceNotFinalized = "INVOICE_NOT_FINALIZED"
	CodeInvoiceAlreadyPaid  = "INVOICE_ALREADY_PAID"
)
