package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeUnavailable is used when an optional feature is not configured
	ErrCodeUnavailable = "ERR_UNAVAILABLE"
)

// Validation error codes
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeLinkExpired is used when a signed download link is stale
	ErrCodeLinkExpired = "ERR_LINK_EXPIRED"
	// ErrCodeForbidden is used when a download link signature does not match
	ErrCodeForbidden = "ERR_FORBIDDEN"
)

// Invoice field error codes
const (
	ErrCodeInvalidAmount   = "ERR_INVALID_AMOUNT"
	ErrCodeInvalidDate     = "ERR_INVALID_DATE"
	ErrCodeInvalidVatRate  = "ERR_INVALID_VAT_RATE"
	ErrCodeInvalidUnit     = "ERR_INVALID_UNIT"
	ErrCodeInvalidQuantity = "ERR_INVALID_QUANTITY"
	ErrCodeInvalidCustomer = "ERR_INVALID_CUSTOMER"
	ErrCodeInvalidProduct  = "ERR_INVALID_PRODUCT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule        = "ERR_BUSINESS_RULE"
	ErrCodeInvoiceFinalized    = "ERR_INVOICE_FINALIZED"
	ErrCodeInvoiceNotFinalized = "ERR_INVOICE_NOT_FINALIZED"
	ErrCodeInvoiceAlreadyPaid  = "ERR_INVOICE_ALREADY_PAID"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	// ErrCodeRateLimited is used when a client exceeds its request budget
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:     http.StatusInternalServerError,
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeUnavailable: http.StatusServiceUnavailable,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:    http.StatusNotFound,
	ErrCodeConflict:    http.StatusConflict,
	ErrCodeLinkExpired: http.StatusGone,
	ErrCodeForbidden:   http.StatusForbidden,

	// Invoice field errors -> 400 Bad Request
	ErrCodeInvalidAmount:   http.StatusBadRequest,
	ErrCodeInvalidDate:     http.StatusBadRequest,
	ErrCodeInvalidVatRate:  http.StatusBadRequest,
	ErrCodeInvalidUnit:     http.StatusBadRequest,
	ErrCodeInvalidQuantity: http.StatusBadRequest,
	ErrCodeInvalidCustomer: http.StatusBadRequest,
	ErrCodeInvalidProduct:  http.StatusBadRequest,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:        http.StatusUnprocessableEntity,
	ErrCodeInvoiceFinalized:    http.StatusUnprocessableEntity,
	ErrCodeInvoiceNotFinalized: http.StatusUnprocessableEntity,
	ErrCodeInvoiceAlreadyPaid:  http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"INVALID_STATE":         ErrCodeInvalidState,
	"INVALID_AMOUNT":        ErrCodeInvalidAmount,
	"INVALID_DATE":          ErrCodeInvalidDate,
	"INVALID_VAT_RATE":      ErrCodeInvalidVatRate,
	"INVALID_UNIT":          ErrCodeInvalidUnit,
	"INVALID_QUANTITY":      ErrCodeInvalidQuantity,
	"INVALID_CUSTOMER":      ErrCodeInvalidCustomer,
	"INVALID_PRODUCT":       ErrCodeInvalidProduct,
	"INVOICE_FINALIZED":     ErrCodeInvoiceFinalized,
	"INVOICE_NOT_FINALIZED": ErrCodeInvoiceNotFinalized,
	"INVOICE_ALREADY_PAID":  ErrCodeInvoiceAlreadyPaid,
	"PDF_EXPORT_DISABLED":   ErrCodeUnavailable,
	"VALIDATION_ERROR":      ErrCodeValidation,
	"BAD_REQUEST":           ErrCodeBadRequest,
	"INTERNAL_ERROR":        ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format or unknown are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
