package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// InvoiceSortFields contains allowed sort fields for invoice listings
var InvoiceSortFields = map[string]bool{
	"id":       true,
	"date":     true,
	"deadline": true,
	"total":    true,
}

// invoiceOrder builds the ORDER BY clause of an invoice listing.
// Ties on any other field are broken by id, newest first.
func invoiceOrder(orderBy, orderDir string) string {
	field := ValidateSortField(orderBy, InvoiceSortFields, "id")
	dir := ValidateSortOrder(orderDir)
	if field == "id" {
		return "invoices.id " + dir
	}
	return "invoices." + field + " " + dir + ", invoices.id DESC"
}
