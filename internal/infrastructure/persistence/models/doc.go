// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from the invoicing records to keep the domain layer free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel with the numeric primary key and timestamps
//   - customer.go: customers
//   - product.go: products
//   - invoice.go: invoices and invoice lines
//
// Amounts are stored as numeric(12,2) and dates as DATE; the mappers convert them to the
// decimal strings and ISO dates carried by the invoicing records.
package models
