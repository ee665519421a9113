package invoicing

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/invoicedesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the derived lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPaid            InvoiceStatus = "PAID"
	InvoiceStatusDraft           InvoiceStatus = "DRAFT"
	InvoiceStatusOverdue         InvoiceStatus = "OVERDUE"
	InvoiceStatusFinalizedUnpaid InvoiceStatus = "FINALIZED_UNPAID"
)

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// dateLayout is the ISO date format used by the API
const dateLayout = "2006-01-02"

// ParseDate parses an ISO date (or RFC3339 timestamp).
// Date-only values are midnight UTC.
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, shared.NewDomainErrorf(shared.CodeInvalidDate, "%s: invalid date %q", field, value)
}

// FormatDate renders t as an ISO date
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

type entityLine struct {
	price    decimal.Decimal
	tax      decimal.Decimal
	quantity int64
}

// InvoiceEntity is a read-only business view over an InvoiceRecord.
// Amounts and dates are parsed once by ToEntity; every getter is a pure
// function of the record (and of the reference time for date predicates).
type InvoiceEntity struct {
	record   InvoiceRecord
	date     *time.Time
	deadline *time.Time
	lines    []entityLine

	headerTotal    decimal.Decimal
	hasHeaderTotal bool
	headerTax      decimal.Decimal
}

// ToEntity wraps a record. The record is copied, never mutated.
// Malformed decimal strings or dates are reported as DomainErrors.
func ToEntity(record InvoiceRecord) (*InvoiceEntity, error) {
	e := &InvoiceEntity{record: record.Clone()}

	if record.Date != nil {
		d, err := ParseDate(fmt.Sprintf("invoice %d date", record.ID), *record.Date)
		if err != nil {
			return nil, err
		}
		e.date = &d
	}
	if record.Deadline != nil {
		d, err := ParseDate(fmt.Sprintf("invoice %d deadline", record.ID), *record.Deadline)
		if err != nil {
			return nil, err
		}
		e.deadline = &d
	}

	total, hasTotal, err := valueobject.ParseOptionalAmount(fmt.Sprintf("invoice %d total", record.ID), record.Total)
	if err != nil {
		return nil, err
	}
	e.headerTotal, e.hasHeaderTotal = total, hasTotal

	tax, _, err := valueobject.ParseOptionalAmount(fmt.Sprintf("invoice %d tax", record.ID), record.Tax)
	if err != nil {
		return nil, err
	}
	e.headerTax = tax

	e.lines = make([]entityLine, len(record.InvoiceLines))
	for i, line := range record.InvoiceLines {
		price, err := valueobject.ParseAmount(fmt.Sprintf("invoice %d line %d price", record.ID, line.ID), line.Price)
		if err != nil {
			return nil, err
		}
		lineTax, err := valueobject.ParseAmount(fmt.Sprintf("invoice %d line %d tax", record.ID, line.ID), line.Tax)
		if err != nil {
			return nil, err
		}
		e.lines[i] = entityLine{price: price, tax: lineTax, quantity: int64(line.Quantity)}
	}

	return e, nil
}

// ToEntities wraps every record, stopping at the first malformed one
func ToEntities(records []InvoiceRecord) ([]*InvoiceEntity, error) {
	entities := make([]*InvoiceEntity, 0, len(records))
	for _, r := range records {
		e, err := ToEntity(r)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// Record returns a copy of the wrapped record
func (e *InvoiceEntity) Record() InvoiceRecord {
	return e.record.Clone()
}

// ID returns the invoice id
func (e *InvoiceEntity) ID() int64 {
	return e.record.ID
}

// CustomerID returns the customer id, if any
func (e *InvoiceEntity) CustomerID() (int64, bool) {
	if e.record.CustomerID == nil {
		return 0, false
	}
	return *e.record.CustomerID, true
}

// Customer returns a copy of the embedded customer, if any
func (e *InvoiceEntity) Customer() (Customer, bool) {
	if e.record.Customer == nil {
		return Customer{}, false
	}
	return *e.record.Customer, true
}

// Lines returns a copy of the invoice lines
func (e *InvoiceEntity) Lines() []InvoiceLine {
	return e.record.Clone().InvoiceLines
}

// IsPaid returns true if the invoice has been paid
func (e *InvoiceEntity) IsPaid() bool {
	return e.record.Paid
}

// IsFinalized returns true if the invoice is locked for edits
func (e *InvoiceEntity) IsFinalized() bool {
	return e.record.Finalized
}

// Date returns the invoice date, if any
func (e *InvoiceEntity) Date() (time.Time, bool) {
	if e.date == nil {
		return time.Time{}, false
	}
	return *e.date, true
}

// Deadline returns the payment deadline, if any
func (e *InvoiceEntity) Deadline() (time.Time, bool) {
	if e.deadline == nil {
		return time.Time{}, false
	}
	return *e.deadline, true
}

// IsOverdue returns true if the invoice is unpaid and its deadline is before now
func (e *InvoiceEntity) IsOverdue(now time.Time) bool {
	if e.record.Paid || e.deadline == nil {
		return false
	}
	return e.deadline.Before(now)
}

// IsDueSoon returns true if the invoice is unpaid, not overdue, and its
// deadline falls within horizonDays of now
func (e *InvoiceEntity) IsDueSoon(now time.Time, horizonDays int) bool {
	if e.record.Paid || e.deadline == nil || e.IsOverdue(now) {
		return false
	}
	return !e.deadline.After(now.AddDate(0, 0, horizonDays))
}

// DaysOverdue returns the number of whole days past the deadline (0 if not overdue)
func (e *InvoiceEntity) DaysOverdue(now time.Time) int {
	if !e.IsOverdue(now) {
		return 0
	}
	return int(now.Sub(*e.deadline).Hours() / 24)
}

// SubtotalAmount returns the sum of (price - tax) over the lines.
// Invoices without lines fall back to the header total minus header tax.
func (e *InvoiceEntity) SubtotalAmount() decimal.Decimal {
	if len(e.lines) == 0 {
		if !e.hasHeaderTotal {
			return decimal.Zero
		}
		return e.headerTotal.Sub(e.headerTax)
	}
	sum := decimal.Zero
	for _, l := range e.lines {
		sum = sum.Add(l.price.Sub(l.tax))
	}
	return sum
}

// TotalTaxAmount returns the sum of tax x quantity over the lines.
// Invoices without lines fall back to the header tax.
func (e *InvoiceEntity) TotalTaxAmount() decimal.Decimal {
	if len(e.lines) == 0 {
		if !e.hasHeaderTotal {
			return decimal.Zero
		}
		return e.headerTax
	}
	sum := decimal.Zero
	for _, l := range e.lines {
		sum = sum.Add(l.tax.Mul(decimal.NewFromInt(l.quantity)))
	}
	return sum
}

// TotalAmount returns SubtotalAmount + TotalTaxAmount
func (e *InvoiceEntity) TotalAmount() decimal.Decimal {
	return e.SubtotalAmount().Add(e.TotalTaxAmount())
}

// OutstandingAmount returns the header total of an unpaid invoice, 0 otherwise
func (e *InvoiceEntity) OutstandingAmount() decimal.Decimal {
	if e.record.Paid || !e.hasHeaderTotal {
		return decimal.Zero
	}
	return e.headerTotal
}

// Status derives the invoice status. PAID wins over DRAFT, which wins over OVERDUE.
func (e *InvoiceEntity) Status(now time.Time) InvoiceStatus {
	switch {
	case e.record.Paid:
		return InvoiceStatusPaid
	case !e.record.Finalized:
		return InvoiceStatusDraft
	case e.IsOverdue(now):
		return InvoiceStatusOverdue
	default:
		return InvoiceStatusFinalizedUnpaid
	}
}

type invoiceEntityJSON struct {
	InvoiceRecord
	SubtotalAmount    decimal.Decimal `json:"subtotal_amount"`
	TotalTaxAmount    decimal.Decimal `json:"total_tax_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
}

// MarshalJSON renders the wrapped record together with its derived amounts
func (e *InvoiceEntity) MarshalJSON() ([]byte, error) {
	return json.Marshal(invoiceEntityJSON{
		InvoiceRecord:     e.record,
		SubtotalAmount:    e.SubtotalAmount(),
		TotalTaxAmount:    e.TotalTaxAmount(),
		TotalAmount:       e.TotalAmount(),
		OutstandingAmount: e.OutstandingAmount(),
	})
}

// UnmarshalJSON rebuilds an entity from its JSON form. Derived amounts are
// recomputed from the record rather than trusted.
func (e *InvoiceEntity) UnmarshalJSON(data []byte) error {
	var record InvoiceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}
	parsed, err := ToEntity(record)
	if err != nil {
		return err
	}
	*e = *parsed
	return nil
}
