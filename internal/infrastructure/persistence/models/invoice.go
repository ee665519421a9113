package models

import (
	"time"

	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for invoice headers
type InvoiceModel struct {
	BaseModel
	CustomerID   *int64              `gorm:"index"`
	Customer     *CustomerModel      `gorm:"foreignKey:CustomerID;constraint:OnDelete:SET NULL"`
	Finalized    bool                `gorm:"not null;default:false;index:idx_invoice_state,priority:1"`
	Paid         bool                `gorm:"not null;default:false;index:idx_invoice_state,priority:2"`
	Date         *time.Time          `gorm:"type:date;index"`
	Deadline     *time.Time          `gorm:"type:date"`
	Total        decimal.NullDecimal `gorm:"type:decimal(12,2)"`
	Tax          decimal.NullDecimal `gorm:"type:decimal(12,2)"`
	InvoiceLines []InvoiceLineModel  `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceLineModel is the persistence model for invoice lines
type InvoiceLineModel struct {
	ID        int64               `gorm:"primaryKey;autoIncrement"`
	InvoiceID int64               `gorm:"not null;index"`
	ProductID *int64              `gorm:"index"`
	Product   *ProductModel       `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL"`
	Quantity  int                 `gorm:"not null;default:1"`
	Label     string              `gorm:"type:varchar(200);not null;default:''"`
	Unit      valueobject.Unit    `gorm:"type:varchar(10);not null;default:''"`
	VatRate   valueobject.VatRate `gorm:"type:varchar(5);not null;default:''"`
	Price     decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	Tax       decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to an invoice record.
// Preloaded customer and line products are carried over when present.
func (m *InvoiceModel) ToDomain() *invoicing.InvoiceRecord {
	record := &invoicing.InvoiceRecord{
		ID:           m.ID,
		CustomerID:   m.CustomerID,
		Finalized:    m.Finalized,
		Paid:         m.Paid,
		Date:         formatDatePtr(m.Date),
		Deadline:     formatDatePtr(m.Deadline),
		Total:        formatNullAmount(m.Total),
		Tax:          formatNullAmount(m.Tax),
		InvoiceLines: make([]invoicing.InvoiceLine, 0, len(m.InvoiceLines)),
	}
	if m.Customer != nil {
		record.Customer = m.Customer.ToDomain()
	}
	for i := range m.InvoiceLines {
		record.InvoiceLines = append(record.InvoiceLines, m.InvoiceLines[i].ToDomain())
	}
	return record
}

// FromDomain populates the header and lines from an invoice record.
// The customer and line products are referenced by id only.
func (m *InvoiceModel) FromDomain(r *invoicing.InvoiceRecord) error {
	date, err := parseDatePtr("date", r.Date)
	if err != nil {
		return err
	}
	deadline, err := parseDatePtr("deadline", r.Deadline)
	if err != nil {
		return err
	}
	total, err := parseNullAmount("total", r.Total)
	if err != nil {
		return err
	}
	tax, err := parseNullAmount("tax", r.Tax)
	if err != nil {
		return err
	}

	m.ID = r.ID
	m.CustomerID = r.CustomerID
	m.Finalized = r.Finalized
	m.Paid = r.Paid
	m.Date = date
	m.Deadline = deadline
	m.Total = total
	m.Tax = tax
	m.InvoiceLines = make([]InvoiceLineModel, 0, len(r.InvoiceLines))
	for i := range r.InvoiceLines {
		var line InvoiceLineModel
		if err := line.FromDomain(&r.InvoiceLines[i]); err != nil {
			return err
		}
		line.InvoiceID = r.ID
		m.InvoiceLines = append(m.InvoiceLines, line)
	}
	return nil
}

// ToDomain converts the persistence model to an invoice line
func (m *InvoiceLineModel) ToDomain() invoicing.InvoiceLine {
	line := invoicing.InvoiceLine{
		ID:        m.ID,
		InvoiceID: m.InvoiceID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		Label:     m.Label,
		Unit:      m.Unit,
		VatRate:   m.VatRate,
		Price:     valueobject.FormatAmount(m.Price),
		Tax:       valueobject.FormatAmount(m.Tax),
	}
	if m.Product != nil {
		line.Product = m.Product.ToDomain()
	}
	return line
}

// FromDomain populates the persistence model from an invoice line
func (m *InvoiceLineModel) FromDomain(l *invoicing.InvoiceLine) error {
	price, err := valueobject.ParseAmount("price", l.Price)
	if err != nil {
		return err
	}
	tax, err := valueobject.ParseAmount("tax", l.Tax)
	if err != nil {
		return err
	}
	m.ID = l.ID
	m.InvoiceID = l.InvoiceID
	m.ProductID = l.ProductID
	m.Quantity = l.Quantity
	m.Label = l.Label
	m.Unit = l.Unit
	m.VatRate = l.VatRate
	m.Price = price
	m.Tax = tax
	return nil
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := invoicing.FormatDate(*t)
	return &s
}

func parseDatePtr(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := invoicing.ParseDate(field, *s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func formatNullAmount(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	return valueobject.FormatAmountPtr(d.Decimal)
}

func parseNullAmount(field string, s *string) (decimal.NullDecimal, error) {
	d, ok, err := valueobject.ParseOptionalAmount(field, s)
	if err != nil || !ok {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
