package models

import (
	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for catalog products
type ProductModel struct {
	BaseModel
	Label               string              `gorm:"type:varchar(200);not null;index"`
	VatRate             valueobject.VatRate `gorm:"type:varchar(5);not null;default:'0'"`
	Unit                valueobject.Unit    `gorm:"type:varchar(10);not null"`
	UnitPrice           decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	UnitPriceWithoutTax decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	UnitTax             decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to an invoicing product
func (m *ProductModel) ToDomain() *invoicing.Product {
	return &invoicing.Product{
		ID:                  m.ID,
		Label:               m.Label,
		VatRate:             m.VatRate,
		Unit:                m.Unit,
		UnitPrice:           valueobject.FormatAmount(m.UnitPrice),
		UnitPriceWithoutTax: valueobject.FormatAmount(m.UnitPriceWithoutTax),
		UnitTax:             valueobject.FormatAmount(m.UnitTax),
	}
}

// FromDomain populates the persistence model from an invoicing product
func (m *ProductModel) FromDomain(p *invoicing.Product) error {
	unitPrice, err := valueobject.ParseAmount("unit_price", p.UnitPrice)
	if err != nil {
		return err
	}
	withoutTax, err := valueobject.ParseAmount("unit_price_without_tax", p.UnitPriceWithoutTax)
	if err != nil {
		return err
	}
	unitTax, err := valueobject.ParseAmount("unit_tax", p.UnitTax)
	if err != nil {
		return err
	}
	m.ID = p.ID
	m.Label = p.Label
	m.VatRate = p.VatRate.OrDefault()
	m.Unit = p.Unit
	m.UnitPrice = unitPrice
	m.UnitPriceWithoutTax = withoutTax
	m.UnitTax = unitTax
	return nil
}
