package models

import (
	"github.com/invoicedesk/backend/internal/domain/invoicing"
)

// CustomerModel is the persistence model for invoiced customers
type CustomerModel struct {
	BaseModel
	FirstName   string `gorm:"type:varchar(100);not null;index:idx_customer_name,priority:2"`
	LastName    string `gorm:"type:varchar(100);not null;index:idx_customer_name,priority:1"`
	Address     string `gorm:"type:varchar(255);not null;default:''"`
	ZipCode     string `gorm:"type:varchar(20);not null;default:''"`
	City        string `gorm:"type:varchar(100);not null;default:''"`
	Country     string `gorm:"type:varchar(100);not null;default:''"`
	CountryCode string `gorm:"type:varchar(2);not null;default:''"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to an invoicing customer
func (m *CustomerModel) ToDomain() *invoicing.Customer {
	return &invoicing.Customer{
		ID:          m.ID,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		Address:     m.Address,
		ZipCode:     m.ZipCode,
		City:        m.City,
		Country:     m.Country,
		CountryCode: m.CountryCode,
	}
}

// FromDomain populates the persistence model from an invoicing customer
func (m *CustomerModel) FromDomain(c *invoicing.Customer) {
	m.ID = c.ID
	m.FirstName = c.FirstName
	m.LastName = c.LastName
	m.Address = c.Address
	m.ZipCode = c.ZipCode
	m.City = c.City
	m.Country = c.Country
	m.CountryCode = c.CountryCode
}
