package models

import (
	"time"
)

// BaseModel provides common persistence fields for all models
type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AllModels lists every model, in dependency order, for AutoMigrate in tests and sqlite setups
func AllModels() []any {
	return []any{
		&CustomerModel{},
		&ProductModel{},
		&InvoiceModel{},
		&InvoiceLineModel{},
	}
}
