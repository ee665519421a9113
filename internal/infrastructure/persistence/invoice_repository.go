package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/invoicedesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements invoicing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

var _ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// invoiceHeaderColumns are written by Update; lines are handled separately
var invoiceHeaderColumns = []string{"customer_id", "finalized", "paid", "date", "deadline", "total", "tax", "updated_at"}

// withDetails preloads the customer, lines in insertion order and line products
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Customer").
		Preload("InvoiceLines", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("invoice_lines.id ASC")
		}).
		Preload("InvoiceLines.Product")
}

// GetAllInvoices returns one page of invoices with their details, newest first
// unless the filter names another order
func (r *GormInvoiceRepository) GetAllInvoices(ctx context.Context, page, perPage int, filter invoicing.InvoiceFilter) (*invoicing.InvoicePage, error) {
	page, perPage = shared.NormalizePage(page, perPage, 0)

	query, err := applyInvoiceFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), filter)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.InvoiceModel
	if err := withDetails(query).
		Order(invoiceOrder(filter.OrderBy, filter.OrderDir)).
		Offset(shared.Offset(page, perPage)).
		Limit(perPage).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	invoices := make([]invoicing.InvoiceRecord, 0, len(rows))
	for i := range rows {
		invoices = append(invoices, *rows[i].ToDomain())
	}
	return &invoicing.InvoicePage{
		Invoices:   invoices,
		Pagination: shared.NewPagination(total, page, perPage),
	}, nil
}

// applyInvoiceFilter adds the filter conditions. Date bounds compare against
// parsed dates so the same query runs on postgres and sqlite.
func applyInvoiceFilter(db *gorm.DB, filter invoicing.InvoiceFilter) (*gorm.DB, error) {
	if filter.Finalized != nil {
		db = db.Where("invoices.finalized = ?", *filter.Finalized)
	}
	if filter.Paid != nil {
		db = db.Where("invoices.paid = ?", *filter.Paid)
	}
	if filter.CustomerID != nil {
		db = db.Where("invoices.customer_id = ?", *filter.CustomerID)
	}
	if filter.Year != nil {
		start := time.Date(*filter.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		db = db.Where("invoices.date >= ? AND invoices.date < ?", start, start.AddDate(1, 0, 0))
	}
	if filter.DateFrom != nil {
		from, err := invoicing.ParseDate("date_from", *filter.DateFrom)
		if err != nil {
			return nil, err
		}
		db = db.Where("invoices.date >= ?", from.UTC())
	}
	if filter.DateTo != nil {
		to, err := invoicing.ParseDate("date_to", *filter.DateTo)
		if err != nil {
			return nil, err
		}
		db = db.Where("invoices.date < ?", to.UTC().AddDate(0, 0, 1))
	}
	return db, nil
}

// FindByID returns the invoice with its customer, lines and line products
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id int64) (*invoicing.InvoiceRecord, error) {
	var model models.InvoiceModel
	if err := withDetails(r.db.WithContext(ctx)).First(&model, "invoices.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create persists the invoice and its lines, then writes the assigned ids back
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *invoicing.InvoiceRecord) error {
	var model models.InvoiceModel
	if err := model.FromDomain(invoice); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return err
	}

	invoice.ID = model.ID
	for i := range model.InvoiceLines {
		invoice.InvoiceLines[i].ID = model.InvoiceLines[i].ID
		invoice.InvoiceLines[i].InvoiceID = model.ID
	}
	return nil
}

// Update writes the header and reconciles the lines: lines missing from the
// record are deleted, lines with an id are updated and new lines are inserted.
func (r *GormInvoiceRepository) Update(ctx context.Context, invoice *invoicing.InvoiceRecord) error {
	var model models.InvoiceModel
	if err := model.FromDomain(invoice); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.InvoiceModel{}).
			Where("id = ?", model.ID).
			Select(invoiceHeaderColumns).
			Updates(&model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		keep := make([]int64, 0, len(model.InvoiceLines))
		for _, line := range model.InvoiceLines {
			if line.ID != 0 {
				keep = append(keep, line.ID)
			}
		}
		stale := tx.Where("invoice_id = ?", model.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&models.InvoiceLineModel{}).Error; err != nil {
			return err
		}

		for i := range model.InvoiceLines {
			line := &model.InvoiceLines[i]
			line.InvoiceID = model.ID
			if err := tx.Omit("Product").Save(line).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i := range model.InvoiceLines {
		invoice.InvoiceLines[i].ID = model.InvoiceLines[i].ID
		invoice.InvoiceLines[i].InvoiceID = model.ID
	}
	return nil
}

// Delete removes an invoice and its lines
func (r *GormInvoiceRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceLineModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.InvoiceModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}
