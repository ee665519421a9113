package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/invoicedesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements invoicing.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

var _ invoicing.CustomerRepository = (*GormCustomerRepository)(nil)

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id int64) (*invoicing.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Search matches the query against first name, last name and full name, case-insensitively.
// An empty query lists every customer.
func (r *GormCustomerRepository) Search(ctx context.Context, query string, page, perPage int) ([]invoicing.Customer, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.CustomerModel{})
	if query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		db = db.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(first_name || ' ' || last_name) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CustomerModel
	if err := db.Order("last_name ASC, first_name ASC, id ASC").
		Offset(shared.Offset(page, perPage)).
		Limit(perPage).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	customers := make([]invoicing.Customer, 0, len(rows))
	for i := range rows {
		customers = append(customers, *rows[i].ToDomain())
	}
	return customers, total, nil
}

// Create persists a new customer and assigns its ID
func (r *GormCustomerRepository) Create(ctx context.Context, customer *invoicing.Customer) error {
	var model models.CustomerModel
	model.FromDomain(customer)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	customer.ID = model.ID
	return nil
}
