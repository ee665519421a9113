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

// GormProductRepository implements invoicing.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

var _ invoicing.ProductRepository = (*GormProductRepository)(nil)

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id int64) (*invoicing.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the given products keyed by ID. Unknown IDs are absent from the map.
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]invoicing.Product, error) {
	result := make(map[int64]invoicing.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		result[rows[i].ID] = *rows[i].ToDomain()
	}
	return result, nil
}

// Search matches the query against the product label, case-insensitively
func (r *GormProductRepository) Search(ctx context.Context, query string, page, perPage int) ([]invoicing.Product, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.ProductModel{})
	if query != "" {
		db = db.Where("LOWER(label) LIKE ?", "%"+strings.ToLower(query)+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductModel
	if err := db.Order("label ASC, id ASC").
		Offset(shared.Offset(page, perPage)).
		Limit(perPage).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	products := make([]invoicing.Product, 0, len(rows))
	for i := range rows {
		products = append(products, *rows[i].ToDomain())
	}
	return products, total, nil
}

// Create persists a new product and assigns its ID
func (r *GormProductRepository) Create(ctx context.Context, product *invoicing.Product) error {
	var model models.ProductModel
	if err := model.FromDomain(product); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	product.ID = model.ID
	return nil
}
