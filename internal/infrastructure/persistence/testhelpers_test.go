package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/shared/valueobject"
	"github.com/invoicedesk/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory sqlite database with the invoicing schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// newMockGormDB wraps sqlmock in a postgres dialector
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return gormDB, mock, mockDB
}

type fixtures struct {
	ada, grace invoicing.Customer
	widget     invoicing.Product
	service    invoicing.Product
}

func seedCatalog(t *testing.T, db *gorm.DB) fixtures {
	t.Helper()
	ctx := context.Background()
	customers := NewGormCustomerRepository(db)
	products := NewGormProductRepository(db)

	f := fixtures{
		ada:   invoicing.Customer{FirstName: "Ada", LastName: "Lovelace", City: "London", CountryCode: "GB"},
		grace: invoicing.Customer{FirstName: "Grace", LastName: "Hopper", City: "New York", CountryCode: "US"},
		widget: invoicing.Product{
			Label: "Widget", VatRate: valueobject.VatRate20, Unit: valueobject.UnitPiece,
			UnitPrice: "120.00", UnitPriceWithoutTax: "100.00", UnitTax: "20.00",
		},
		service: invoicing.Product{
			Label: "Consulting hour", VatRate: valueobject.VatRate5_5, Unit: valueobject.UnitHour,
			UnitPrice: "10.55", UnitPriceWithoutTax: "10.00", UnitTax: "0.55",
		},
	}
	require.NoError(t, customers.Create(ctx, &f.ada))
	require.NoError(t, customers.Create(ctx, &f.grace))
	require.NoError(t, products.Create(ctx, &f.widget))
	require.NoError(t, products.Create(ctx, &f.service))
	return f
}

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }
func boolPtr(b bool) *bool    { return &b }
