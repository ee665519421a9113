package persistence

import (
	"context"
	"testing"

	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/invoicedesk/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRecord(f fixtures, customer invoicing.Customer, date string, finalized, paid bool) *invoicing.InvoiceRecord {
	widgetID := f.widget.ID
	return &invoicing.InvoiceRecord{
		CustomerID: int64Ptr(customer.ID),
		Finalized:  finalized,
		Paid:       paid,
		Date:       strPtr(date),
		Deadline:   strPtr(date[:8] + "28"),
		Total:      strPtr("130.55"),
		Tax:        strPtr("20.55"),
		InvoiceLines: []invoicing.InvoiceLine{
			{ProductID: &widgetID, Quantity: 1, Label: "Widget", Unit: valueobject.UnitPiece, VatRate: valueobject.VatRate20, Price: "120.00", Tax: "20.00"},
			{Quantity: 1, Label: "Shipping", Unit: valueobject.UnitPiece, VatRate: valueobject.VatRate5_5, Price: "10.55", Tax: "0.55"},
		},
	}
}

func seedInvoices(t *testing.T, db *gorm.DB, f fixtures) []*invoicing.InvoiceRecord {
	t.Helper()
	repo := NewGormInvoiceRepository(db)
	records := []*invoicing.InvoiceRecord{
		newRecord(f, f.ada, "2023-12-05", true, true),
		newRecord(f, f.ada, "2024-01-10", true, false),
		newRecord(f, f.grace, "2024-02-15", true, true),
		newRecord(f, f.grace, "2024-03-01", false, false),
	}
	for _, r := range records {
		require.NoError(t, repo.Create(context.Background(), r))
	}
	return records
}

func TestGormInvoiceRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	f := seedCatalog(t, db)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	record := newRecord(f, f.ada, "2024-01-10", false, false)
	require.NoError(t, repo.Create(ctx, record))

	assert.NotZero(t, record.ID)
	for _, line := range record.InvoiceLines {
		assert.NotZero(t, line.ID)
		assert.Equal(t, record.ID, line.InvoiceID)
	}

	found, err := repo.FindByID(ctx, record.ID)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-10", *found.Date)
	assert.Equal(t, "2024-01-28", *found.Deadline)
	assert.Equal(t, "130.55", *found.Total)
	assert.Equal(t, "20.55", *found.Tax)
	require.NotNil(t, found.Customer)
	assert.Equal(t, "Lovelace", found.Customer.LastName)

	require.Len(t, found.InvoiceLines, 2)
	widgetLine := found.InvoiceLines[0]
	assert.Equal(t, "120.00", widgetLine.Price)
	assert.Equal(t, valueobject.VatRate20, widgetLine.VatRate)
	require.NotNil(t, widgetLine.Product)
	assert.Equal(t, "100.00", widgetLine.Product.UnitPriceWithoutTax)

	shipping := found.InvoiceLines[1]
	assert.Nil(t, shipping.ProductID)
	assert.Nil(t, shipping.Product)
	assert.Equal(t, "0.55", shipping.Tax)

	entity, err := invoicing.ToEntity(*found)
	require.NoError(t, err)
	assert.Equal(t, "130.55", valueobject.FormatAmount(entity.TotalAmount()))
}

func TestGormInvoiceRepository_NullableHeader(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	record := &invoicing.InvoiceRecord{InvoiceLines: []invoicing.InvoiceLine{}}
	require.NoError(t, repo.Create(ctx, record))

	found, err := repo.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Nil(t, found.CustomerID)
	assert.Nil(t, found.Customer)
	assert.Nil(t, found.Date)
	assert.Nil(t, found.Deadline)
	assert.Nil(t, found.Total)
	assert.Nil(t, found.Tax)
	assert.NotNil(t, found.InvoiceLines)
	assert.Empty(t, found.InvoiceLines)
}

func TestGormInvoiceRepository_Create_RejectsMalformedRecord(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)

	err := repo.Create(context.Background(), &invoicing.InvoiceRecord{Date: strPtr("10/01/2024")})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.CodeInvalidDate, domainErr.Code)
}

func TestGormInvoiceRepository_FindByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)

	_, err := repo.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormInvoiceRepository_GetAllInvoices(t *testing.T) {
	db := setupTestDB(t)
	f := seedCatalog(t, db)
	records := seedInvoices(t, db, f)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	ids := func(page *invoicing.InvoicePage) []int64 {
		out := make([]int64, 0, len(page.Invoices))
		for _, inv := range page.Invoices {
			out = append(out, inv.ID)
		}
		return out
	}

	t.Run("no filter lists newest first", func(t *testing.T) {
		page, err := repo.GetAllInvoices(ctx, 1, 50, invoicing.InvoiceFilter{})
		require.NoError(t, err)
		assert.Equal(t, []int64{records[3].ID, records[2].ID, records[1].ID, records[0].ID}, ids(page))
		assert.Equal(t, int64(4), page.Pagination.Total)
		for _, inv := range page.Invoices {
			assert.Len(t, inv.InvoiceLines, 2)
			assert.NotNil(t, inv.Customer)
		}
	})

	t.Run("ordered by date ascending", func(t *testing.T) {
		page, err := repo.GetAllInvoices(ctx, 1, 50, invoicing.InvoiceFilter{OrderBy: "date", OrderDir: "asc"})
		require.NoError(t, err)
		assert.Equal(t, []int64{records[0].ID, records[1].ID, records[2].ID, records[3].ID}, ids(page))
	})

	t.Run("equal totals fall back to newest first", func(t *testing.T) {
		page, err := repo.GetAllInvoices(ctx, 1, 50, invoicing.InvoiceFilter{OrderBy: "total", OrderDir: "asc"})
		require.NoError(t, err)
		assert.Equal(t, []int64{records[3].ID, records[2].ID, records[1].ID, records[0].ID}, ids(page))
	})

	t.Run("finalized only", func(t *testing.T) {
		page, err := repo.GetAllInvoices(ctx, 1, 50, invoicing.InvoiceFilter{Finalized: boolPtr(true)})
		require.NoError(t, err)
		assert.Equal(t, []int64{records[2].ID, records[1].ID, records[0].ID}, ids(page))
	})

	t.Run("finalized and year", func(t *testing.T) {
		year := 2024
		page, err := repo.GetAllInvoices(ctx, 1, 50, invoicing.InvoiceFilter{Finalized: boolPtr(true), Year: &year})
		require.NoError(t, err)
		assert.Equal(t, []int64{records[2].ID, records[1].ID}, ids(page))
	})

	t.Run("unpaid for a customer", func(t *testing.T) {
		page, err := repo.GetAllInvoices(ctx, 1, 50, invoicing.InvoiceFilter{
			Paid:       boolPtr(false),
			CustomerID: int64Ptr(f.ada.ID),
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{records[1].ID}, ids(page))
	})

	t.Run("inclusive date range", func(t *testing.T) {
		page, err := repo.GetAllInvoices(ctx, 1, 50, invoicing.InvoiceFilter{
			DateFrom: strPtr("2024-01-10"),
			DateTo:   strPtr("2024-02-15"),
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{records[2].ID, records[1].ID}, ids(page))
	})

	t.Run("malformed date bound", func(t *testing.T) {
		_, err := repo.GetAllInvoices(ctx, 1, 50, invoicing.InvoiceFilter{DateFrom: strPtr("yesterday")})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeInvalidDate, domainErr.Code)
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := repo.GetAllInvoices(ctx, 2, 3, invoicing.InvoiceFilter{})
		require.NoError(t, err)
		assert.Equal(t, []int64{records[0].ID}, ids(page))
		assert.Equal(t, 2, page.Pagination.TotalPages)
		assert.Equal(t, 2, page.Pagination.Page)
	})

	t.Run("empty result", func(t *testing.T) {
		year := 1999
		page, err := repo.GetAllInvoices(ctx, 1, 50, invoicing.InvoiceFilter{Year: &year})
		require.NoError(t, err)
		assert.NotNil(t, page.Invoices)
		assert.Empty(t, page.Invoices)
	})
}

func TestGormInvoiceRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	f := seedCatalog(t, db)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	record := newRecord(f, f.ada, "2024-01-10", false, false)
	require.NoError(t, repo.Create(ctx, record))
	keptLineID := record.InvoiceLines[0].ID

	t.Run("reconciles lines and header", func(t *testing.T) {
		serviceID := f.service.ID
		record.CustomerID = int64Ptr(f.grace.ID)
		record.Deadline = strPtr("2024-02-10")
		record.InvoiceLines = []invoicing.InvoiceLine{
			record.InvoiceLines[0],
			{ProductID: &serviceID, Quantity: 3, Label: "Consulting hour", Unit: valueobject.UnitHour, VatRate: valueobject.VatRate5_5, Price: "31.65", Tax: "1.65"},
		}
		record.Total = strPtr("151.65")
		record.Tax = strPtr("21.65")

		require.NoError(t, repo.Update(ctx, record))
		assert.Equal(t, keptLineID, record.InvoiceLines[0].ID)
		assert.NotZero(t, record.InvoiceLines[1].ID)

		found, err := repo.FindByID(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, f.grace.ID, *found.CustomerID)
		assert.Equal(t, "Hopper", found.Customer.LastName)
		assert.Equal(t, "2024-02-10", *found.Deadline)
		assert.Equal(t, "151.65", *found.Total)
		require.Len(t, found.InvoiceLines, 2)
		assert.Equal(t, keptLineID, found.InvoiceLines[0].ID)
		assert.Equal(t, 3, found.InvoiceLines[1].Quantity)
		assert.Equal(t, "Consulting hour", found.InvoiceLines[1].Product.Label)

		var lineCount int64
		require.NoError(t, db.Table("invoice_lines").Count(&lineCount).Error)
		assert.Equal(t, int64(2), lineCount)
	})

	t.Run("writes zero-valued flags", func(t *testing.T) {
		record.Finalized = true
		record.Paid = true
		require.NoError(t, repo.Update(ctx, record))

		record.Paid = false
		require.NoError(t, repo.Update(ctx, record))

		found, err := repo.FindByID(ctx, record.ID)
		require.NoError(t, err)
		assert.True(t, found.Finalized)
		assert.False(t, found.Paid)
	})

	t.Run("removes every line", func(t *testing.T) {
		record.InvoiceLines = []invoicing.InvoiceLine{}
		require.NoError(t, repo.Update(ctx, record))

		found, err := repo.FindByID(ctx, record.ID)
		require.NoError(t, err)
		assert.Empty(t, found.InvoiceLines)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		missing := &invoicing.InvoiceRecord{ID: 9999}
		assert.ErrorIs(t, repo.Update(ctx, missing), shared.ErrNotFound)
	})
}

func TestGormInvoiceRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	f := seedCatalog(t, db)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	record := newRecord(f, f.ada, "2024-01-10", false, false)
	require.NoError(t, repo.Create(ctx, record))

	require.NoError(t, repo.Delete(ctx, record.ID))

	_, err := repo.FindByID(ctx, record.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	var lineCount int64
	require.NoError(t, db.Table("invoice_lines").Count(&lineCount).Error)
	assert.Zero(t, lineCount)

	assert.ErrorIs(t, repo.Delete(ctx, record.ID), shared.ErrNotFound)
}

func TestGormInvoiceRepository_GetAllInvoices_DatabaseError(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormInvoiceRepository(gormDB)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "invoices" WHERE invoices.finalized = \$1`).
		WithArgs(true).
		WillReturnError(assert.AnError)

	_, err := repo.GetAllInvoices(context.Background(), 1, 50, invoicing.InvoiceFilter{Finalized: boolPtr(true)})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

