//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	appinvoicing "github.com/invoicedesk/backend/internal/application/invoicing"
	appreport "github.com/invoicedesk/backend/internal/application/report"
	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/report"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/invoicedesk/backend/internal/infrastructure/cache"
	"github.com/invoicedesk/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stack struct {
	invoices  *appinvoicing.InvoiceService
	catalog   *appinvoicing.CatalogService
	dashboard *appreport.CachedDashboardService
}

func newStack(t *testing.T, tdb *TestDB, now time.Time) stack {
	t.Helper()
	clock := func() time.Time { return now }

	invoiceRepo := persistence.NewGormInvoiceRepository(tdb.DB)
	customerRepo := persistence.NewGormCustomerRepository(tdb.DB)
	productRepo := persistence.NewGormProductRepository(tdb.DB)

	dashboardCache := cache.NewInMemoryDashboardCache()
	t.Cleanup(func() { _ = dashboardCache.Close() })

	dashboard := appreport.NewCachedDashboardService(
		appreport.NewDashboardService(invoiceRepo, report.DefaultThresholds(), nil, appreport.WithClock(clock)),
		dashboardCache, time.Hour, nil,
	)
	return stack{
		invoices: appinvoicing.NewInvoiceService(invoiceRepo, customerRepo, productRepo, nil,
			appinvoicing.WithDashboardInvalidator(dashboard),
			appinvoicing.WithServiceClock(clock),
		),
		catalog:   appinvoicing.NewCatalogService(customerRepo, productRepo),
		dashboard: dashboard,
	}
}

func findCustomer(t *testing.T, s stack, name string) invoicing.Customer {
	t.Helper()
	res, err := s.catalog.SearchCustomers(context.Background(), name, 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Customers, 1, name)
	return res.Customers[0]
}

func findProduct(t *testing.T, s stack, label string) invoicing.Product {
	t.Helper()
	res, err := s.catalog.SearchProducts(context.Background(), label, 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Products, 1, label)
	return res.Products[0]
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestInvoicingFlow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	s := newStack(t, tdb, now)
	ctx := context.Background()

	ada := findCustomer(t, s, "lovelace")
	grace := findCustomer(t, s, "hopper")
	marie := findCustomer(t, s, "curie")
	consulting := findProduct(t, s, "consulting")
	support := findProduct(t, s, "support")

	create := func(customer invoicing.Customer, date, deadline string, product invoicing.Product) *appinvoicing.InvoiceResponse {
		t.Helper()
		inv, err := s.invoices.Create(ctx, appinvoicing.CreateInvoiceRequest{
			CustomerID:   customer.ID,
			Date:         date,
			Deadline:     &deadline,
			InvoiceLines: []appinvoicing.InvoiceLineRequest{{ProductID: product.ID, Quantity: 1}},
		})
		require.NoError(t, err)
		return inv
	}

	paid := create(ada, "2024-02-01", "2024-03-01", consulting)
	overdue := create(grace, "2024-02-15", "2024-03-05", consulting)
	dueSoon := create(marie, "2024-03-01", "2024-03-15", support)
	draft := create(ada, "2024-03-05", "2024-04-05", support)

	t.Run("create prices lines from the catalog", func(t *testing.T) {
		assert.Equal(t, invoicing.InvoiceStatusDraft, paid.Status)
		require.Len(t, paid.InvoiceLines, 1)
		assert.True(t, amount("720").Equal(amount(paid.InvoiceLines[0].Price)))
		assert.True(t, amount("120").Equal(amount(paid.InvoiceLines[0].Tax)))
		assert.True(t, amount("720").Equal(paid.TotalAmount))

		got, err := s.invoices.Get(ctx, dueSoon.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Customer)
		assert.Equal(t, "Curie", got.Customer.LastName)
		assert.True(t, amount("88").Equal(got.OutstandingAmount))
	})

	t.Run("an empty dashboard is cached until an invoice is finalized", func(t *testing.T) {
		before, err := s.dashboard.GetDashboardData(ctx, nil)
		require.NoError(t, err)
		assert.True(t, before.CashFlow.TotalIssued.IsZero())

		for _, id := range []int64{paid.ID, overdue.ID, dueSoon.ID} {
			_, err := s.invoices.Finalize(ctx, id)
			require.NoError(t, err)
		}
		_, err = s.invoices.MarkPaid(ctx, paid.ID)
		require.NoError(t, err)

		after, err := s.dashboard.GetDashboardData(ctx, nil)
		require.NoError(t, err)
		assert.False(t, after.CashFlow.TotalIssued.IsZero())
	})

	t.Run("transitions are guarded", func(t *testing.T) {
		_, err := s.invoices.MarkPaid(ctx, draft.ID)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeInvoiceNotFinalized, domainErr.Code)

		_, err = s.invoices.Update(ctx, overdue.ID, appinvoicing.UpdateInvoiceRequest{})
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeInvoiceFinalized, domainErr.Code)
	})

	t.Run("dashboard covers finalized invoices only", func(t *testing.T) {
		data, err := s.dashboard.GetDashboardData(ctx, nil)
		require.NoError(t, err)

		assert.True(t, amount("1528").Equal(data.CashFlow.TotalIssued), data.CashFlow.TotalIssued.String())
		assert.True(t, amount("720").Equal(data.CashFlow.TotalReceived))
		assert.True(t, amount("808").Equal(data.CashFlow.OutstandingReceivables))
		assert.False(t, data.CashFlow.IsAtRisk)

		require.Len(t, data.DeadlineCompliance.Overdue, 1)
		assert.Equal(t, overdue.ID, data.DeadlineCompliance.Overdue[0].ID())
		require.Len(t, data.DeadlineCompliance.DueSoon, 1)
		assert.Equal(t, dueSoon.ID, data.DeadlineCompliance.DueSoon[0].ID())

		require.Len(t, data.ClientReliability.LatePayers, 1)
		assert.Equal(t, grace.ID, data.ClientReliability.LatePayers[0].CustomerID)
		assert.Equal(t, 1, data.ClientReliability.LatePayers[0].LateCount)
		assert.Empty(t, data.ClientReliability.LargeOutstanding)

		assert.Len(t, data.RevenueStructure.ByClient, 3)
		assert.Len(t, data.RevenueStructure.ByProduct, 2)
	})

	t.Run("year filter", func(t *testing.T) {
		year := 2023
		data, err := s.dashboard.GetDashboardData(ctx, &year)
		require.NoError(t, err)
		assert.True(t, data.CashFlow.TotalIssued.IsZero())
		assert.Empty(t, data.DeadlineCompliance.Overdue)
	})

	t.Run("custom deadline horizon", func(t *testing.T) {
		data, err := s.dashboard.GetDeadlineCompliance(ctx, nil, 2)
		require.NoError(t, err)
		assert.Empty(t, data.DueSoon)
		require.Len(t, data.Overdue, 1)
	})

	t.Run("listing filters", func(t *testing.T) {
		finalized := true
		res, err := s.invoices.List(ctx, appinvoicing.InvoiceListFilter{Finalized: &finalized})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.Pagination.Total)

		customerID := ada.ID
		res, err = s.invoices.List(ctx, appinvoicing.InvoiceListFilter{CustomerID: &customerID})
		require.NoError(t, err)
		require.Len(t, res.Invoices, 2)
		assert.Equal(t, draft.ID, res.Invoices[0].ID)
		assert.Equal(t, invoicing.InvoiceStatusPaid, res.Invoices[1].Status)
	})

	t.Run("delete draft", func(t *testing.T) {
		require.NoError(t, s.invoices.Delete(ctx, draft.ID))
		_, err := s.invoices.Get(ctx, draft.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
