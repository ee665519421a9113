package invoicing

import (
	"context"
	"errors"
	"testing"

	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_SearchCustomers(t *testing.T) {
	ctx := context.Background()

	t.Run("trims the query and paginates", func(t *testing.T) {
		customers := new(MockCustomerRepository)
		service := NewCatalogService(customers, new(MockProductRepository))
		customers.On("Search", ctx, "ada", 1, 20).Return([]invoicing.Customer{*testCustomer()}, int64(21), nil)

		resp, err := service.SearchCustomers(ctx, "  ada ", 0, 0)
		require.NoError(t, err)
		assert.Len(t, resp.Customers, 1)
		assert.Equal(t, int64(21), resp.Pagination.Total)
		assert.Equal(t, 2, resp.Pagination.TotalPages)
	})

	t.Run("empty result is an empty list", func(t *testing.T) {
		customers := new(MockCustomerRepository)
		service := NewCatalogService(customers, new(MockProductRepository))
		customers.On("Search", ctx, "zzz", 1, 20).Return(nil, int64(0), nil)

		resp, err := service.SearchCustomers(ctx, "zzz", 1, 20)
		require.NoError(t, err)
		assert.NotNil(t, resp.Customers)
		assert.Empty(t, resp.Customers)
	})

	t.Run("repository error", func(t *testing.T) {
		customers := new(MockCustomerRepository)
		service := NewCatalogService(customers, new(MockProductRepository))
		dbErr := errors.New("timeout")
		customers.On("Search", ctx, "a", 1, 20).Return(nil, int64(0), dbErr)

		_, err := service.SearchCustomers(ctx, "a", 1, 20)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestCatalogService_SearchProducts(t *testing.T) {
	ctx := context.Background()
	products := new(MockProductRepository)
	service := NewCatalogService(new(MockCustomerRepository), products)

	list := []invoicing.Product{testProducts()[1], testProducts()[2]}
	products.On("Search", ctx, "o", 3, 100).Return(list, int64(250), nil)

	resp, err := service.SearchProducts(ctx, "o", 3, 1000)
	require.NoError(t, err)
	assert.Len(t, resp.Products, 2)
	assert.Equal(t, 3, resp.Pagination.Page)
	assert.Equal(t, 100, resp.Pagination.PageSize)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
}
