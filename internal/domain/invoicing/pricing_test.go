package invoicing

import (
	"errors"
	"testing"

	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/invoicedesk/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct() Product {
	return Product{
		ID:                  7,
		Label:               "Consulting day",
		VatRate:             valueobject.VatRate20,
		Unit:                valueobject.UnitDay,
		UnitPrice:           "600.00",
		UnitPriceWithoutTax: "500.00",
		UnitTax:             "100.00",
	}
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %v", err)
	assert.Equal(t, code, domainErr.Code)
}

func TestPriceLine(t *testing.T) {
	t.Run("defaults from product", func(t *testing.T) {
		line, err := PriceLine(testProduct(), LineSpec{ProductID: 7, Quantity: 3})
		require.NoError(t, err)
		assert.Equal(t, "Consulting day", line.Label)
		assert.Equal(t, valueobject.UnitDay, line.Unit)
		assert.Equal(t, valueobject.VatRate20, line.VatRate)
		assert.Equal(t, "300.00", line.Tax)
		assert.Equal(t, "1800.00", line.Price)
		require.NotNil(t, line.ProductID)
		assert.Equal(t, int64(7), *line.ProductID)
		require.NotNil(t, line.Product)
		assert.Equal(t, "Consulting day", line.Product.Label)
	})

	t.Run("overrides and rounding", func(t *testing.T) {
		product := testProduct()
		product.UnitPriceWithoutTax = "9.99"
		line, err := PriceLine(product, LineSpec{
			ProductID: 7,
			Quantity:  3,
			Label:     "Books",
			Unit:      valueobject.UnitPiece,
			VatRate:   valueobject.VatRate5_5,
		})
		require.NoError(t, err)
		// 29.97 * 0.055 = 1.64835
		assert.Equal(t, "1.65", line.Tax)
		assert.Equal(t, "31.62", line.Price)
		assert.Equal(t, "Books", line.Label)
	})

	t.Run("product without rate defaults to zero", func(t *testing.T) {
		product := testProduct()
		product.VatRate = ""
		line, err := PriceLine(product, LineSpec{ProductID: 7, Quantity: 1})
		require.NoError(t, err)
		assert.Equal(t, valueobject.VatRate0, line.VatRate)
		assert.Equal(t, "0.00", line.Tax)
		assert.Equal(t, "500.00", line.Price)
	})

	tests := []struct {
		name string
		spec LineSpec
		code string
	}{
		{"zero quantity", LineSpec{Quantity: 0}, shared.CodeInvalidQuantity},
		{"bad unit", LineSpec{Quantity: 1, Unit: "week"}, shared.CodeInvalidUnit},
		{"bad rate", LineSpec{Quantity: 1, VatRate: "19.6"}, shared.CodeInvalidVatRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PriceLine(testProduct(), tt.spec)
			requireDomainCode(t, err, tt.code)
		})
	}
}

func TestApplyHeaderTotals(t *testing.T) {
	record := InvoiceRecord{InvoiceLines: []InvoiceLine{
		{Price: "1800.00", Tax: "300.00"},
		{Price: "31.62", Tax: "1.65"},
	}}
	require.NoError(t, ApplyHeaderTotals(&record))
	assert.Equal(t, "1831.62", *record.Total)
	assert.Equal(t, "301.65", *record.Tax)

	empty := InvoiceRecord{}
	require.NoError(t, ApplyHeaderTotals(&empty))
	assert.Equal(t, "0.00", *empty.Total)

	bad := InvoiceRecord{InvoiceLines: []InvoiceLine{{Price: "x", Tax: "0"}}}
	assert.Error(t, ApplyHeaderTotals(&bad))
}

func TestValidateDates(t *testing.T) {
	tests := []struct {
		name     string
		date     *string
		deadline *string
		wantErr  bool
	}{
		{"date only", strPtr("2024-01-01"), nil, false},
		{"deadline after date", strPtr("2024-01-01"), strPtr("2024-01-31"), false},
		{"same day", strPtr("2024-01-01"), strPtr("2024-01-01"), false},
		{"deadline before date", strPtr("2024-01-31"), strPtr("2024-01-01"), true},
		{"missing date", nil, nil, true},
		{"malformed date", strPtr("01/01/2024"), nil, true},
		{"malformed deadline", strPtr("2024-01-01"), strPtr("soon"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDates(tt.date, tt.deadline)
			if tt.wantErr {
				requireDomainCode(t, err, shared.CodeInvalidDate)
				return
			}
			assert.NoError(t, err)
		})
	}
}
