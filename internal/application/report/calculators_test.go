package report

import (
	"testing"
	"time"

	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/report"
	"github.com/invoicedesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func strPtr(s string) *string { return &s }

func int64Ptr(i int64) *int64 { return &i }

func daysFromNow(days int) *string {
	return strPtr(testNow.AddDate(0, 0, days).Format("2006-01-02"))
}

func testCustomer(id int64, first, last string) *invoicing.Customer {
	return &invoicing.Customer{ID: id, FirstName: first, LastName: last}
}

type invoiceOption func(*invoicing.InvoiceRecord)

func withCustomer(c *invoicing.Customer) invoiceOption {
	return func(r *invoicing.InvoiceRecord) {
		r.CustomerID = int64Ptr(c.ID)
		r.Customer = c
	}
}

func withDeadline(days int) invoiceOption {
	return func(r *invoicing.InvoiceRecord) { r.Deadline = daysFromNow(days) }
}

func withLines(lines ...invoicing.InvoiceLine) invoiceOption {
	return func(r *invoicing.InvoiceRecord) { r.InvoiceLines = lines }
}

func draft() invoiceOption {
	return func(r *invoicing.InvoiceRecord) { r.Finalized = false }
}

var nextInvoiceID int64

func newInvoice(paid bool, total string, opts ...invoiceOption) invoicing.InvoiceRecord {
	nextInvoiceID++
	r := invoicing.InvoiceRecord{
		ID:        nextInvoiceID,
		Finalized: true,
		Paid:      paid,
		Date:      strPtr("2024-05-01"),
	}
	if total != "" {
		r.Total = strPtr(total)
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func productLine(productID int64, label string, quantity int, price, tax string, rate valueobject.VatRate) invoicing.InvoiceLine {
	return invoicing.InvoiceLine{
		ProductID: int64Ptr(productID),
		Quantity:  quantity,
		Label:     label,
		Unit:      valueobject.UnitPiece,
		VatRate:   rate,
		Price:     price,
		Tax:       tax,
		Product:   &invoicing.Product{ID: productID, Label: label, VatRate: rate, Unit: valueobject.UnitPiece},
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ============================================
// CashFlowCalculator Tests
// ============================================

func TestCashFlowCalculator_Execute(t *testing.T) {
	calc := NewCashFlowCalculator(report.DefaultThresholds())

	t.Run("empty input is all zero", func(t *testing.T) {
		data, err := calc.Execute(nil)
		require.NoError(t, err)
		assert.True(t, data.TotalIssued.IsZero())
		assert.True(t, data.TotalReceived.IsZero())
		assert.True(t, data.OutstandingReceivables.IsZero())
		assert.True(t, data.DSO.IsZero())
		assert.False(t, data.IsAtRisk)
	})

	t.Run("paid invoices", func(t *testing.T) {
		data, err := calc.Execute([]invoicing.InvoiceRecord{
			newInvoice(true, "1000.00"),
			newInvoice(true, "2000.00"),
		})
		require.NoError(t, err)
		assert.True(t, data.TotalIssued.Equal(dec("3000")))
		assert.True(t, data.TotalReceived.Equal(dec("3000")))
		assert.True(t, data.OutstandingReceivables.IsZero())
		assert.True(t, data.DSO.IsZero())
		assert.False(t, data.IsAtRisk)
	})

	t.Run("unpaid invoices at the DSO boundary are not at risk", func(t *testing.T) {
		data, err := calc.Execute([]invoicing.InvoiceRecord{
			newInvoice(false, "1000.00"),
			newInvoice(false, "2000.00"),
		})
		require.NoError(t, err)
		assert.True(t, data.TotalIssued.Equal(dec("3000")))
		assert.True(t, data.TotalReceived.IsZero())
		assert.True(t, data.OutstandingReceivables.Equal(dec("3000")))
		assert.True(t, data.DSO.Equal(dec("30")))
		assert.False(t, data.IsAtRisk)
	})

	t.Run("large outstanding is at risk", func(t *testing.T) {
		data, err := calc.Execute([]invoicing.InvoiceRecord{newInvoice(false, "15000.00")})
		require.NoError(t, err)
		assert.True(t, data.DSO.Equal(dec("30")))
		assert.True(t, data.IsAtRisk)
	})

	t.Run("DSO above the risk days is at risk", func(t *testing.T) {
		// outstanding reads the header total while issued is recomputed from lines
		invoice := newInvoice(false, "1000.00", withLines(productLine(1, "Audit", 1, "500.00", "0.00", valueobject.VatRate0)))
		data, err := calc.Execute([]invoicing.InvoiceRecord{invoice})
		require.NoError(t, err)
		assert.True(t, data.TotalIssued.Equal(dec("500")))
		assert.True(t, data.OutstandingReceivables.Equal(dec("1000")))
		assert.True(t, data.DSO.Equal(dec("60")))
		assert.True(t, data.IsAtRisk)
	})

	t.Run("mixed paid and unpaid", func(t *testing.T) {
		data, err := calc.Execute([]invoicing.InvoiceRecord{
			newInvoice(true, "3000.00"),
			newInvoice(false, "1000.00"),
		})
		require.NoError(t, err)
		assert.True(t, data.TotalIssued.Equal(dec("4000")))
		assert.True(t, data.TotalReceived.Equal(dec("3000")))
		assert.True(t, data.DSO.Equal(dec("7.5")))
		assert.False(t, data.IsAtRisk)
	})

	t.Run("custom thresholds", func(t *testing.T) {
		thresholds := report.DefaultThresholds()
		thresholds.DSOPeriodDays = 60
		thresholds.OutstandingRiskAmount = dec("500")
		custom := NewCashFlowCalculator(thresholds)

		data, err := custom.Execute([]invoicing.InvoiceRecord{newInvoice(false, "1000.00")})
		require.NoError(t, err)
		assert.True(t, data.DSO.Equal(dec("60")))
		assert.True(t, data.IsAtRisk)
	})

	t.Run("zero risk thresholds flag any outstanding amount", func(t *testing.T) {
		thresholds := report.DefaultThresholds()
		thresholds.DSORiskDays = 0
		thresholds.OutstandingRiskAmount = decimal.Zero
		strict := NewCashFlowCalculator(thresholds)

		data, err := strict.Execute([]invoicing.InvoiceRecord{
			newInvoice(true, "1000.00"),
			newInvoice(false, "0.01"),
		})
		require.NoError(t, err)
		assert.True(t, data.IsAtRisk)

		data, err = strict.Execute([]invoicing.InvoiceRecord{newInvoice(true, "1000.00")})
		require.NoError(t, err)
		assert.False(t, data.IsAtRisk)
	})

	t.Run("malformed amount is reported", func(t *testing.T) {
		_, err := calc.Execute([]invoicing.InvoiceRecord{newInvoice(false, "abc")})
		assert.Error(t, err)
	})

	t.Run("idempotent", func(t *testing.T) {
		input := []invoicing.InvoiceRecord{newInvoice(false, "1234.56"), newInvoice(true, "99.99")}
		first, err := calc.Execute(input)
		require.NoError(t, err)
		second, err := calc.Execute(input)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

// ============================================
// DeadlineComplianceCalculator Tests
// ============================================

func TestDeadlineComplianceCalculator_Execute(t *testing.T) {
	calc := NewDeadlineComplianceCalculator(report.DefaultThresholds(), fixedClock)

	t.Run("empty input", func(t *testing.T) {
		data, err := calc.Execute([]invoicing.InvoiceRecord{}, 7)
		require.NoError(t, err)
		assert.Empty(t, data.DueSoon)
		assert.Empty(t, data.Overdue)
		assert.NotNil(t, data.DueSoon)
		assert.NotNil(t, data.Overdue)
	})

	t.Run("paid and deadline-less invoices are skipped", func(t *testing.T) {
		data, err := calc.Execute([]invoicing.InvoiceRecord{
			newInvoice(true, "100.00", withDeadline(-5)),
			newInvoice(true, "100.00", withDeadline(2)),
			newInvoice(false, "100.00"),
		}, 7)
		require.NoError(t, err)
		assert.Empty(t, data.DueSoon)
		assert.Empty(t, data.Overdue)
	})

	t.Run("buckets keep input order", func(t *testing.T) {
		overdueA := newInvoice(false, "100.00", withDeadline(-1))
		dueSoonA := newInvoice(false, "100.00", withDeadline(3))
		overdueB := newInvoice(false, "100.00", withDeadline(-20))
		dueSoonB := newInvoice(false, "100.00", withDeadline(1))
		later := newInvoice(false, "100.00", withDeadline(20))

		data, err := calc.Execute([]invoicing.InvoiceRecord{overdueA, dueSoonA, overdueB, later, dueSoonB}, 7)
		require.NoError(t, err)
		require.Len(t, data.Overdue, 2)
		require.Len(t, data.DueSoon, 2)
		assert.Equal(t, overdueA.ID, data.Overdue[0].ID())
		assert.Equal(t, overdueB.ID, data.Overdue[1].ID())
		assert.Equal(t, dueSoonA.ID, data.DueSoon[0].ID())
		assert.Equal(t, dueSoonB.ID, data.DueSoon[1].ID())
	})

	t.Run("horizon widens the due soon bucket", func(t *testing.T) {
		input := []invoicing.InvoiceRecord{
			newInvoice(false, "100.00", withDeadline(5)),
			newInvoice(false, "100.00", withDeadline(12)),
			newInvoice(false, "100.00", withDeadline(25)),
		}
		tests := []struct {
			horizon int
			want    int
		}{
			{7, 1},
			{15, 2},
			{30, 3},
			{0, 1}, // default horizon
		}
		for _, tt := range tests {
			data, err := calc.Execute(input, tt.horizon)
			require.NoError(t, err)
			assert.Len(t, data.DueSoon, tt.want, "horizon %d", tt.horizon)
			assert.Empty(t, data.Overdue)
		}
	})

	t.Run("malformed deadline is reported", func(t *testing.T) {
		bad := newInvoice(false, "100.00")
		bad.Deadline = strPtr("next week")
		_, err := calc.Execute([]invoicing.InvoiceRecord{bad}, 7)
		assert.Error(t, err)
	})
}

// ============================================
// ClientReliabilityCalculator Tests
// ============================================

func TestClientReliabilityCalculator_Execute(t *testing.T) {
	calc := NewClientReliabilityCalculator(report.DefaultThresholds(), fixedClock)
	alice := testCustomer(1, "Alice", "Martin")
	bob := testCustomer(2, "Bob", "Durand")

	t.Run("empty input", func(t *testing.T) {
		data, err := calc.Execute(nil)
		require.NoError(t, err)
		assert.Empty(t, data.LatePayers)
		assert.Empty(t, data.LargeOutstanding)
	})

	t.Run("late payers below the outstanding threshold", func(t *testing.T) {
		data, err := calc.Execute([]invoicing.InvoiceRecord{
			newInvoice(false, "1000.00", withCustomer(alice), withDeadline(-10)),
			newInvoice(false, "2000.00", withCustomer(alice), withDeadline(-3)),
			newInvoice(true, "700.00", withCustomer(alice), withDeadline(-30)),
			newInvoice(false, "500.00", withCustomer(bob), withDeadline(10)),
		})
		require.NoError(t, err)
		assert.Equal(t, []report.LatePayer{{CustomerID: 1, Name: "Alice Martin", LateCount: 2}}, data.LatePayers)
		assert.Empty(t, data.LargeOutstanding)
	})

	t.Run("large outstanding accumulates per customer", func(t *testing.T) {
		data, err := calc.Execute([]invoicing.InvoiceRecord{
			newInvoice(false, "3000.00", withCustomer(bob), withDeadline(10)),
			newInvoice(false, "3000.00", withCustomer(bob)),
			newInvoice(false, "5000.00", withCustomer(alice)),
		})
		require.NoError(t, err)
		assert.Empty(t, data.LatePayers)
		require.Len(t, data.LargeOutstanding, 1)
		assert.Equal(t, int64(2), data.LargeOutstanding[0].CustomerID)
		assert.Equal(t, "Bob Durand", data.LargeOutstanding[0].Name)
		assert.True(t, data.LargeOutstanding[0].Amount.Equal(dec("6000")))
	})

	t.Run("invoices without customer are skipped", func(t *testing.T) {
		noNested := newInvoice(false, "9000.00", withDeadline(-5))
		noNested.CustomerID = int64Ptr(3)
		data, err := calc.Execute([]invoicing.InvoiceRecord{
			newInvoice(false, "9000.00", withDeadline(-5)),
			noNested,
		})
		require.NoError(t, err)
		assert.Empty(t, data.LatePayers)
		assert.Empty(t, data.LargeOutstanding)
	})

	t.Run("zero threshold lists every customer with outstanding", func(t *testing.T) {
		thresholds := report.DefaultThresholds()
		thresholds.LargeOutstandingAmount = decimal.Zero
		strict := NewClientReliabilityCalculator(thresholds, fixedClock)

		data, err := strict.Execute([]invoicing.InvoiceRecord{
			newInvoice(false, "10.00", withCustomer(alice)),
			newInvoice(true, "500.00", withCustomer(bob)),
		})
		require.NoError(t, err)
		require.Len(t, data.LargeOutstanding, 1)
		assert.Equal(t, int64(1), data.LargeOutstanding[0].CustomerID)
	})

	t.Run("custom threshold", func(t *testing.T) {
		thresholds := report.DefaultThresholds()
		thresholds.LargeOutstandingAmount = dec("2000")
		custom := NewClientReliabilityCalculator(thresholds, fixedClock)

		data, err := custom.Execute([]invoicing.InvoiceRecord{
			newInvoice(false, "1000.00", withCustomer(alice)),
			newInvoice(false, "2000.00", withCustomer(alice)),
			newInvoice(false, "2000.00", withCustomer(bob)),
		})
		require.NoError(t, err)
		require.Len(t, data.LargeOutstanding, 1)
		assert.Equal(t, int64(1), data.LargeOutstanding[0].CustomerID)
		assert.True(t, data.LargeOutstanding[0].Amount.Equal(dec("3000")))
	})
}

// ============================================
// RevenueStructureCalculator Tests
// ============================================

func TestRevenueStructureCalculator_Execute(t *testing.T) {
	calc := NewRevenueStructureCalculator(report.DefaultThresholds())
	alice := testCustomer(1, "Alice", "Martin")

	t.Run("draft invoices contribute nothing", func(t *testing.T) {
		data, err := calc.Execute([]invoicing.InvoiceRecord{
			newInvoice(false, "120.00", draft(), withCustomer(alice),
				withLines(productLine(10, "Consulting", 1, "120.00", "20.00", valueobject.VatRate20))),
		})
		require.NoError(t, err)
		assert.Empty(t, data.ByClient)
		assert.Empty(t, data.ByProduct)
		assert.Empty(t, data.ByVatRate)
	})

	t.Run("invoice without customer still feeds products and VAT rates", func(t *testing.T) {
		data, err := calc.Execute([]invoicing.InvoiceRecord{
			newInvoice(false, "240.00",
				withLines(productLine(10, "Consulting", 2, "120.00", "20.00", valueobject.VatRate20))),
		})
		require.NoError(t, err)
		assert.Empty(t, data.ByClient)
		require.Len(t, data.ByProduct, 1)
		assert.True(t, data.ByProduct[0].Revenue.Equal(dec("240")))
		require.Len(t, data.ByVatRate, 1)
		assert.Equal(t, valueobject.VatRate20, data.ByVatRate[0].VatRate)
		assert.True(t, data.ByVatRate[0].Revenue.Equal(dec("20")))
	})

	t.Run("aggregates by client, product and VAT rate", func(t *testing.T) {
		freeLine := invoicing.InvoiceLine{Quantity: 1, Label: "Misc", Price: "10.00", Tax: "0.00"}
		data, err := calc.Execute([]invoicing.InvoiceRecord{
			newInvoice(true, "", withCustomer(alice), withLines(
				productLine(10, "Consulting", 1, "120.00", "20.00", valueobject.VatRate20),
				productLine(11, "Books", 3, "10.55", "0.55", valueobject.VatRate5_5),
			)),
			newInvoice(false, "", withCustomer(alice), withLines(
				productLine(10, "Consulting", 2, "120.00", "20.00", valueobject.VatRate20),
				freeLine,
			)),
		})
		require.NoError(t, err)

		require.Len(t, data.ByClient, 1)
		assert.Equal(t, int64(1), data.ByClient[0].ClientID)
		assert.Equal(t, "Alice Martin", data.ByClient[0].Name)
		// invoice 1: (100 + 10) + (20 + 0.55*3); invoice 2: (100 + 10) + (20*2 + 0)
		assert.True(t, data.ByClient[0].Revenue.Equal(dec("281.65")), data.ByClient[0].Revenue.String())

		require.Len(t, data.ByProduct, 2)
		assert.Equal(t, int64(10), data.ByProduct[0].ProductID)
		assert.Equal(t, "Consulting", data.ByProduct[0].Label)
		assert.True(t, data.ByProduct[0].Revenue.Equal(dec("360")))
		assert.True(t, data.ByProduct[1].Revenue.Equal(dec("31.65")))

		require.Len(t, data.ByVatRate, 3)
		assert.Equal(t, valueobject.VatRate20, data.ByVatRate[0].VatRate)
		assert.True(t, data.ByVatRate[0].Revenue.Equal(dec("40")))
		assert.Equal(t, valueobject.VatRate5_5, data.ByVatRate[1].VatRate)
		assert.True(t, data.ByVatRate[1].Revenue.Equal(dec("0.55")))
		assert.Equal(t, valueobject.VatRate0, data.ByVatRate[2].VatRate)
		assert.True(t, data.ByVatRate[2].Revenue.IsZero())
	})

	t.Run("idempotent", func(t *testing.T) {
		input := []invoicing.InvoiceRecord{
			newInvoice(false, "", withCustomer(alice), withLines(
				productLine(10, "Consulting", 1, "120.00", "20.00", valueobject.VatRate20))),
		}
		first, err := calc.Execute(input)
		require.NoError(t, err)
		second, err := calc.Execute(input)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
