// Package report contains the read models of the financial dashboard
// and the thresholds that drive its risk indicators.
package report

import (
	"time"

	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CashFlowData summarizes issued, received and outstanding amounts
type CashFlowData struct {
	TotalIssued            decimal.Decimal `json:"total_issued"`
	TotalReceived          decimal.Decimal `json:"total_received"`
	OutstandingReceivables decimal.Decimal `json:"outstanding_receivables"`
	DSO                    decimal.Decimal `json:"dso"` // Days sales outstanding
	IsAtRisk               bool            `json:"is_at_risk"`
}

// DeadlineData buckets unpaid invoices by deadline.
// Both buckets keep the order of the input collection.
type DeadlineData struct {
	DueSoon []*invoicing.InvoiceEntity `json:"due_soon"`
	Overdue []*invoicing.InvoiceEntity `json:"overdue"`
}

// LatePayer is a customer with at least one overdue invoice
type LatePayer struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	LateCount  int    `json:"late_count"`
}

// OutstandingClient is a customer whose unpaid total crosses the large-outstanding threshold
type OutstandingClient struct {
	CustomerID int64           `json:"customer_id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
}

// ClientReliabilityData lists late payers and customers with large outstanding balances
type ClientReliabilityData struct {
	LatePayers       []LatePayer         `json:"late_payers"`
	LargeOutstanding []OutstandingClient `json:"large_outstanding"`
}

// ClientRevenue is revenue attributed to one customer
type ClientRevenue struct {
	ClientID int64           `json:"client_id"`
	Name     string          `json:"name"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// ProductRevenue is revenue attributed to one product
type ProductRevenue struct {
	ProductID int64           `json:"product_id"`
	Label     string          `json:"label"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// VatRateRevenue is the tax collected under one VAT rate
type VatRateRevenue struct {
	VatRate valueobject.VatRate `json:"vat_rate"`
	Revenue decimal.Decimal     `json:"revenue"`
}

// RevenueStructureData breaks finalized revenue down by client, product and VAT rate
type RevenueStructureData struct {
	ByClient  []ClientRevenue  `json:"by_client"`
	ByProduct []ProductRevenue `json:"by_product"`
	ByVatRate []VatRateRevenue `json:"by_vat_rate"`
}

// DashboardData is a snapshot of all dashboard indicators
type DashboardData struct {
	CashFlow           CashFlowData          `json:"cash_flow"`
	DeadlineCompliance DeadlineData          `json:"deadline_compliance"`
	ClientReliability  ClientReliabilityData `json:"client_reliability"`
	RevenueStructure   RevenueStructureData  `json:"revenue_structure"`
	GeneratedAt        time.Time             `json:"generated_at"`
}

// Clone returns a copy whose slices can be modified independently.
// Invoice entities are immutable and stay shared.
func (d *DashboardData) Clone() *DashboardData {
	if d == nil {
		return nil
	}
	c := *d
	c.DeadlineCompliance.DueSoon = cloneSlice(d.DeadlineCompliance.DueSoon)
	c.DeadlineCompliance.Overdue = cloneSlice(d.DeadlineCompliance.Overdue)
	c.ClientReliability.LatePayers = cloneSlice(d.ClientReliability.LatePayers)
	c.ClientReliability.LargeOutstanding = cloneSlice(d.ClientReliability.LargeOutstanding)
	c.RevenueStructure.ByClient = cloneSlice(d.RevenueStructure.ByClient)
	c.RevenueStructure.ByProduct = cloneSlice(d.RevenueStructure.ByProduct)
	c.RevenueStructure.ByVatRate = cloneSlice(d.RevenueStructure.ByVatRate)
	return &c
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// Thresholds configures the dashboard indicators.
// Start from DefaultThresholds and override fields. The risk thresholds are used
// as given, so zero means any positive value crosses them.
type Thresholds struct {
	DSOPeriodDays          int             // Period used to scale DSO; zero means the default
	DSORiskDays            int             // DSO strictly above this is at risk
	OutstandingRiskAmount  decimal.Decimal // Outstanding strictly above this is at risk
	LargeOutstandingAmount decimal.Decimal // Per-customer outstanding strictly above this is large
	DueSoonHorizonDays     int             // Zero means the default
	DashboardPageSize      int             // Zero means the default
}

// DefaultThresholds returns the standard dashboard thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		DSOPeriodDays:          30,
		DSORiskDays:            30,
		OutstandingRiskAmount:  decimal.NewFromInt(10000),
		LargeOutstandingAmount: decimal.NewFromInt(5000),
		DueSoonHorizonDays:     7,
		DashboardPageSize:      50,
	}
}

// WithDefaults fills the fields that have no meaning at zero or below
func (t Thresholds) WithDefaults() Thresholds {
	d := DefaultThresholds()
	if t.DSOPeriodDays <= 0 {
		t.DSOPeriodDays = d.DSOPeriodDays
	}
	if t.DueSoonHorizonDays <= 0 {
		t.DueSoonHorizonDays = d.DueSoonHorizonDays
	}
	if t.DashboardPageSize <= 0 {
		t.DashboardPageSize = d.DashboardPageSize
	}
	return t
}

// Clock returns the reference time for date-dependent indicators
type Clock func() time.Time

// SystemClock returns the current time
func SystemClock() time.Time {
	return time.Now()
}
