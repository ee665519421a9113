// Package report computes the financial dashboard from invoice collections.
package report

import (
	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/report"
	"github.com/shopspring/decimal"
)

// CashFlowCalculator computes issued, received and outstanding totals and DSO
type CashFlowCalculator struct {
	thresholds report.Thresholds
}

// NewCashFlowCalculator creates a new CashFlowCalculator
func NewCashFlowCalculator(thresholds report.Thresholds) *CashFlowCalculator {
	return &CashFlowCalculator{thresholds: thresholds.WithDefaults()}
}

// Execute computes cash flow indicators over the given invoices
func (c *CashFlowCalculator) Execute(invoices []invoicing.InvoiceRecord) (report.CashFlowData, error) {
	entities, err := invoicing.ToEntities(invoices)
	if err != nil {
		return report.CashFlowData{}, err
	}

	issued := decimal.Zero
	received := decimal.Zero
	outstanding := decimal.Zero
	for _, e := range entities {
		total := e.TotalAmount()
		issued = issued.Add(total)
		if e.IsPaid() {
			received = received.Add(total)
		}
		outstanding = outstanding.Add(e.OutstandingAmount())
	}

	dso := decimal.Zero
	if !issued.IsZero() {
		dso = outstanding.Div(issued).Mul(decimal.NewFromInt(int64(c.thresholds.DSOPeriodDays)))
	}

	return report.CashFlowData{
		TotalIssued:            issued,
		TotalReceived:          received,
		OutstandingReceivables: outstanding,
		DSO:                    dso,
		IsAtRisk: dso.GreaterThan(decimal.NewFromInt(int64(c.thresholds.DSORiskDays))) ||
			outstanding.GreaterThan(c.thresholds.OutstandingRiskAmount),
	}, nil
}
