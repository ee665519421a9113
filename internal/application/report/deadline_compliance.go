package report

import (
	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/report"
)

// DeadlineComplianceCalculator buckets unpaid invoices into due soon and overdue
type DeadlineComplianceCalculator struct {
	thresholds report.Thresholds
	clock      report.Clock
}

// NewDeadlineComplianceCalculator creates a new DeadlineComplianceCalculator
func NewDeadlineComplianceCalculator(thresholds report.Thresholds, clock report.Clock) *DeadlineComplianceCalculator {
	if clock == nil {
		clock = report.SystemClock
	}
	return &DeadlineComplianceCalculator{thresholds: thresholds.WithDefaults(), clock: clock}
}

// Execute classifies invoices against now. A non-positive horizon uses the configured default.
func (c *DeadlineComplianceCalculator) Execute(invoices []invoicing.InvoiceRecord, horizonDays int) (report.DeadlineData, error) {
	if horizonDays <= 0 {
		horizonDays = c.thresholds.DueSoonHorizonDays
	}

	entities, err := invoicing.ToEntities(invoices)
	if err != nil {
		return report.DeadlineData{}, err
	}

	now := c.clock()
	data := report.DeadlineData{
		DueSoon: make([]*invoicing.InvoiceEntity, 0),
		Overdue: make([]*invoicing.InvoiceEntity, 0),
	}
	for _, e := range entities {
		if e.IsPaid() {
			continue
		}
		if _, ok := e.Deadline(); !ok {
			continue
		}
		switch {
		case e.IsOverdue(now):
			data.Overdue = append(data.Overdue, e)
		case e.IsDueSoon(now, horizonDays):
			data.DueSoon = append(data.DueSoon, e)
		}
	}
	return data, nil
}
