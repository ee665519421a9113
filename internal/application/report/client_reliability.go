package report

import (
	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/report"
	"github.com/shopspring/decimal"
)

// ClientReliabilityCalculator finds late payers and customers with large outstanding balances
type ClientReliabilityCalculator struct {
	thresholds report.Thresholds
	clock      report.Clock
}

// NewClientReliabilityCalculator creates a new ClientReliabilityCalculator
func NewClientReliabilityCalculator(thresholds report.Thresholds, clock report.Clock) *ClientReliabilityCalculator {
	if clock == nil {
		clock = report.SystemClock
	}
	return &ClientReliabilityCalculator{thresholds: thresholds.WithDefaults(), clock: clock}
}

type clientStats struct {
	customerID  int64
	name        string
	lateCount   int
	outstanding decimal.Decimal
}

// Execute aggregates per-customer lateness and outstanding amounts.
// Results are listed in order of each customer's first appearance.
func (c *ClientReliabilityCalculator) Execute(invoices []invoicing.InvoiceRecord) (report.ClientReliabilityData, error) {
	entities, err := invoicing.ToEntities(invoices)
	if err != nil {
		return report.ClientReliabilityData{}, err
	}

	now := c.clock()
	stats := make(map[int64]*clientStats)
	order := make([]int64, 0)
	for _, e := range entities {
		customerID, ok := e.CustomerID()
		if !ok {
			continue
		}
		customer, ok := e.Customer()
		if !ok {
			continue
		}

		s, seen := stats[customerID]
		if !seen {
			s = &clientStats{customerID: customerID, name: customer.FullName(), outstanding: decimal.Zero}
			stats[customerID] = s
			order = append(order, customerID)
		}
		if e.IsOverdue(now) {
			s.lateCount++
		}
		s.outstanding = s.outstanding.Add(e.OutstandingAmount())
	}

	data := report.ClientReliabilityData{
		LatePayers:       make([]report.LatePayer, 0),
		LargeOutstanding: make([]report.OutstandingClient, 0),
	}
	for _, id := range order {
		s := stats[id]
		if s.lateCount > 0 {
			data.LatePayers = append(data.LatePayers, report.LatePayer{
				CustomerID: s.customerID,
				Name:       s.name,
				LateCount:  s.lateCount,
			})
		}
		if s.outstanding.GreaterThan(c.thresholds.LargeOutstandingAmount) {
			data.LargeOutstanding = append(data.LargeOutstanding, report.OutstandingClient{
				CustomerID: s.customerID,
				Name:       s.name,
				Amount:     s.outstanding,
			})
		}
	}
	return data, nil
}
