package report

import (
	"github.com/invoicedesk/backend/internal/domain/invoicing"
	"github.com/invoicedesk/backend/internal/domain/report"
	"github.com/invoicedesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// RevenueStructureCalculator breaks finalized revenue down by client, product and VAT rate
type RevenueStructureCalculator struct {
	thresholds report.Thresholds
}

// NewRevenueStructureCalculator creates a new RevenueStructureCalculator
func NewRevenueStructureCalculator(thresholds report.Thresholds) *RevenueStructureCalculator {
	return &RevenueStructureCalculator{thresholds: thresholds.WithDefaults()}
}

// Execute aggregates revenue of finalized invoices.
// Each breakdown lists keys in order of first appearance.
func (c *RevenueStructureCalculator) Execute(invoices []invoicing.InvoiceRecord) (report.RevenueStructureData, error) {
	entities, err := invoicing.ToEntities(invoices)
	if err != nil {
		return report.RevenueStructureData{}, err
	}

	byClient := newOrderedSums[int64]()
	clientNames := make(map[int64]string)
	byProduct := newOrderedSums[int64]()
	productLabels := make(map[int64]string)
	byVatRate := newOrderedSums[valueobject.VatRate]()

	for _, e := range entities {
		if !e.IsFinalized() {
			continue
		}

		if customerID, ok := e.CustomerID(); ok {
			if customer, ok := e.Customer(); ok {
				byClient.add(customerID, e.TotalAmount())
				clientNames[customerID] = customer.FullName()
			}
		}

		for _, line := range e.Lines() {
			if line.ProductID != nil && line.Product != nil {
				price, err := valueobject.ParseAmount("line price", line.Price)
				if err != nil {
					return report.RevenueStructureData{}, err
				}
				byProduct.add(*line.ProductID, price.Mul(decimal.NewFromInt(int64(line.Quantity))))
				productLabels[*line.ProductID] = line.Product.Label
			}

			tax, err := valueobject.ParseAmount("line tax", line.Tax)
			if err != nil {
				return report.RevenueStructureData{}, err
			}
			byVatRate.add(line.VatRate.OrDefault(), tax)
		}
	}

	data := report.RevenueStructureData{
		ByClient:  make([]report.ClientRevenue, 0, len(byClient.keys)),
		ByProduct: make([]report.ProductRevenue, 0, len(byProduct.keys)),
		ByVatRate: make([]report.VatRateRevenue, 0, len(byVatRate.keys)),
	}
	for _, id := range byClient.keys {
		data.ByClient = append(data.ByClient, report.ClientRevenue{
			ClientID: id,
			Name:     clientNames[id],
			Revenue:  byClient.sums[id],
		})
	}
	for _, id := range byProduct.keys {
		data.ByProduct = append(data.ByProduct, report.ProductRevenue{
			ProductID: id,
			Label:     productLabels[id],
			Revenue:   byProduct.sums[id],
		})
	}
	for _, rate := range byVatRate.keys {
		data.ByVatRate = append(data.ByVatRate, report.VatRateRevenue{
			VatRate: rate,
			Revenue: byVatRate.sums[rate],
		})
	}
	return data, nil
}

// orderedSums accumulates decimals per key, remembering first-seen order
type orderedSums[K comparable] struct {
	keys []K
	sums map[K]decimal.Decimal
}

func newOrderedSums[K comparable]() *orderedSums[K] {
	return &orderedSums[K]{sums: make(map[K]decimal.Decimal)}
}

func (o *orderedSums[K]) add(key K, amount decimal.Decimal) {
	current, ok := o.sums[key]
	if !ok {
		o.keys = append(o.keys, key)
		current = decimal.Zero
	}
	o.sums[key] = current.Add(amount)
}
