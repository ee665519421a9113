package invoicing

import (
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/invoicedesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// LineSpec describes a line to be priced from a catalog product.
// Empty Label, Unit and VatRate fall back to the product's values.
type LineSpec struct {
	ProductID int64
	Quantity  int
	Label     string
	Unit      valueobject.Unit
	VatRate   valueobject.VatRate
}

// PriceLine builds an invoice line from a product.
//
//	tax   = unit price without tax * rate * quantity, rounded to cents
//	price = unit price without tax * quantity + tax
func PriceLine(product Product, spec LineSpec) (InvoiceLine, error) {
	if spec.Quantity < 1 {
		return InvoiceLine{}, shared.NewDomainErrorf(shared.CodeInvalidQuantity, "quantity must be at least 1, got %d", spec.Quantity)
	}

	unit := spec.Unit
	if unit == "" {
		unit = product.Unit
	}
	if !unit.IsValid() {
		return InvoiceLine{}, shared.NewDomainErrorf(shared.CodeInvalidUnit, "unit must be one of hour, day, piece, got %q", unit)
	}

	rate := spec.VatRate
	if rate == "" {
		rate = product.VatRate.OrDefault()
	}
	if !rate.IsValid() {
		return InvoiceLine{}, shared.NewDomainErrorf(shared.CodeInvalidVatRate, "vat rate must be one of 0, 5.5, 10, 20, got %q", rate)
	}

	unitPrice, err := valueobject.ParseAmount("product unit_price_without_tax", product.UnitPriceWithoutTax)
	if err != nil {
		return InvoiceLine{}, err
	}

	qty := decimal.NewFromInt(int64(spec.Quantity))
	net := unitPrice.Mul(qty)
	tax := valueobject.RoundAmount(net.Mul(rate.Fraction()))
	price := valueobject.RoundAmount(net.Add(tax))

	label := spec.Label
	if label == "" {
		label = product.Label
	}

	productID := product.ID
	p := product
	return InvoiceLine{
		ProductID: &productID,
		Quantity:  spec.Quantity,
		Label:     label,
		Unit:      unit,
		VatRate:   rate,
		Price:     valueobject.FormatAmount(price),
		Tax:       valueobject.FormatAmount(tax),
		Product:   &p,
	}, nil
}

// ApplyHeaderTotals sets the header total and tax to the sums of the line prices and taxes
func ApplyHeaderTotals(record *InvoiceRecord) error {
	total := decimal.Zero
	tax := decimal.Zero
	for _, line := range record.InvoiceLines {
		price, err := valueobject.ParseAmount("line price", line.Price)
		if err != nil {
			return err
		}
		lineTax, err := valueobject.ParseAmount("line tax", line.Tax)
		if err != nil {
			return err
		}
		total = total.Add(price)
		tax = tax.Add(lineTax)
	}
	record.Total = valueobject.FormatAmountPtr(total)
	record.Tax = valueobject.FormatAmountPtr(tax)
	return nil
}

// ValidateDates checks that date and deadline are ISO dates and the deadline is not before the date
func ValidateDates(date, deadline *string) error {
	if date == nil {
		return shared.NewDomainError(shared.CodeInvalidDate, "date is required")
	}
	d, err := ParseDate("date", *date)
	if err != nil {
		return err
	}
	if deadline == nil {
		return nil
	}
	dl, err := ParseDate("deadline", *deadline)
	if err != nil {
		return err
	}
	if dl.Before(d) {
		return shared.NewDomainError(shared.CodeInvalidDate, "deadline must not be before date")
	}
	return nil
}
