package valueobject

import (
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// VatRate is a VAT percentage carried as its decimal string form
type VatRate string

const (
	VatRate0   VatRate = "0"
	VatRate5_5 VatRate = "5.5"
	VatRate10  VatRate = "10"
	VatRate20  VatRate = "20"
)

// DefaultVatRate is used for lines that carry no rate
const DefaultVatRate = VatRate0

// AllVatRates lists every accepted rate
var AllVatRates = []VatRate{VatRate0, VatRate5_5, VatRate10, VatRate20}

// IsValid checks if the rate is one of the accepted values
func (r VatRate) IsValid() bool {
	switch r {
	case VatRate0, VatRate5_5, VatRate10, VatRate20:
		return true
	}
	return false
}

// String returns the string representation of VatRate
func (r VatRate) String() string {
	return string(r)
}

// OrDefault returns the default rate when r is empty
func (r VatRate) OrDefault() VatRate {
	if r == "" {
		return DefaultVatRate
	}
	return r
}

// Fraction returns the rate as a fraction (20 -> 0.2)
func (r VatRate) Fraction() decimal.Decimal {
	d, err := decimal.NewFromString(string(r.OrDefault()))
	if err != nil {
		return decimal.Zero
	}
	return d.Div(decimal.NewFromInt(100))
}

// ParseVatRate validates a VAT rate string
func ParseVatRate(s string) (VatRate, error) {
	r := VatRate(s)
	if !r.IsValid() {
		return "", shared.NewDomainErrorf(shared.CodeInvalidVatRate, "vat rate must be one of 0, 5.5, 10, 20, got %q", s)
	}
	return r, nil
}
