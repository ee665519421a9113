package valueobject

import (
	"strings"

	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal places used for stored amounts
const AmountScale = 2

// ParseAmount parses a decimal string transported by the API.
// field names the offending attribute in the returned error.
func ParseAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, shared.NewDomainErrorf(shared.CodeInvalidAmount, "%s: invalid decimal amount %q", field, value)
	}
	return d, nil
}

// ParseOptionalAmount parses a nullable decimal string.
// The second return value is false when the amount is absent.
func ParseOptionalAmount(field string, value *string) (decimal.Decimal, bool, error) {
	if value == nil {
		return decimal.Zero, false, nil
	}
	d, err := ParseAmount(field, *value)
	if err != nil {
		return decimal.Zero, false, err
	}
	return d, true, nil
}

// FormatAmount renders an amount as a fixed two-decimal string
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountScale)
}

// FormatAmountPtr renders an amount as a nullable decimal string
func FormatAmountPtr(d decimal.Decimal) *string {
	s := FormatAmount(d)
	return &s
}

// RoundAmount rounds half away from zero to the stored scale
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}
