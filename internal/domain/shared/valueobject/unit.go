package valueobject

import "github.com/invoicedesk/backend/internal/domain/shared"

// Unit is the billing unit of an invoice line
type Unit string

const (
	UnitHour  Unit = "hour"
	UnitDay   Unit = "day"
	UnitPiece Unit = "piece"
)

// AllUnits lists every accepted unit
var AllUnits = []Unit{UnitHour, UnitDay, UnitPiece}

// IsValid checks if the unit is one of the accepted values
func (u Unit) IsValid() bool {
	switch u {
	case UnitHour, UnitDay, UnitPiece:
		return true
	}
	return false
}

// String returns the string representation of Unit
func (u Unit) String() string {
	return string(u)
}

// ParseUnit validates a unit string
func ParseUnit(s string) (Unit, error) {
	u := Unit(s)
	if !u.IsValid() {
		return "", shared.NewDomainErrorf(shared.CodeInvalidUnit, "unit must be one of hour, day, piece, got %q", s)
	}
	return u, nil
}
