package enums

import "fmt"

// ProductUnit is the selling unit of a listing.
type ProductUnit string

const (
	UnitPiece   ProductUnit = "Piece"
	UnitKg      ProductUnit = "Kg"
	UnitTray    ProductUnit = "Tray"
	UnitHalf    ProductUnit = "Half"
	UnitQuarter ProductUnit = "Quarter"
)

var validProductUnits = []ProductUnit{
	UnitPiece,
	UnitKg,
	UnitTray,
	UnitHalf,
	UnitQuarter,
}

// String implements fmt.Stringer.
func (v ProductUnit) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ProductUnit.
func (v ProductUnit) IsValid() bool {
	for _, candidate := range validProductUnits {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseProductUnit converts raw input into a ProductUnit.
func ParseProductUnit(value string) (ProductUnit, error) {
	for _, candidate := range validProductUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product unit %q", value)
}
