package enums

import "fmt"

// ItemUnit is the unit of measure an item is sold in.
type ItemUnit string

const (
	ItemUnitPiece      ItemUnit = "шт"
	ItemUnitKilogram   ItemUnit = "кг"
	ItemUnitPortion    ItemUnit = "порция"
	ItemUnitLiter      ItemUnit = "литр"
	ItemUnitGram       ItemUnit = "г"
	ItemUnitMilliliter ItemUnit = "мл"
	ItemUnitOther      ItemUnit = "другое"
)

var validItemUnits = []ItemUnit{
	ItemUnitPiece,
	ItemUnitKilogram,
	ItemUnitPortion,
	ItemUnitLiter,
	ItemUnitGram,
	ItemUnitMilliliter,
	ItemUnitOther,
}

// String implements fmt.Stringer.
func (i ItemUnit) String() string {
	return string(i)
}

// IsValid reports whether the value is a known ItemUnit.
func (i ItemUnit) IsValid() bool {
	for _, candidate := range validItemUnits {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseItemUnit converts raw input into a ItemUnit.
func ParseItemUnit(value string) (ItemUnit, error) {
	for _, candidate := range validItemUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item unit %q", value)
}

// Label returns the display label, preferring custom when the unit is "other".
func (i ItemUnit) Label(custom string) string {
	if i == ItemUnitOther && custom != "" {
		return custom
	}
	return string(i)
}
