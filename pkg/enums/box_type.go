package enums

import "fmt"

// BoxType is the theme of a surprise box.
type BoxType string

const (
	BoxTypeMixed     BoxType = "mixed"
	BoxTypeBakery    BoxType = "bakery"
	BoxTypeMeals     BoxType = "meals"
	BoxTypeGroceries BoxType = "groceries"
	BoxTypeDesserts  BoxType = "desserts"
	BoxTypeBeverages BoxType = "beverages"
)

var validBoxTypes = []BoxType{
	BoxTypeMixed,
	BoxTypeBakery,
	BoxTypeMeals,
	BoxTypeGroceries,
	BoxTypeDesserts,
	BoxTypeBeverages,
}

// String implements fmt.Stringer.
func (b BoxType) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BoxType.
func (b BoxType) IsValid() bool {
	for _, candidate := range validBoxTypes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBoxType converts raw input into a BoxType.
func ParseBoxType(value string) (BoxType, error) {
	for _, candidate := range validBoxTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid box type %q", value)
}
