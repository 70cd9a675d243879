package enums

import "fmt"

// VendorType classifies a vendor for catalog filtering.
type VendorType string

const (
	VendorTypeRestaurant VendorType = "restaurant"
	VendorTypeStore      VendorType = "store"
	VendorTypeCafe       VendorType = "cafe"
)

var validVendorTypes = []VendorType{
	VendorTypeRestaurant,
	VendorTypeStore,
	VendorTypeCafe,
}

// String implements fmt.Stringer.
func (v VendorType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VendorType.
func (v VendorType) IsValid() bool {
	for _, candidate := range validVendorTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVendorType converts raw input into a VendorType.
func ParseVendorType(value string) (VendorType, error) {
	for _, candidate := range validVendorTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vendor type %q", value)
}

// VendorTypesForGroup maps the catalog group names used by the storefront
// ("products", "dishes") onto vendor types. Unknown groups return nil.
func VendorTypesForGroup(group string) []VendorType {
	switch group {
	case "products":
		return []VendorType{VendorTypeStore}
	case "dishes":
		return []VendorType{VendorTypeRestaurant, VendorTypeCafe}
	default:
		return nil
	}
}
