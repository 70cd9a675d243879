package enums

import "fmt"

// OfferStatus tracks the lifecycle of an offer or surprise box listing.
type OfferStatus string

const (
	OfferStatusAvailable OfferStatus = "available"
	OfferStatusReserved  OfferStatus = "reserved"
	OfferStatusSoldOut   OfferStatus = "sold_out"
	OfferStatusExpired   OfferStatus = "expired"
)

var validOfferStatuses = []OfferStatus{
	OfferStatusAvailable,
	OfferStatusReserved,
	OfferStatusSoldOut,
	OfferStatusExpired,
}

// String implements fmt.Stringer.
func (o OfferStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OfferStatus.
func (o OfferStatus) IsValid() bool {
	for _, candidate := range validOfferStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOfferStatus converts raw input into a OfferStatus.
func ParseOfferStatus(value string) (OfferStatus, error) {
	for _, candidate := range validOfferStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid offer status %q", value)
}
