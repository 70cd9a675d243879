package models

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/surprisebag-backend/pkg/availability"
	"github.com/angelmondragon/surprisebag-backend/pkg/clock"
	"github.com/angelmondragon/surprisebag-backend/pkg/pricing"
	"github.com/angelmondragon/surprisebag-backend/pkg/schedule"
)

// Rules projects the item onto the availability predicates.
func (i Item) Rules() availability.Item {
	out := availability.Item{Active: i.IsActive}
	if i.ExpiryDate != nil {
		d := clock.DateOf(*i.ExpiryDate)
		out.ExpiryDate = &d
	}
	return out
}

// Rules projects the offer onto the availability predicates.
func (o Offer) Rules() availability.Offer {
	out := availability.Offer{
		Active:    o.IsActive,
		Status:    o.Status,
		StartDate: clock.DateOf(o.StartDate),
		Quantity:  o.Quantity,
	}
	if o.EndDate != nil {
		d := clock.DateOf(*o.EndDate)
		out.EndDate = &d
	}
	return out
}

// CurrentPrice is the discounted unit price.
func (o Offer) CurrentPrice() decimal.Decimal {
	return pricing.CurrentPrice(o.OriginalPrice, o.DiscountPercent)
}

// Rules projects the box onto the availability predicates.
func (b SurpriseBox) Rules() availability.Box {
	out := availability.Box{
		Active:         b.IsActive,
		Status:         b.Status,
		Total:          b.TotalQuantity,
		Reserved:       b.ReservedQuantity,
		Sold:           b.SoldQuantity,
		AvailableFrom:  b.AvailableFrom,
		AvailableUntil: b.AvailableUntil,
	}
	if b.PickupStart != nil {
		t := b.PickupStart.Time
		out.PickupStart = &t
	}
	if b.PickupEnd != nil {
		t := b.PickupEnd.Time
		out.PickupEnd = &t
	}
	return out
}

// PricingLine projects a cart line with a loaded offer, keyed by vendorKey.
func (c CartItem) PricingLine(vendorKey string) pricing.Line {
	line := pricing.Line{VendorKey: vendorKey, Quantity: c.Quantity}
	if c.Offer != nil {
		line.OriginalPrice = c.Offer.OriginalPrice
		line.DiscountPercent = c.Offer.DiscountPercent
	}
	return line
}

// Week normalizes the branch's raw opening hours.
func (b Branch) Week() schedule.Week {
	return schedule.Parse(b.OpeningHours)
}
