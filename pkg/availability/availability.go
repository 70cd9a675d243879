// Package availability holds the pure purchasability predicates for items,
// offers and surprise boxes. Callers persist any resulting status changes.
package availability

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
)

type Item struct {
	Active     bool
	ExpiryDate *civil.Date
}

type Offer struct {
	Active    bool
	Status    enums.OfferStatus
	StartDate civil.Date
	EndDate   *civil.Date
	// Quantity is 0 for unlimited stock, otherwise the finite stock level.
	Quantity int
}

type Box struct {
	Active         bool
	Status         enums.OfferStatus
	Total          int
	Reserved       int
	Sold           int
	AvailableFrom  time.Time
	AvailableUntil time.Time
	PickupStart    *civil.Time
	PickupEnd      *civil.Time
}

// ItemIsExpired reports whether the expiry date has passed.
func ItemIsExpired(item Item, today civil.Date) bool {
	return item.ExpiryDate != nil && item.ExpiryDate.Before(today)
}

// ItemIsAvailable: active and not past its expiry date.
func ItemIsAvailable(item Item, today civil.Date) bool {
	return item.Active && !ItemIsExpired(item, today)
}

// OfferIsExpired reports whether an end date exists and today is after it.
func OfferIsExpired(offer Offer, today civil.Date) bool {
	return offer.EndDate != nil && today.After(*offer.EndDate)
}

// OfferIsPurchasable combines the active flag, status, date window and
// stock. claimed is the count already reserved or sold against a finite
// quantity.
func OfferIsPurchasable(offer Offer, today civil.Date, claimed int) bool {
	if !offer.Active || offer.Status != enums.OfferStatusAvailable {
		return false
	}
	if today.Before(offer.StartDate) || OfferIsExpired(offer, today) {
		return false
	}
	return offer.Quantity == 0 || offer.Quantity > claimed
}

// OfferStockLeft reports how many units can still be sold. limited is false
// for unlimited offers; sold out and expired offers have nothing left.
func OfferStockLeft(offer Offer) (left int, limited bool) {
	if offer.Status == enums.OfferStatusSoldOut || offer.Status == enums.OfferStatusExpired {
		return 0, true
	}
	if offer.Quantity == 0 {
		return 0, false
	}
	return offer.Quantity, true
}

// OfferCanSupply reports whether qty units fit in the offer's stock.
func OfferCanSupply(offer Offer, qty int) bool {
	if qty <= 0 {
		return false
	}
	left, limited := OfferStockLeft(offer)
	return !limited || qty <= left
}

// BoxAvailableQuantity is total - reserved - sold.
func BoxAvailableQuantity(box Box) int {
	return box.Total - box.Reserved - box.Sold
}

// BoxIsAvailable: active, status available, stock left and now inside
// [AvailableFrom, AvailableUntil].
func BoxIsAvailable(box Box, now time.Time) bool {
	return box.Active &&
		box.Status == enums.OfferStatusAvailable &&
		BoxAvailableQuantity(box) > 0 &&
		BoxInWindow(box, now)
}

// BoxInWindow reports whether now is inside the availability window,
// inclusive on both ends.
func BoxInWindow(box Box, now time.Time) bool {
	return !now.Before(box.AvailableFrom) && !now.After(box.AvailableUntil)
}

// BoxIsPickupTime reports whether the time of day is inside the pickup
// window. It is false when either bound is unset.
func BoxIsPickupTime(box Box, now civil.Time) bool {
	if box.PickupStart == nil || box.PickupEnd == nil {
		return false
	}
	return !now.Before(*box.PickupStart) && !now.After(*box.PickupEnd)
}
