package cart

import (
	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	"github.com/angelmondragon/surprisebag-backend/pkg/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineDTO is one priced cart line.
type LineDTO struct {
	ID              uuid.UUID       `json:"id"`
	OfferID         uuid.UUID       `json:"offer_id"`
	ItemID          uuid.UUID       `json:"item_id"`
	ItemTitle       string          `json:"item_title"`
	Unit            enums.ItemUnit  `json:"unit,omitempty"`
	VendorID        uuid.UUID       `json:"vendor_id"`
	VendorName      string          `json:"vendor_name"`
	Quantity        int             `json:"quantity"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	DiscountPercent float64         `json:"discount_percent"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Savings         decimal.Decimal `json:"savings"`
}

// VendorGroupDTO is the display grouping of lines by vendor.
type VendorGroupDTO struct {
	VendorID   uuid.UUID       `json:"vendor_id"`
	VendorName string          `json:"vendor_name"`
	Lines      []LineDTO       `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// Summary is the full cart view with totals.
type Summary struct {
	Lines       []LineDTO        `json:"lines"`
	Vendors     []VendorGroupDTO `json:"vendors"`
	Totals      pricing.Totals   `json:"totals"`
	DeliveryFee decimal.Decimal  `json:"delivery_fee"`
	FinalTotal  decimal.Decimal  `json:"final_total"`
}

// AddResult reports the line after an add together with the cart size.
type AddResult struct {
	Message   string  `json:"message"`
	Line      LineDTO `json:"line"`
	CartCount int64   `json:"cart_count"`
}

// AddInput is the payload for adding an offer to the cart.
type AddInput struct {
	OfferID  uuid.UUID `json:"offer_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"min=0,max=999"`
}

// UpdateInput is the payload for changing a line quantity.
type UpdateInput struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=999"`
}

func pricingLine(offer *models.Offer, qty int) pricing.Line {
	line := pricing.Line{
		OriginalPrice:   offer.OriginalPrice,
		DiscountPercent: offer.DiscountPercent,
		Quantity:        qty,
	}
	if offer.Item != nil {
		line.VendorKey = offer.Item.VendorID.String()
	}
	return line
}

func lineDTO(line models.CartItem) LineDTO {
	dto := LineDTO{ID: line.ID, OfferID: line.OfferID, Quantity: line.Quantity}
	if line.Offer == nil {
		return dto
	}
	priced := pricingLine(line.Offer, line.Quantity)
	dto.OriginalPrice = line.Offer.OriginalPrice
	dto.DiscountPercent = line.Offer.DiscountPercent
	dto.UnitPrice = priced.UnitPrice()
	dto.TotalPrice = pricing.LineTotal(priced)
	dto.Savings = pricing.LineSavings(priced)
	if item := line.Offer.Item; item != nil {
		dto.ItemID = item.ID
		dto.ItemTitle = item.Title
		dto.Unit = item.Unit
		dto.VendorID = item.VendorID
		if item.Vendor != nil {
			dto.VendorName = item.Vendor.Name
		}
	}
	return dto
}
