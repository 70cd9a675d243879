package boxes

import (
	"time"

	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BoxDTO is the public view of a surprise box with its computed state.
type BoxDTO struct {
	ID                uuid.UUID         `json:"id"`
	VendorID          uuid.UUID         `json:"vendor_id"`
	VendorName        string            `json:"vendor_name"`
	BranchID          uuid.UUID         `json:"branch_id"`
	BranchName        string            `json:"branch_name"`
	BranchAddress     string            `json:"branch_address"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	BoxType           enums.BoxType     `json:"box_type"`
	OriginalValue     decimal.Decimal   `json:"original_value"`
	SellingPrice      decimal.Decimal   `json:"selling_price"`
	DiscountPercent   decimal.Decimal   `json:"discount_percent"`
	TotalQuantity     int               `json:"total_quantity"`
	AvailableQuantity int               `json:"available_quantity"`
	AvailableFrom     time.Time         `json:"available_from"`
	AvailableUntil    time.Time         `json:"available_until"`
	PickupStart       *types.TimeOfDay  `json:"pickup_start,omitempty"`
	PickupEnd         *types.TimeOfDay  `json:"pickup_end,omitempty"`
	Status            enums.OfferStatus `json:"status"`
	IsAvailable       bool              `json:"is_available"`
	IsPickupTime      bool              `json:"is_pickup_time"`
	Items             []BoxItemDTO      `json:"items,omitempty"`
}

// BoxItemDTO is one item listed in a box.
type BoxItemDTO struct {
	ItemID   uuid.UUID `json:"item_id"`
	Title    string    `json:"title"`
	Quantity int       `json:"quantity"`
	Notes    string    `json:"notes,omitempty"`
}

// ReservationDTO is a buyer's claim on a box.
type ReservationDTO struct {
	ID         uuid.UUID               `json:"id"`
	BoxID      uuid.UUID               `json:"box_id"`
	BoxTitle   string                  `json:"box_title,omitempty"`
	Quantity   int                     `json:"quantity"`
	Status     enums.ReservationStatus `json:"status"`
	PickupCode string                  `json:"pickup_code"`
	Total      decimal.Decimal         `json:"total"`
	CreatedAt  time.Time               `json:"created_at"`
}

// CreateBoxInput is the payload for publishing a box.
type CreateBoxInput struct {
	BranchID       uuid.UUID         `json:"branch_id" validate:"required"`
	Title          string            `json:"title" validate:"required,max=200"`
	Description    string            `json:"description" validate:"max=2000"`
	BoxType        string            `json:"box_type"`
	OriginalValue  decimal.Decimal   `json:"original_value" validate:"gt=0"`
	SellingPrice   decimal.Decimal   `json:"selling_price" validate:"gt=0"`
	TotalQuantity  int               `json:"total_quantity" validate:"min=1"`
	AvailableFrom  time.Time         `json:"available_from" validate:"required"`
	AvailableUntil time.Time         `json:"available_until" validate:"required"`
	PickupStart    *types.TimeOfDay  `json:"pickup_start"`
	PickupEnd      *types.TimeOfDay  `json:"pickup_end"`
	Items          []CreateItemInput `json:"items" validate:"dive"`
}

// CreateItemInput names an item to include in a box.
type CreateItemInput struct {
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"min=0"`
	Notes    string    `json:"notes" validate:"max=200"`
}

// ReserveInput is the payload for reserving boxes.
type ReserveInput struct {
	Quantity int `json:"quantity" validate:"min=0,max=20"`
}
