package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
)

// SurpriseBox is a mystery bundle of a vendor's items sold at a reduced
// aggregate price. reserved_quantity + sold_quantity never exceeds
// total_quantity; the counters are only mutated through conditional updates.
type SurpriseBox struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	VendorID         uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null;index"`
	BranchID         uuid.UUID         `gorm:"column:branch_id;type:uuid;not null;index"`
	Title            string            `gorm:"column:title;not null"`
	Description      string            `gorm:"column:description;not null;default:''"`
	BoxType          enums.BoxType     `gorm:"column:box_type;type:varchar(20);not null;default:'mixed'"`
	OriginalValue    decimal.Decimal   `gorm:"column:original_value;type:numeric(10,2);not null"`
	SellingPrice     decimal.Decimal   `gorm:"column:selling_price;type:numeric(10,2);not null"`
	TotalQuantity    int               `gorm:"column:total_quantity;not null;default:1"`
	ReservedQuantity int               `gorm:"column:reserved_quantity;not null;default:0"`
	SoldQuantity     int               `gorm:"column:sold_quantity;not null;default:0"`
	AvailableFrom    time.Time         `gorm:"column:available_from;not null"`
	AvailableUntil   time.Time         `gorm:"column:available_until;not null"`
	PickupStart      *types.TimeOfDay  `gorm:"column:pickup_start;type:time"`
	PickupEnd        *types.TimeOfDay  `gorm:"column:pickup_end;type:time"`
	Status           enums.OfferStatus `gorm:"column:status;type:varchar(20);not null;default:'available'"`
	IsActive         bool              `gorm:"column:is_active;not null"`
	Vendor           *Vendor           `gorm:"foreignKey:VendorID"`
	Branch           *Branch           `gorm:"foreignKey:BranchID"`
	Items            []SurpriseBoxItem `gorm:"foreignKey:BoxID"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *SurpriseBox) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BeforeSave stores the availability window in UTC so window predicates
// compare consistently on every driver.
func (b *SurpriseBox) BeforeSave(*gorm.DB) error {
	b.AvailableFrom = b.AvailableFrom.UTC()
	b.AvailableUntil = b.AvailableUntil.UTC()
	return nil
}

type SurpriseBoxItem struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	BoxID    uuid.UUID `gorm:"column:box_id;type:uuid;not null;uniqueIndex:ux_box_items_box_item"`
	ItemID   uuid.UUID `gorm:"column:item_id;type:uuid;not null;uniqueIndex:ux_box_items_box_item"`
	Quantity int       `gorm:"column:quantity;not null;default:1"`
	Notes    string    `gorm:"column:notes;not null;default:''"`
	Item     *Item     `gorm:"foreignKey:ItemID"`
}

func (i *SurpriseBoxItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// BoxReservation is one successful claim on a surprise box, held until the
// buyer collects it or it is cancelled.
type BoxReservation struct {
	ID         uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	BoxID      uuid.UUID               `gorm:"column:box_id;type:uuid;not null;index"`
	UserID     *uuid.UUID              `gorm:"column:user_id;type:uuid;index"`
	SessionKey *string                 `gorm:"column:session_key;index"`
	Quantity   int                     `gorm:"column:quantity;not null"`
	Status     enums.ReservationStatus `gorm:"column:status;type:varchar(20);not null;default:'reserved'"`
	PickupCode string                  `gorm:"column:pickup_code;not null;uniqueIndex"`
	Box        *SurpriseBox            `gorm:"foreignKey:BoxID"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *BoxReservation) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
