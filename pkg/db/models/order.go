package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
)

// CartItem is one line of a buyer cart. Exactly one of UserID and
// SessionKey is set.
type CartItem struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID     *uuid.UUID `gorm:"column:user_id;type:uuid;uniqueIndex:ux_cart_items_user_offer"`
	SessionKey *string    `gorm:"column:session_key;uniqueIndex:ux_cart_items_session_offer"`
	OfferID    uuid.UUID  `gorm:"column:offer_id;type:uuid;not null;uniqueIndex:ux_cart_items_user_offer;uniqueIndex:ux_cart_items_session_offer"`
	Quantity   int        `gorm:"column:quantity;not null;default:1"`
	Offer      *Offer     `gorm:"foreignKey:OfferID"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartItem) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	OrderNumber     string              `gorm:"column:order_number;not null;uniqueIndex"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null"`
	DeliveryType    enums.DeliveryType  `gorm:"column:delivery_type;type:varchar(20);not null"`
	DeliveryAddress string              `gorm:"column:delivery_address;not null;default:''"`
	DeliveryFee     decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(10,2);not null"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:varchar(20);not null"`
	Status          enums.OrderStatus   `gorm:"column:status;type:varchar(20);not null;default:'pending'"`
	Notes           string              `gorm:"column:notes;not null;default:''"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem snapshots the unit price paid at checkout.
type OrderItem struct {
	ID       uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID  uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	OfferID  uuid.UUID       `gorm:"column:offer_id;type:uuid;not null"`
	Quantity int             `gorm:"column:quantity;not null"`
	Price    decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Offer    *Offer          `gorm:"foreignKey:OfferID"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
