package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
)

type Category struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name     string    `gorm:"column:name;not null"`
	Slug     string    `gorm:"column:slug;not null;uniqueIndex"`
	IsActive bool      `gorm:"column:is_active;not null"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Item is a product or dish listed by a branch.
type Item struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	VendorID    uuid.UUID      `gorm:"column:vendor_id;type:uuid;not null;index"`
	BranchID    uuid.UUID      `gorm:"column:branch_id;type:uuid;not null;index"`
	CategoryID  *uuid.UUID     `gorm:"column:category_id;type:uuid"`
	Title       string         `gorm:"column:title;not null"`
	Description string         `gorm:"column:description;not null;default:''"`
	Unit        enums.ItemUnit `gorm:"column:unit;type:varchar(20);not null"`
	CustomUnit  string         `gorm:"column:custom_unit;not null;default:''"`
	ExpiryDate  *time.Time     `gorm:"column:expiry_date;type:date"`
	IsActive    bool           `gorm:"column:is_active;not null"`
	Vendor      *Vendor        `gorm:"foreignKey:VendorID"`
	Branch      *Branch        `gorm:"foreignKey:BranchID"`
	Category    *Category      `gorm:"foreignKey:CategoryID"`
	Offers      []Offer        `gorm:"foreignKey:ItemID"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Offer is a time-boxed discount on an item. Quantity 0 means unlimited
// stock; a positive quantity is the remaining finite stock.
type Offer struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ItemID          uuid.UUID         `gorm:"column:item_id;type:uuid;not null;index"`
	BranchID        uuid.UUID         `gorm:"column:branch_id;type:uuid;not null;index"`
	OriginalPrice   decimal.Decimal   `gorm:"column:original_price;type:numeric(10,2);not null"`
	DiscountPercent float64           `gorm:"column:discount_percent;not null;default:0"`
	Quantity        int               `gorm:"column:quantity;not null;default:0"`
	StartDate       time.Time         `gorm:"column:start_date;type:date;not null"`
	EndDate         *time.Time        `gorm:"column:end_date;type:date"`
	IsActive        bool              `gorm:"column:is_active;not null"`
	Status          enums.OfferStatus `gorm:"column:status;type:varchar(20);not null;default:'available'"`
	Item            *Item             `gorm:"foreignKey:ItemID"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Offer) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
