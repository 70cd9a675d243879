package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
)

// Vendor is a business selling surplus goods. Vendors are deactivated, never
// deleted.
type Vendor struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID     uuid.UUID        `gorm:"column:owner_id;type:uuid;not null;index"`
	Type        enums.VendorType `gorm:"column:type;type:varchar(32);not null"`
	Name        string           `gorm:"column:name;not null"`
	Description string           `gorm:"column:description;not null;default:''"`
	Rating      float64          `gorm:"column:rating;not null;default:0"`
	IsActive    bool             `gorm:"column:is_active;not null"`
	Branches    []Branch         `gorm:"foreignKey:VendorID"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *Vendor) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// Branch is a physical location of a vendor.
type Branch struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	VendorID     uuid.UUID          `gorm:"column:vendor_id;type:uuid;not null;index"`
	Name         string             `gorm:"column:name;not null"`
	Address      string             `gorm:"column:address;not null"`
	Latitude     *float64           `gorm:"column:latitude"`
	Longitude    *float64           `gorm:"column:longitude"`
	Phone        string             `gorm:"column:phone;not null;default:''"`
	OpeningHours types.OpeningHours `gorm:"column:opening_hours;type:jsonb"`
	IsActive     bool               `gorm:"column:is_active;not null"`
	Vendor       *Vendor            `gorm:"foreignKey:VendorID"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (b *Branch) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// HasCoordinates reports whether both latitude and longitude are set.
func (b Branch) HasCoordinates() bool {
	return b.Latitude != nil && b.Longitude != nil
}
