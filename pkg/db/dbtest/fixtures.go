package dbtest

import (
	"testing"
	"time"

	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func mustCreate(tb testing.TB, conn *gorm.DB, value any) {
	tb.Helper()
	if err := conn.Create(value).Error; err != nil {
		tb.Fatalf("create %T: %v", value, err)
	}
}

// Vendor inserts an active restaurant owned by a random user.
func Vendor(tb testing.TB, conn *gorm.DB, opts ...func(*models.Vendor)) *models.Vendor {
	tb.Helper()
	v := &models.Vendor{
		OwnerID:  uuid.New(),
		Type:     enums.VendorTypeRestaurant,
		Name:     "Somsa House",
		IsActive: true,
	}
	for _, opt := range opts {
		opt(v)
	}
	mustCreate(tb, conn, v)
	return v
}

// Branch inserts an active branch in central Tashkent open every day.
func Branch(tb testing.TB, conn *gorm.DB, vendor *models.Vendor, opts ...func(*models.Branch)) *models.Branch {
	tb.Helper()
	lat, lng := 41.3111, 69.2797
	b := &models.Branch{
		VendorID:  vendor.ID,
		Name:      "Main",
		Address:   "Amir Temur 1",
		Latitude:  &lat,
		Longitude: &lng,
		OpeningHours: types.OpeningHours{
			"monday": "00:00-23:59", "tuesday": "00:00-23:59", "wednesday": "00:00-23:59",
			"thursday": "00:00-23:59", "friday": "00:00-23:59", "saturday": "00:00-23:59",
			"sunday": "00:00-23:59",
		},
		IsActive: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	mustCreate(tb, conn, b)
	return b
}

// Item inserts an active item listed at branch.
func Item(tb testing.TB, conn *gorm.DB, branch *models.Branch, opts ...func(*models.Item)) *models.Item {
	tb.Helper()
	i := &models.Item{
		VendorID: branch.VendorID,
		BranchID: branch.ID,
		Title:    "Bread",
		Unit:     enums.ItemUnitPiece,
		IsActive: true,
	}
	for _, opt := range opts {
		opt(i)
	}
	mustCreate(tb, conn, i)
	return i
}

// Offer inserts an available, unlimited offer on item that started at start.
func Offer(tb testing.TB, conn *gorm.DB, item *models.Item, start time.Time, opts ...func(*models.Offer)) *models.Offer {
	tb.Helper()
	o := &models.Offer{
		ItemID:          item.ID,
		BranchID:        item.BranchID,
		OriginalPrice:   decimal.NewFromInt(10000),
		DiscountPercent: 30,
		StartDate:       start,
		IsActive:        true,
		Status:          enums.OfferStatusAvailable,
	}
	for _, opt := range opts {
		opt(o)
	}
	mustCreate(tb, conn, o)
	return o
}

// Box inserts an active surprise box at branch available around now.
func Box(tb testing.TB, conn *gorm.DB, branch *models.Branch, now time.Time, opts ...func(*models.SurpriseBox)) *models.SurpriseBox {
	tb.Helper()
	b := &models.SurpriseBox{
		VendorID:       branch.VendorID,
		BranchID:       branch.ID,
		Title:          "Evening bakery box",
		BoxType:        enums.BoxTypeBakery,
		OriginalValue:  decimal.NewFromInt(50000),
		SellingPrice:   decimal.NewFromInt(20000),
		TotalQuantity:  3,
		AvailableFrom:  now.Add(-time.Hour),
		AvailableUntil: now.Add(4 * time.Hour),
		Status:         enums.OfferStatusAvailable,
		IsActive:       true,
	}
	for _, opt := range opts {
		opt(b)
	}
	mustCreate(tb, conn, b)
	return b
}
