package catalog

import (
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/surprisebag-backend/pkg/clock"
	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	"github.com/angelmondragon/surprisebag-backend/pkg/pagination"
	"github.com/angelmondragon/surprisebag-backend/pkg/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferDTO is the public view of an offer with its computed price.
type OfferDTO struct {
	ID              uuid.UUID         `json:"id"`
	ItemID          uuid.UUID         `json:"item_id"`
	OriginalPrice   decimal.Decimal   `json:"original_price"`
	CurrentPrice    decimal.Decimal   `json:"current_price"`
	DiscountPercent float64           `json:"discount_percent"`
	Quantity        int               `json:"quantity"`
	StartDate       string            `json:"start_date"`
	EndDate         *string           `json:"end_date,omitempty"`
	Status          enums.OfferStatus `json:"status"`
	IsActive        bool              `json:"is_active"`
}

// CategoryDTO is the public view of a category.
type CategoryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// ItemCard is one catalog tile.
type ItemCard struct {
	ID          uuid.UUID        `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Unit        string           `json:"unit"`
	VendorID    uuid.UUID        `json:"vendor_id"`
	VendorName  string           `json:"vendor_name"`
	VendorType  enums.VendorType `json:"vendor_type"`
	BranchID    uuid.UUID        `json:"branch_id"`
	Category    *CategoryDTO     `json:"category,omitempty"`
	ExpiryDate  *string          `json:"expiry_date,omitempty"`
	BestOffer   *OfferDTO        `json:"best_offer,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ItemDetail is an item with every available offer.
type ItemDetail struct {
	ItemCard
	Offers []OfferDTO `json:"offers"`
}

// Page is one page of catalog tiles.
type Page struct {
	Items []ItemCard      `json:"items"`
	Meta  pagination.Meta `json:"meta"`
}

// NearbyItem is an item tile with its distance from the caller.
type NearbyItem struct {
	Item       ItemCard `json:"item"`
	DistanceKm float64  `json:"distance_km"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
}

// Recommendation is one promoted offer.
type Recommendation struct {
	ItemID          uuid.UUID       `json:"id"`
	OfferID         uuid.UUID       `json:"offer_id"`
	Title           string          `json:"title"`
	VendorName      string          `json:"vendor_name"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	DiscountPercent int             `json:"discount_percent"`
	BadgeType       string          `json:"badge_type"`
	BadgeText       string          `json:"badge_text"`
	Unit            string          `json:"unit"`
	Category        string          `json:"category"`
	Description     string          `json:"description"`
}

// CreateItemInput is the payload for listing a new item.
type CreateItemInput struct {
	BranchID    uuid.UUID  `json:"branch_id" validate:"required"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Unit        string     `json:"unit" validate:"required"`
	CustomUnit  string     `json:"custom_unit" validate:"max=50"`
	ExpiryDate  string     `json:"expiry_date" validate:"omitempty,civildate"`
}

// CreateOfferInput is the payload for publishing an offer. Dates are
// YYYY-MM-DD; quantity 0 means unlimited.
type CreateOfferInput struct {
	OriginalPrice   decimal.Decimal `json:"original_price" validate:"gt=0"`
	DiscountPercent float64         `json:"discount_percent" validate:"min=0,max=100"`
	Quantity        int             `json:"quantity" validate:"min=0"`
	StartDate       string          `json:"start_date" validate:"required,civildate"`
	EndDate         string          `json:"end_date" validate:"omitempty,civildate"`
}

// CreateCategoryInput is the payload for a new category.
type CreateCategoryInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

func offerDTO(o models.Offer) OfferDTO {
	dto := OfferDTO{
		ID:              o.ID,
		ItemID:          o.ItemID,
		OriginalPrice:   o.OriginalPrice,
		CurrentPrice:    pricing.CurrentPrice(o.OriginalPrice, o.DiscountPercent),
		DiscountPercent: o.DiscountPercent,
		Quantity:        o.Quantity,
		StartDate:       clock.DateOf(o.StartDate).String(),
		Status:          o.Status,
		IsActive:        o.IsActive,
	}
	if o.EndDate != nil {
		end := clock.DateOf(*o.EndDate).String()
		dto.EndDate = &end
	}
	return dto
}

func categoryDTO(c *models.Category) *CategoryDTO {
	if c == nil {
		return nil
	}
	return &CategoryDTO{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

func itemCard(i models.Item, best *models.Offer) ItemCard {
	card := ItemCard{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Unit:        i.Unit.Label(i.CustomUnit),
		VendorID:    i.VendorID,
		BranchID:    i.BranchID,
		Category:    categoryDTO(i.Category),
		CreatedAt:   i.CreatedAt,
	}
	if i.Vendor != nil {
		card.VendorName = i.Vendor.Name
		card.VendorType = i.Vendor.Type
	}
	if i.ExpiryDate != nil {
		d := clock.DateOf(*i.ExpiryDate).String()
		card.ExpiryDate = &d
	}
	if best != nil {
		dto := offerDTO(*best)
		card.BestOffer = &dto
	}
	return card
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
