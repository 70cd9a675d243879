package catalog

import (
	"context"
	"time"

	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists items, offers and categories.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a catalog repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func liveOffers(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ? AND status = ?", true, enums.OfferStatusAvailable).Order("created_at DESC")
}

// ListActiveItems loads active items of active vendors with their branch,
// category and currently available offers. Newest first.
func (r *Repository) ListActiveItems(ctx context.Context) ([]models.Item, error) {
	var rows []models.Item
	err := r.db.WithContext(ctx).
		Joins("Vendor").
		Preload("Branch").
		Preload("Category").
		Preload("Offers", liveOffers).
		Where("items.is_active = ?", true).
		Where(`"Vendor".is_active = ?`, true).
		Order("items.created_at DESC").
		Find(&rows).Error
	return rows, err
}

// FindItem loads one item with vendor, branch, category and available offers.
func (r *Repository) FindItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Preload("Vendor").
		Preload("Branch").
		Preload("Category").
		Preload("Offers", liveOffers).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListLiveOffers returns active, available offers started on or before today
// whose item and vendor are active.
func (r *Repository) ListLiveOffers(ctx context.Context, today time.Time) ([]models.Offer, error) {
	var rows []models.Offer
	err := r.db.WithContext(ctx).
		Preload("Item.Vendor").
		Preload("Item.Category").
		Joins("JOIN items ON items.id = offers.item_id").
		Joins("JOIN vendors ON vendors.id = items.vendor_id").
		Where("offers.is_active = ? AND offers.status = ? AND offers.start_date <= ?", true, enums.OfferStatusAvailable, today).
		Where("items.is_active = ? AND vendors.is_active = ?", true, true).
		Order("offers.created_at DESC").
		Find(&rows).Error
	return rows, err
}

// CartItemIDs returns the item ids already in the owner's cart.
func (r *Repository) CartItemIDs(ctx context.Context, owner types.Owner) ([]uuid.UUID, error) {
	q := r.db.WithContext(ctx).
		Table("cart_items").
		Joins("JOIN offers ON offers.id = cart_items.offer_id")
	if owner.IsUser() {
		q = q.Where("cart_items.user_id = ?", *owner.UserID)
	} else {
		q = q.Where("cart_items.session_key = ?", owner.SessionKey)
	}
	var ids []uuid.UUID
	err := q.Distinct().Pluck("offers.item_id", &ids).Error
	return ids, err
}

// CreateItem inserts an item.
func (r *Repository) CreateItem(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// CreateOffer inserts an offer.
func (r *Repository) CreateOffer(ctx context.Context, offer *models.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

// FindOffer loads an offer with its item.
func (r *Repository) FindOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).Preload("Item").Where("id = ?", id).First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// WithdrawOffer deactivates an offer. Ordered offers keep their row.
func (r *Repository) WithdrawOffer(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// ListCategories returns active categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&rows).Error
	return rows, err
}

// FindCategory loads a category by id.
func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// CategoryNameTaken reports whether a category with the name exists,
// ignoring case.
func (r *Repository) CategoryNameTaken(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("LOWER(name) = LOWER(?)", name).
		Count(&count).Error
	return count > 0, err
}

// CreateCategory inserts a category.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// DeactivateExpiredItems switches off active items whose expiry date is
// before today.
func (r *Repository) DeactivateExpiredItems(ctx context.Context, tx *gorm.DB, today time.Time) (int64, error) {
	res := r.conn(tx).WithContext(ctx).
		Model(&models.Item{}).
		Where("is_active = ? AND expiry_date IS NOT NULL AND expiry_date < ?", true, today).
		UpdateColumn("is_active", false)
	return res.RowsAffected, res.Error
}

// ExpireOffers withdraws active offers whose end date is before today and
// marks them expired.
func (r *Repository) ExpireOffers(ctx context.Context, tx *gorm.DB, today time.Time) (int64, error) {
	res := r.conn(tx).WithContext(ctx).
		Model(&models.Offer{}).
		Where("is_active = ? AND end_date IS NOT NULL AND end_date < ?", true, today).
		UpdateColumns(map[string]any{"is_active": false, "status": enums.OfferStatusExpired})
	return res.RowsAffected, res.Error
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
