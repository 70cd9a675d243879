package cart

import (
	"context"

	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes persistence operations for cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ownedBy scopes a query to one cart owner.
func ownedBy(owner types.Owner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner.IsUser() {
			return db.Where("cart_items.user_id = ?", *owner.UserID)
		}
		return db.Where("cart_items.session_key = ?", owner.SessionKey)
	}
}

// FindActiveOffer loads an active offer with its item and vendor.
func (r *Repository) FindActiveOffer(ctx context.Context, offerID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).
		Preload("Item").
		Preload("Item.Vendor").
		Where("id = ? AND is_active = ?", offerID, true).
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// FindLine returns the owner's line for offerID.
func (r *Repository) FindLine(ctx context.Context, owner types.Owner, offerID uuid.UUID) (*models.CartItem, error) {
	var line models.CartItem
	err := r.db.WithContext(ctx).
		Scopes(ownedBy(owner)).
		Where("offer_id = ?", offerID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// FindLineByID returns one of the owner's lines with its offer.
func (r *Repository) FindLineByID(ctx context.Context, owner types.Owner, id uuid.UUID) (*models.CartItem, error) {
	var line models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Offer").
		Preload("Offer.Item").
		Scopes(ownedBy(owner)).
		Where("id = ?", id).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// ListLines returns the owner's lines newest first, with offer, item and
// vendor loaded.
func (r *Repository) ListLines(ctx context.Context, owner types.Owner) ([]models.CartItem, error) {
	var lines []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Offer").
		Preload("Offer.Item").
		Preload("Offer.Item.Vendor").
		Scopes(ownedBy(owner)).
		Order("created_at DESC").
		Find(&lines).Error
	return lines, err
}

// CountLines counts distinct lines in the owner's cart.
func (r *Repository) CountLines(ctx context.Context, owner types.Owner) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Scopes(ownedBy(owner)).
		Count(&count).Error
	return count, err
}

// CreateLine inserts a cart line.
func (r *Repository) CreateLine(ctx context.Context, line *models.CartItem) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// UpdateQuantity overwrites a line's quantity.
func (r *Repository) UpdateQuantity(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", id).
		Update("quantity", qty).Error
}

// DeleteLine removes one of the owner's lines and reports whether it existed.
func (r *Repository) DeleteLine(ctx context.Context, owner types.Owner, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Scopes(ownedBy(owner)).
		Where("id = ?", id).
		Delete(&models.CartItem{})
	return res.RowsAffected > 0, res.Error
}

// Clear removes every line of the owner's cart.
func (r *Repository) Clear(ctx context.Context, owner types.Owner) error {
	return r.db.WithContext(ctx).
		Scopes(ownedBy(owner)).
		Delete(&models.CartItem{}).Error
}
