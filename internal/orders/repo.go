package orders

import (
	"context"

	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	"github.com/angelmondragon/surprisebag-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ListCartLines loads the user's cart with offer, item and vendor, oldest
// line first so order items keep the order they were added in.
func (r *repository) ListCartLines(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var lines []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Offer").
		Preload("Offer.Item").
		Preload("Offer.Item.Vendor").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&lines).Error
	return lines, err
}

// DecrementOfferStock takes qty units from a finite offer in one
// conditional statement, flipping it to sold_out when the stock reaches
// zero. It reports false when the offer no longer has qty units.
func (r *repository) DecrementOfferStock(ctx context.Context, offerID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ? AND is_active = ? AND status = ?", offerID, true, enums.OfferStatusAvailable).
		Where("quantity > 0 AND quantity >= ?", qty).
		UpdateColumns(map[string]any{
			"quantity": gorm.Expr("quantity - ?", qty),
			"status": gorm.Expr("CASE WHEN quantity = ? THEN ? ELSE status END",
				qty, enums.OfferStatusSoldOut),
		})
	return res.RowsAffected == 1, res.Error
}

// CreateOrder inserts the order with its items.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// ClearCart removes all of the user's cart lines.
func (r *repository) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}

// ListUserOrders pages the user's orders newest first.
func (r *repository) ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	return rows, total, err
}

// FindOrder loads an order with its items and their offers.
func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Offer").
		Preload("Items.Offer.Item").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus moves an order from one status to another and reports
// whether it was still in the expected status.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected == 1, res.Error
}
