package boxes

import (
	"context"
	"time"

	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists surprise boxes and reservations. Stock counters are
// only changed through the conditional updates below.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a box repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) boxRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func withContents(db *gorm.DB) *gorm.DB {
	return db.Preload("Vendor").Preload("Branch").Preload("Items.Item")
}

// ListListed returns active boxes in status available, newest first. The
// caller applies the time window.
func (r *Repository) ListListed(ctx context.Context) ([]models.SurpriseBox, error) {
	var rows []models.SurpriseBox
	err := withContents(r.db.WithContext(ctx)).
		Where("is_active = ? AND status = ?", true, enums.OfferStatusAvailable).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// FindBox loads a box with its vendor, branch and contents.
func (r *Repository) FindBox(ctx context.Context, id uuid.UUID) (*models.SurpriseBox, error) {
	var box models.SurpriseBox
	if err := withContents(r.db.WithContext(ctx)).Where("id = ?", id).First(&box).Error; err != nil {
		return nil, err
	}
	return &box, nil
}

// CountVendorItems counts how many of ids are active items of vendorID.
func (r *Repository) CountVendorItems(ctx context.Context, vendorID uuid.UUID, ids []uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("vendor_id = ? AND is_active = ? AND id IN ?", vendorID, true, ids).
		Count(&count).Error
	return count, err
}

// CreateBox inserts the box and its contents.
func (r *Repository) CreateBox(ctx context.Context, box *models.SurpriseBox) error {
	return r.db.WithContext(ctx).Create(box).Error
}

// ReserveStock claims qty boxes if the box is listed, inside its window at
// now and has enough left. It reports whether the claim was applied.
func (r *Repository) ReserveStock(ctx context.Context, boxID uuid.UUID, qty int, now time.Time) (bool, error) {
	now = now.UTC()
	res := r.db.WithContext(ctx).
		Model(&models.SurpriseBox{}).
		Where("id = ? AND is_active = ? AND status = ?", boxID, true, enums.OfferStatusAvailable).
		Where("available_from <= ? AND available_until >= ?", now, now).
		Where("total_quantity - reserved_quantity - sold_quantity >= ?", qty).
		UpdateColumns(map[string]any{
			"reserved_quantity": gorm.Expr("reserved_quantity + ?", qty),
			"updated_at":        now,
		})
	return res.RowsAffected == 1, res.Error
}

// CollectStock moves qty boxes from reserved to sold, flipping the box to
// sold_out once everything is sold.
func (r *Repository) CollectStock(ctx context.Context, boxID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SurpriseBox{}).
		Where("id = ? AND reserved_quantity >= ?", boxID, qty).
		UpdateColumns(map[string]any{
			"reserved_quantity": gorm.Expr("reserved_quantity - ?", qty),
			"sold_quantity":     gorm.Expr("sold_quantity + ?", qty),
			"status": gorm.Expr("CASE WHEN sold_quantity + ? >= total_quantity THEN ? ELSE status END",
				qty, enums.OfferStatusSoldOut),
		})
	return res.RowsAffected == 1, res.Error
}

// ReleaseStock returns qty reserved boxes to the pool.
func (r *Repository) ReleaseStock(ctx context.Context, boxID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SurpriseBox{}).
		Where("id = ? AND reserved_quantity >= ?", boxID, qty).
		UpdateColumn("reserved_quantity", gorm.Expr("reserved_quantity - ?", qty))
	return res.RowsAffected == 1, res.Error
}

// CreateReservation inserts a reservation row.
func (r *Repository) CreateReservation(ctx context.Context, reservation *models.BoxReservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

// FindReservation loads a reservation with its box.
func (r *Repository) FindReservation(ctx context.Context, id uuid.UUID) (*models.BoxReservation, error) {
	var reservation models.BoxReservation
	err := r.db.WithContext(ctx).Preload("Box").Where("id = ?", id).First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// ListReservations returns the owner's reservations, newest first.
func (r *Repository) ListReservations(ctx context.Context, owner types.Owner) ([]models.BoxReservation, error) {
	q := r.db.WithContext(ctx).Preload("Box")
	if owner.IsUser() {
		q = q.Where("user_id = ?", *owner.UserID)
	} else {
		q = q.Where("session_key = ?", owner.SessionKey)
	}
	var rows []models.BoxReservation
	err := q.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// ClaimSessionReservations re-keys every reservation held by sessionKey to
// userID and returns how many moved.
func (r *Repository) ClaimSessionReservations(ctx context.Context, sessionKey string, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.BoxReservation{}).
		Where("session_key = ? AND user_id IS NULL", sessionKey).
		Updates(map[string]any{"user_id": userID, "session_key": nil})
	return res.RowsAffected, res.Error
}

// TransitionReservation moves a reservation from one status to another and
// reports whether it was still in the expected status.
func (r *Repository) TransitionReservation(ctx context.Context, id uuid.UUID, from, to enums.ReservationStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.BoxReservation{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected == 1, res.Error
}

// ExpireBoxes marks available boxes whose window closed before now as
// expired. Outstanding reservations keep their claim.
func (r *Repository) ExpireBoxes(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	res := db.WithContext(ctx).
		Model(&models.SurpriseBox{}).
		Where("status = ? AND available_until < ?", enums.OfferStatusAvailable, now.UTC()).
		UpdateColumn("status", enums.OfferStatusExpired)
	return res.RowsAffected, res.Error
}
