package vendors

import (
	"context"

	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists vendors and their branches.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a vendor repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func activeBranches(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true).Order("name ASC")
}

// ListActive returns active vendors with their active branches.
func (r *Repository) ListActive(ctx context.Context) ([]models.Vendor, error) {
	var rows []models.Vendor
	err := r.db.WithContext(ctx).
		Preload("Branches", activeBranches).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

// FindByID loads a vendor with its active branches ordered by name.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).
		Preload("Branches", activeBranches).
		Where("id = ?", id).
		First(&vendor).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

// FindBranch loads a branch belonging to vendorID.
func (r *Repository) FindBranch(ctx context.Context, vendorID, branchID uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	err := r.db.WithContext(ctx).
		Where("id = ? AND vendor_id = ?", branchID, vendorID).
		First(&branch).Error
	if err != nil {
		return nil, err
	}
	return &branch, nil
}

// Create inserts a vendor.
func (r *Repository) Create(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

// CreateBranch inserts a branch.
func (r *Repository) CreateBranch(ctx context.Context, branch *models.Branch) error {
	return r.db.WithContext(ctx).Create(branch).Error
}

// Deactivate flips is_active off; it reports whether a row matched.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ?", id).
		Update("is_active", false)
	return res.RowsAffected > 0, res.Error
}

// ListLocatedBranches returns active branches with both coordinates whose
// vendor is active, with the vendor preloaded.
func (r *Repository) ListLocatedBranches(ctx context.Context) ([]models.Branch, error) {
	var rows []models.Branch
	err := r.db.WithContext(ctx).
		Joins("Vendor").
		Where("branches.is_active = ? AND branches.latitude IS NOT NULL AND branches.longitude IS NOT NULL", true).
		Where(`"Vendor".is_active = ?`, true).
		Order("branches.name ASC").
		Find(&rows).Error
	return rows, err
}
