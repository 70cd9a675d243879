package cart

import (
	"context"

	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindActiveOffer(ctx context.Context, offerID uuid.UUID) (*models.Offer, error)
	FindLine(ctx context.Context, owner types.Owner, offerID uuid.UUID) (*models.CartItem, error)
	FindLineByID(ctx context.Context, owner types.Owner, id uuid.UUID) (*models.CartItem, error)
	ListLines(ctx context.Context, owner types.Owner) ([]models.CartItem, error)
	CountLines(ctx context.Context, owner types.Owner) (int64, error)
	CreateLine(ctx context.Context, line *models.CartItem) error
	UpdateQuantity(ctx context.Context, id uuid.UUID, qty int) error
	DeleteLine(ctx context.Context, owner types.Owner, id uuid.UUID) (bool, error)
	Clear(ctx context.Context, owner types.Owner) error
}
