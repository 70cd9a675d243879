package orders

import (
	"context"

	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	"github.com/angelmondragon/surprisebag-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for checkout and order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListCartLines(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	DecrementOfferStock(ctx context.Context, offerID uuid.UUID, qty int) (bool, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
	ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, int64, error)
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)
}
