package orders

import (
	"time"

	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	"github.com/angelmondragon/surprisebag-backend/pkg/orderflow"
	"github.com/angelmondragon/surprisebag-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutInput is the payload for turning the cart into an order.
type CheckoutInput struct {
	DeliveryType    string `json:"delivery_type" validate:"required,oneof=delivery pickup"`
	DeliveryAddress string `json:"delivery_address" validate:"max=500"`
	PaymentMethod   string `json:"payment_method" validate:"required"`
	Notes           string `json:"notes" validate:"max=1000"`
}

// TransitionInput names the next order status.
type TransitionInput struct {
	Status string `json:"status" validate:"required"`
}

// OrderDTO is the buyer view of an order.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Status          enums.OrderStatus   `json:"status"`
	NextStatuses    []enums.OrderStatus `json:"next_statuses"`
	DeliveryType    enums.DeliveryType  `json:"delivery_type"`
	DeliveryAddress string              `json:"delivery_address,omitempty"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	Notes           string              `json:"notes,omitempty"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	DeliveryFee     decimal.Decimal     `json:"delivery_fee"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	ItemCount       int                 `json:"item_count"`
	Items           []OrderItemDTO      `json:"items,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// OrderItemDTO is one purchased line with the price paid.
type OrderItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	OfferID   uuid.UUID       `json:"offer_id"`
	ItemTitle string          `json:"item_title,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
}

// OrderList is one page of a user's orders.
type OrderList struct {
	Orders []OrderDTO      `json:"orders"`
	Meta   pagination.Meta `json:"pagination"`
}

func orderDTO(order models.Order, withItems bool) OrderDTO {
	dto := OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		NextStatuses:    orderflow.Next(order.Status, order.DeliveryType),
		DeliveryType:    order.DeliveryType,
		DeliveryAddress: order.DeliveryAddress,
		PaymentMethod:   order.PaymentMethod,
		Notes:           order.Notes,
		Subtotal:        order.TotalAmount.Sub(order.DeliveryFee),
		DeliveryFee:     order.DeliveryFee,
		TotalAmount:     order.TotalAmount,
		CreatedAt:       order.CreatedAt,
	}
	if dto.NextStatuses == nil {
		dto.NextStatuses = []enums.OrderStatus{}
	}
	for _, item := range order.Items {
		dto.ItemCount += item.Quantity
		if !withItems {
			continue
		}
		line := OrderItemDTO{
			ID:       item.ID,
			OfferID:  item.OfferID,
			Quantity: item.Quantity,
			Price:    item.Price,
			Total:    item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
		if item.Offer != nil && item.Offer.Item != nil {
			line.ItemTitle = item.Offer.Item.Title
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}
