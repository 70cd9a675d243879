package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/angelmondragon/surprisebag-backend/pkg/auth"
	"github.com/angelmondragon/surprisebag-backend/pkg/availability"
	"github.com/angelmondragon/surprisebag-backend/pkg/clock"
	"github.com/angelmondragon/surprisebag-backend/pkg/config"
	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/surprisebag-backend/pkg/errors"
	"github.com/angelmondragon/surprisebag-backend/pkg/metrics"
	"github.com/angelmondragon/surprisebag-backend/pkg/orderflow"
	"github.com/angelmondragon/surprisebag-backend/pkg/pagination"
	"github.com/angelmondragon/surprisebag-backend/pkg/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const orderNumberPrefix = "ORD-"

// errOutOfStock marks checkout rejections caused by missing stock.
var errOutOfStock = errors.New("out of stock")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines checkout and the order lifecycle.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*OrderDTO, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	Get(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*OrderDTO, error)
	Transition(ctx context.Context, actor auth.Actor, orderID uuid.UUID, next string) (*OrderDTO, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	clock       clock.Clock
	deliveryFee decimal.Decimal
	pageSize    int
	metrics     *metrics.MarketplaceMetrics
}

// NewService builds the order service. m may be nil.
func NewService(repo Repository, tx txRunner, clk clock.Clock, market config.MarketConfig, m *metrics.MarketplaceMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if clk == nil {
		return nil, fmt.Errorf("clock required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		clock:       clk,
		deliveryFee: market.DeliveryFee,
		pageSize:    market.CatalogPageSize,
		metrics:     m,
	}, nil
}

type checkoutRequest struct {
	deliveryType  enums.DeliveryType
	paymentMethod enums.PaymentMethod
	address       string
	notes         string
}

func parseCheckout(input CheckoutInput) (checkoutRequest, error) {
	deliveryType, err := enums.ParseDeliveryType(strings.TrimSpace(input.DeliveryType))
	if err != nil {
		return checkoutRequest{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery type")
	}
	paymentMethod, err := enums.ParsePaymentMethod(strings.TrimSpace(input.PaymentMethod))
	if err != nil {
		return checkoutRequest{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	req := checkoutRequest{
		deliveryType:  deliveryType,
		paymentMethod: paymentMethod,
		address:       strings.TrimSpace(input.DeliveryAddress),
		notes:         strings.TrimSpace(input.Notes),
	}
	if deliveryType == enums.DeliveryTypeDelivery && req.address == "" {
		return checkoutRequest{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery_address is required for delivery")
	}
	return req, nil
}

// Checkout converts the user's cart into an order in one transaction. Every
// line is re-validated and finite stock is taken with a conditional update;
// the first failing line rejects the whole checkout.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	req, err := parseCheckout(input)
	if err != nil {
		s.metrics.IncCheckout(metrics.OutcomeRejected)
		return nil, err
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lines, err := repo.ListCartLines(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		today := clock.Today(s.clock)
		priced := make([]pricing.Line, 0, len(lines))
		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			if err := checkLine(line, today); err != nil {
				return err
			}
			offer := line.Offer
			if offer.Quantity > 0 {
				ok, err := repo.DecrementOfferStock(ctx, offer.ID, line.Quantity)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "take offer stock")
				}
				if !ok {
					return unavailable(offer, errOutOfStock, "is sold out")
				}
			}
			priced = append(priced, pricing.Line{
				OriginalPrice:   offer.OriginalPrice,
				DiscountPercent: offer.DiscountPercent,
				Quantity:        line.Quantity,
			})
			items = append(items, models.OrderItem{
				OfferID:  offer.ID,
				Quantity: line.Quantity,
				Price:    offer.CurrentPrice(),
			})
		}

		fee := decimal.Zero
		if req.deliveryType == enums.DeliveryTypeDelivery {
			fee = s.deliveryFee
		}
		totals := pricing.CartTotals(priced)
		order = &models.Order{
			UserID:          userID,
			OrderNumber:     newOrderNumber(),
			TotalAmount:     totals.TotalAmount.Add(fee),
			DeliveryType:    req.deliveryType,
			DeliveryAddress: req.address,
			DeliveryFee:     fee,
			PaymentMethod:   req.paymentMethod,
			Status:          enums.OrderStatusPending,
			Notes:           req.notes,
			Items:           items,
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := repo.ClearCart(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
	s.recordCheckout(err)
	if err != nil {
		return nil, err
	}
	dto := orderDTO(*order, true)
	return &dto, nil
}

// checkLine re-validates a cart line against the current offer state.
func checkLine(line models.CartItem, today civil.Date) error {
	offer := line.Offer
	if offer == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("offer %s is no longer available", line.OfferID))
	}
	if offer.Item == nil || !availability.ItemIsAvailable(offer.Item.Rules(), today) ||
		(offer.Item.Vendor != nil && !offer.Item.Vendor.IsActive) {
		return unavailable(offer, nil, "is no longer available")
	}
	rules := offer.Rules()
	if !availability.OfferIsPurchasable(rules, today, 0) {
		return unavailable(offer, nil, "is no longer available")
	}
	if !availability.OfferCanSupply(rules, line.Quantity) {
		return unavailable(offer, errOutOfStock, fmt.Sprintf("has only %d left", offer.Quantity))
	}
	return nil
}

// unavailable builds the validation error naming the failing offer. cause
// is errOutOfStock for stock shortfalls and nil otherwise.
func unavailable(offer *models.Offer, cause error, reason string) error {
	title := offer.ID.String()
	if offer.Item != nil {
		title = fmt.Sprintf("%q (%s)", offer.Item.Title, offer.ID)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, fmt.Sprintf("offer %s %s", title, reason)).
		WithDetails(map[string]any{"offer_id": offer.ID})
}

func (s *service) recordCheckout(err error) {
	switch {
	case err == nil:
		s.metrics.IncCheckout(metrics.OutcomeSuccess)
	case errors.Is(err, errOutOfStock):
		s.metrics.IncCheckout(metrics.OutcomeOutOfStock)
	case pkgerrors.IsCode(err, pkgerrors.CodeDependency):
		s.metrics.IncCheckout(metrics.OutcomeError)
	default:
		s.metrics.IncCheckout(metrics.OutcomeRejected)
	}
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	params = params.Normalize(s.pageSize)
	rows, total, err := s.repo.ListUserOrders(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := &OrderList{Orders: make([]OrderDTO, 0, len(rows)), Meta: pagination.NewMeta(params, int(total))}
	for _, row := range rows {
		out.Orders = append(out.Orders, orderDTO(row, false))
	}
	return out, nil
}

// Get returns an order to its buyer or to staff. Other callers see not
// found.
func (s *service) Get(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	dto := orderDTO(*order, true)
	return &dto, nil
}

// Transition moves an order along the status machine. Staff may apply any
// allowed transition; the buyer may only cancel.
func (s *service) Transition(ctx context.Context, actor auth.Actor, orderID uuid.UUID, next string) (*OrderDTO, error) {
	to, err := enums.ParseOrderStatus(strings.TrimSpace(next))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
	}
	order, err := s.load(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.Staff && to != enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only staff can advance orders")
	}

	status, err := orderflow.Transition(order.Status, to, order.DeliveryType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, err.Error())
	}
	ok, err := s.repo.UpdateStatus(ctx, order.ID, order.Status, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}
	order.Status = status
	dto := orderDTO(*order, true)
	return &dto, nil
}

func (s *service) load(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*models.Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !actor.CanManage(order.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func newOrderNumber() string {
	return orderNumberPrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
