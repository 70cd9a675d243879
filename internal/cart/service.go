package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/surprisebag-backend/pkg/availability"
	"github.com/angelmondragon/surprisebag-backend/pkg/config"
	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/surprisebag-backend/pkg/errors"
	"github.com/angelmondragon/surprisebag-backend/pkg/pricing"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart operations for users and anonymous sessions.
type Service interface {
	Add(ctx context.Context, owner types.Owner, input AddInput) (*AddResult, error)
	Update(ctx context.Context, owner types.Owner, lineID uuid.UUID, qty int) (*LineDTO, error)
	Remove(ctx context.Context, owner types.Owner, lineID uuid.UUID) (int64, error)
	Count(ctx context.Context, owner types.Owner) (int64, error)
	Summary(ctx context.Context, owner types.Owner) (*Summary, error)
	Merge(ctx context.Context, sessionKey string, userID uuid.UUID) (int, error)
}

type service struct {
	repo        CartRepository
	tx          txRunner
	deliveryFee decimal.Decimal
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, market config.MarketConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		deliveryFee: market.DeliveryFee,
	}, nil
}

func insufficientStock(left int) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("insufficient stock, available: %d", left)).
		WithDetails(map[string]any{"available": left})
}

func checkStock(offer *models.Offer, qty int) error {
	rules := offer.Rules()
	if !availability.OfferCanSupply(rules, qty) {
		left, _ := availability.OfferStockLeft(rules)
		return insufficientStock(left)
	}
	return nil
}

func requireOwner(owner types.Owner) error {
	if err := owner.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cart owner required")
	}
	return nil
}

// Add puts qty units of an offer into the cart, merging into an existing
// line for the same offer. The combined quantity must fit the stock.
func (s *service) Add(ctx context.Context, owner types.Owner, input AddInput) (*AddResult, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	qty := input.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var result AddResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		offer, err := repo.FindActiveOffer(ctx, input.OfferID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
		}
		if err := checkStock(offer, qty); err != nil {
			return err
		}

		line, err := repo.FindLine(ctx, owner, offer.ID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			line = &models.CartItem{
				UserID:     owner.UserID,
				SessionKey: owner.SessionPtr(),
				OfferID:    offer.ID,
				Quantity:   qty,
			}
			if err := repo.CreateLine(ctx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
			}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		default:
			next := line.Quantity + qty
			if err := checkStock(offer, next); err != nil {
				return err
			}
			if err := repo.UpdateQuantity(ctx, line.ID, next); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
			}
			line.Quantity = next
		}

		count, err := repo.CountLines(ctx, owner)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart")
		}
		line.Offer = offer
		result = AddResult{Line: lineDTO(*line), CartCount: count}
		if offer.Item != nil {
			result.Message = offer.Item.Title + " added to cart"
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) Update(ctx context.Context, owner types.Owner, lineID uuid.UUID, qty int) (*LineDTO, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	line, err := s.repo.FindLineByID(ctx, owner, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if line.Offer != nil {
		if err := checkStock(line.Offer, qty); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateQuantity(ctx, line.ID, qty); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	line.Quantity = qty
	dto := lineDTO(*line)
	return &dto, nil
}

// Remove deletes a line and returns the remaining line count.
func (s *service) Remove(ctx context.Context, owner types.Owner, lineID uuid.UUID) (int64, error) {
	if err := requireOwner(owner); err != nil {
		return 0, err
	}
	removed, err := s.repo.DeleteLine(ctx, owner, lineID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
	}
	if !removed {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.Count(ctx, owner)
}

// Count returns the number of lines. An owner without a session has an
// empty cart.
func (s *service) Count(ctx context.Context, owner types.Owner) (int64, error) {
	if owner.Validate() != nil {
		return 0, nil
	}
	count, err := s.repo.CountLines(ctx, owner)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart")
	}
	return count, nil
}

// Summary prices every line, groups lines by vendor and adds the flat
// delivery fee to the final total.
func (s *service) Summary(ctx context.Context, owner types.Owner) (*Summary, error) {
	var rows []models.CartItem
	if owner.Validate() == nil {
		var err error
		rows, err = s.repo.ListLines(ctx, owner)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
		}
	}

	lines := make([]LineDTO, 0, len(rows))
	priced := make([]pricing.Line, 0, len(rows))
	for _, row := range rows {
		if row.Offer == nil {
			continue
		}
		lines = append(lines, lineDTO(row))
		priced = append(priced, pricingLine(row.Offer, row.Quantity))
	}

	totals := pricing.CartTotals(priced)
	vendors := make([]VendorGroupDTO, 0)
	for _, group := range pricing.GroupByVendor(priced) {
		first := lines[group.Lines[0]]
		out := VendorGroupDTO{VendorID: first.VendorID, VendorName: first.VendorName, Subtotal: decimal.Zero}
		for _, idx := range group.Lines {
			out.Lines = append(out.Lines, lines[idx])
			out.Subtotal = out.Subtotal.Add(lines[idx].TotalPrice)
		}
		vendors = append(vendors, out)
	}

	return &Summary{
		Lines:       lines,
		Vendors:     vendors,
		Totals:      totals,
		DeliveryFee: s.deliveryFee,
		FinalTotal:  totals.TotalAmount.Add(s.deliveryFee),
	}, nil
}

// Merge moves an anonymous session cart into the user's cart after login.
// Quantities for the same offer are summed and capped at the remaining
// stock; lines whose offer is gone or sold out are dropped. It returns the
// number of lines merged.
func (s *service) Merge(ctx context.Context, sessionKey string, userID uuid.UUID) (int, error) {
	if sessionKey == "" || userID == uuid.Nil {
		return 0, nil
	}
	session := types.SessionOwner(sessionKey)
	user := types.UserOwner(userID)

	merged := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.ListLines(ctx, session)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list session cart")
		}
		for _, row := range rows {
			if row.Offer == nil || !row.Offer.IsActive {
				continue
			}
			qty := row.Quantity
			existing, err := repo.FindLine(ctx, user, row.OfferID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user cart line")
			}
			if existing != nil {
				qty += existing.Quantity
			}
			if left, limited := availability.OfferStockLeft(row.Offer.Rules()); limited && qty > left {
				qty = left
			}
			if qty < 1 {
				continue
			}
			if existing != nil {
				err = repo.UpdateQuantity(ctx, existing.ID, qty)
			} else {
				err = repo.CreateLine(ctx, &models.CartItem{UserID: &userID, OfferID: row.OfferID, Quantity: qty})
			}
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart line")
			}
			merged++
		}
		if err := repo.Clear(ctx, session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session cart")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return merged, nil
}
