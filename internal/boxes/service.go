package boxes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/surprisebag-backend/pkg/auth"
	"github.com/angelmondragon/surprisebag-backend/pkg/availability"
	"github.com/angelmondragon/surprisebag-backend/pkg/clock"
	"github.com/angelmondragon/surprisebag-backend/pkg/db"
	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/surprisebag-backend/pkg/errors"
	"github.com/angelmondragon/surprisebag-backend/pkg/metrics"
	"github.com/angelmondragon/surprisebag-backend/pkg/pricing"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

const (
	minBoxItems    = 2
	qrSize         = 256
	pickupCodeSize = 8
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type boxRepository interface {
	WithTx(tx *gorm.DB) boxRepository
	ListListed(ctx context.Context) ([]models.SurpriseBox, error)
	FindBox(ctx context.Context, id uuid.UUID) (*models.SurpriseBox, error)
	CountVendorItems(ctx context.Context, vendorID uuid.UUID, ids []uuid.UUID) (int64, error)
	CreateBox(ctx context.Context, box *models.SurpriseBox) error
	ReserveStock(ctx context.Context, boxID uuid.UUID, qty int, now time.Time) (bool, error)
	CollectStock(ctx context.Context, boxID uuid.UUID, qty int) (bool, error)
	ReleaseStock(ctx context.Context, boxID uuid.UUID, qty int) (bool, error)
	CreateReservation(ctx context.Context, reservation *models.BoxReservation) error
	FindReservation(ctx context.Context, id uuid.UUID) (*models.BoxReservation, error)
	ListReservations(ctx context.Context, owner types.Owner) ([]models.BoxReservation, error)
	ClaimSessionReservations(ctx context.Context, sessionKey string, userID uuid.UUID) (int64, error)
	TransitionReservation(ctx context.Context, id uuid.UUID, from, to enums.ReservationStatus) (bool, error)
}

type vendorAuthorizer interface {
	AuthorizeBranch(ctx context.Context, actor auth.Actor, vendorID, branchID uuid.UUID) (*models.Branch, error)
	Authorize(ctx context.Context, actor auth.Actor, vendorID uuid.UUID) (*models.Vendor, error)
}

// Caller is whoever acts on a reservation: the buyer that owns it and, when
// authenticated, the actor behind the token.
type Caller struct {
	Owner types.Owner
	Actor auth.Actor
}

// Service exposes surprise box listing and the reservation lifecycle.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, vendorID uuid.UUID, input CreateBoxInput) (*BoxDTO, error)
	List(ctx context.Context) ([]BoxDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*BoxDTO, error)
	Reserve(ctx context.Context, owner types.Owner, boxID uuid.UUID, qty int) (*ReservationDTO, error)
	Reservations(ctx context.Context, owner types.Owner) ([]ReservationDTO, error)
	Collect(ctx context.Context, actor auth.Actor, reservationID uuid.UUID) (*ReservationDTO, error)
	Cancel(ctx context.Context, caller Caller, reservationID uuid.UUID) (*ReservationDTO, error)
	PickupQR(ctx context.Context, owner types.Owner, reservationID uuid.UUID) ([]byte, error)
	ClaimSession(ctx context.Context, sessionKey string, userID uuid.UUID) (int64, error)
}

type service struct {
	repo    boxRepository
	tx      txRunner
	vendors vendorAuthorizer
	clock   clock.Clock
	metrics *metrics.MarketplaceMetrics
}

// NewService builds the box service. m may be nil.
func NewService(repo boxRepository, tx txRunner, vendors vendorAuthorizer, clk clock.Clock, m *metrics.MarketplaceMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("box repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor authorizer required")
	}
	if clk == nil {
		return nil, fmt.Errorf("clock required")
	}
	return &service{repo: repo, tx: tx, vendors: vendors, clock: clk, metrics: m}, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, vendorID uuid.UUID, input CreateBoxInput) (*BoxDTO, error) {
	branch, err := s.vendors.AuthorizeBranch(ctx, actor, vendorID, input.BranchID)
	if err != nil {
		return nil, err
	}

	boxType := enums.BoxTypeMixed
	if raw := strings.TrimSpace(input.BoxType); raw != "" {
		if boxType, err = enums.ParseBoxType(raw); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid box type")
		}
	}
	if !input.SellingPrice.IsPositive() || !input.OriginalValue.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must be positive")
	}
	if !input.SellingPrice.LessThan(input.OriginalValue) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "selling_price must be less than original_value")
	}
	if !input.AvailableUntil.After(input.AvailableFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "available_until must be after available_from")
	}
	if (input.PickupStart == nil) != (input.PickupEnd == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup_start and pickup_end must be provided together")
	}
	if input.PickupStart != nil && !input.PickupEnd.After(input.PickupStart.Time) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup_end must be after pickup_start")
	}
	if input.TotalQuantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total_quantity must be at least 1")
	}

	seen := map[uuid.UUID]struct{}{}
	contents := make([]models.SurpriseBoxItem, 0, len(input.Items))
	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, in := range input.Items {
		if _, dup := seen[in.ItemID]; dup {
			continue
		}
		seen[in.ItemID] = struct{}{}
		qty := in.Quantity
		if qty < 1 {
			qty = 1
		}
		ids = append(ids, in.ItemID)
		contents = append(contents, models.SurpriseBoxItem{ItemID: in.ItemID, Quantity: qty, Notes: strings.TrimSpace(in.Notes)})
	}
	if len(contents) < minBoxItems {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a box needs at least 2 distinct items")
	}
	owned, err := s.repo.CountVendorItems(ctx, vendorID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check box items")
	}
	if int(owned) != len(ids) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "box items must be active items of the vendor")
	}

	box := &models.SurpriseBox{
		VendorID:       vendorID,
		BranchID:       branch.ID,
		Title:          strings.TrimSpace(input.Title),
		Description:    strings.TrimSpace(input.Description),
		BoxType:        boxType,
		OriginalValue:  input.OriginalValue.Round(2),
		SellingPrice:   input.SellingPrice.Round(2),
		TotalQuantity:  input.TotalQuantity,
		AvailableFrom:  input.AvailableFrom,
		AvailableUntil: input.AvailableUntil,
		PickupStart:    input.PickupStart,
		PickupEnd:      input.PickupEnd,
		Status:         enums.OfferStatusAvailable,
		IsActive:       true,
		Items:          contents,
	}
	if err := s.repo.CreateBox(ctx, box); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create box")
	}
	return s.Get(ctx, box.ID)
}

func (s *service) List(ctx context.Context) ([]BoxDTO, error) {
	rows, err := s.repo.ListListed(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list boxes")
	}
	now := s.clock.Now()
	out := make([]BoxDTO, 0, len(rows))
	for _, b := range rows {
		if !availability.BoxIsAvailable(b.Rules(), now) {
			continue
		}
		out = append(out, s.boxDTO(b, false))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*BoxDTO, error) {
	box, err := s.repo.FindBox(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "box", "load box")
	}
	if !box.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "box not found")
	}
	dto := s.boxDTO(*box, true)
	return &dto, nil
}

// Reserve claims qty boxes for owner. The claim is a single conditional
// update; a lost race surfaces as out of stock and is never retried here.
func (s *service) Reserve(ctx context.Context, owner types.Owner, boxID uuid.UUID, qty int) (*ReservationDTO, error) {
	if err := owner.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reservation owner required")
	}
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var reservation *models.BoxReservation
	var box *models.SurpriseBox
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		box, err = repo.FindBox(ctx, boxID)
		if err != nil {
			return notFoundOr(err, "box", "load box")
		}
		now := s.clock.Now()
		rules := box.Rules()
		if !box.IsActive || box.Status != enums.OfferStatusAvailable || !availability.BoxInWindow(rules, now) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "box is not available for reservation")
		}
		if left := availability.BoxAvailableQuantity(rules); left < qty {
			return outOfStock(left)
		}

		ok, err := repo.ReserveStock(ctx, boxID, qty, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve box")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeOutOfStock, "box is no longer available")
		}

		reservation = &models.BoxReservation{
			BoxID:      boxID,
			UserID:     owner.UserID,
			SessionKey: owner.SessionPtr(),
			Quantity:   qty,
			Status:     enums.ReservationStatusReserved,
			PickupCode: newPickupCode(),
		}
		if err := repo.CreateReservation(ctx, reservation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reservation")
		}
		return nil
	})
	s.recordReservation(err)
	if err != nil {
		return nil, err
	}
	reservation.Box = box
	dto := reservationDTO(*reservation)
	return &dto, nil
}

func (s *service) recordReservation(err error) {
	switch {
	case err == nil:
		s.metrics.IncReservation(metrics.OutcomeSuccess)
	case pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock):
		s.metrics.IncReservation(metrics.OutcomeOutOfStock)
	case pkgerrors.IsCode(err, pkgerrors.CodeDependency):
		s.metrics.IncReservation(metrics.OutcomeError)
	default:
		s.metrics.IncReservation(metrics.OutcomeRejected)
	}
}

func (s *service) Reservations(ctx context.Context, owner types.Owner) ([]ReservationDTO, error) {
	if err := owner.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reservation owner required")
	}
	rows, err := s.repo.ListReservations(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservations")
	}
	out := make([]ReservationDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, reservationDTO(r))
	}
	return out, nil
}

// ClaimSession moves the reservations an anonymous session made to the user
// it logged in as, so they stay listable, cancellable and collectable.
func (s *service) ClaimSession(ctx context.Context, sessionKey string, userID uuid.UUID) (int64, error) {
	if sessionKey == "" || userID == uuid.Nil {
		return 0, nil
	}
	moved, err := s.repo.ClaimSessionReservations(ctx, sessionKey, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim session reservations")
	}
	return moved, nil
}

// Collect hands reserved boxes over at the counter. Only the vendor may
// collect, and only inside the pickup window when the box defines one.
func (s *service) Collect(ctx context.Context, actor auth.Actor, reservationID uuid.UUID) (*ReservationDTO, error) {
	reservation, err := s.loadReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.vendors.Authorize(ctx, actor, reservation.Box.VendorID); err != nil {
		return nil, err
	}
	rules := reservation.Box.Rules()
	if rules.PickupStart != nil && rules.PickupEnd != nil &&
		!availability.BoxIsPickupTime(rules, clock.TimeOfDay(s.clock)) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "outside the pickup window")
	}

	err = s.settle(ctx, reservation, enums.ReservationStatusCollected, func(repo boxRepository) (bool, error) {
		return repo.CollectStock(ctx, reservation.BoxID, reservation.Quantity)
	})
	if err != nil {
		return nil, err
	}
	dto := reservationDTO(*reservation)
	return &dto, nil
}

// Cancel releases a reservation back to the pool. The buyer who holds it or
// the vendor may cancel.
func (s *service) Cancel(ctx context.Context, caller Caller, reservationID uuid.UUID) (*ReservationDTO, error) {
	reservation, err := s.loadReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !ownsReservation(caller.Owner, reservation) {
		if _, err := s.vendors.Authorize(ctx, caller.Actor, reservation.Box.VendorID); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) || pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
			}
			return nil, err
		}
	}

	err = s.settle(ctx, reservation, enums.ReservationStatusCancelled, func(repo boxRepository) (bool, error) {
		return repo.ReleaseStock(ctx, reservation.BoxID, reservation.Quantity)
	})
	if err != nil {
		return nil, err
	}
	dto := reservationDTO(*reservation)
	return &dto, nil
}

func (s *service) loadReservation(ctx context.Context, id uuid.UUID) (*models.BoxReservation, error) {
	reservation, err := s.repo.FindReservation(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "reservation", "load reservation")
	}
	if reservation.Box == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "box not found")
	}
	return reservation, nil
}

// settle moves a reserved reservation to its final status and adjusts the
// box counters in the same transaction. The status flip is conditional, so
// two concurrent settles on one reservation cannot both touch the counters.
func (s *service) settle(ctx context.Context, reservation *models.BoxReservation, to enums.ReservationStatus, adjust func(boxRepository) (bool, error)) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.TransitionReservation(ctx, reservation.ID, enums.ReservationStatusReserved, to)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update reservation")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "reservation is no longer reserved")
		}
		ok, err = adjust(repo)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update box stock")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "box counters out of sync")
		}
		return nil
	})
	if err != nil {
		return err
	}
	reservation.Status = to
	return nil
}

// PickupQR renders the reservation's pickup code as a PNG.
func (s *service) PickupQR(ctx context.Context, owner types.Owner, reservationID uuid.UUID) ([]byte, error) {
	reservation, err := s.repo.FindReservation(ctx, reservationID)
	if err != nil {
		return nil, notFoundOr(err, "reservation", "load reservation")
	}
	if !ownsReservation(owner, reservation) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
	}
	if reservation.Status != enums.ReservationStatusReserved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "reservation is not awaiting pickup")
	}
	png, err := qrcode.Encode(reservation.PickupCode, qrcode.Medium, qrSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode pickup qr")
	}
	return png, nil
}

func ownsReservation(owner types.Owner, r *models.BoxReservation) bool {
	if owner.IsUser() {
		return r.UserID != nil && *r.UserID == *owner.UserID
	}
	return owner.SessionKey != "" && r.SessionKey != nil && *r.SessionKey == owner.SessionKey
}

func (s *service) boxDTO(b models.SurpriseBox, withItems bool) BoxDTO {
	rules := b.Rules()
	dto := BoxDTO{
		ID:                b.ID,
		VendorID:          b.VendorID,
		BranchID:          b.BranchID,
		Title:             b.Title,
		Description:       b.Description,
		BoxType:           b.BoxType,
		OriginalValue:     b.OriginalValue,
		SellingPrice:      b.SellingPrice,
		DiscountPercent:   pricing.BoxDiscountPercent(b.OriginalValue, b.SellingPrice),
		TotalQuantity:     b.TotalQuantity,
		AvailableQuantity: availability.BoxAvailableQuantity(rules),
		AvailableFrom:     b.AvailableFrom.In(s.clock.Location()),
		AvailableUntil:    b.AvailableUntil.In(s.clock.Location()),
		PickupStart:       b.PickupStart,
		PickupEnd:         b.PickupEnd,
		Status:            b.Status,
		IsAvailable:       availability.BoxIsAvailable(rules, s.clock.Now()),
		IsPickupTime:      availability.BoxIsPickupTime(rules, clock.TimeOfDay(s.clock)),
	}
	if b.Vendor != nil {
		dto.VendorName = b.Vendor.Name
	}
	if b.Branch != nil {
		dto.BranchName = b.Branch.Name
		dto.BranchAddress = b.Branch.Address
	}
	if withItems {
		for _, bi := range b.Items {
			item := BoxItemDTO{ItemID: bi.ItemID, Quantity: bi.Quantity, Notes: bi.Notes}
			if bi.Item != nil {
				item.Title = bi.Item.Title
			}
			dto.Items = append(dto.Items, item)
		}
	}
	return dto
}

func reservationDTO(r models.BoxReservation) ReservationDTO {
	dto := ReservationDTO{
		ID:         r.ID,
		BoxID:      r.BoxID,
		Quantity:   r.Quantity,
		Status:     r.Status,
		PickupCode: r.PickupCode,
		CreatedAt:  r.CreatedAt,
		Total:      decimal.Zero,
	}
	if r.Box != nil {
		dto.BoxTitle = r.Box.Title
		dto.Total = r.Box.SellingPrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
	}
	return dto
}

func outOfStock(left int) error {
	if left < 0 {
		left = 0
	}
	return pkgerrors.New(pkgerrors.CodeOutOfStock, fmt.Sprintf("insufficient boxes, available: %d", left)).
		WithDetails(map[string]any{"available": left})
}

func notFoundOr(err error, entity, step string) error {
	if db.IsNotFound(err) || errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step)
}

func newPickupCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:pickupCodeSize])
}
