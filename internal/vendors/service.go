package vendors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/surprisebag-backend/pkg/auth"
	"github.com/angelmondragon/surprisebag-backend/pkg/clock"
	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/surprisebag-backend/pkg/errors"
	"github.com/angelmondragon/surprisebag-backend/pkg/schedule"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type vendorRepository interface {
	ListActive(ctx context.Context) ([]models.Vendor, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	FindBranch(ctx context.Context, vendorID, branchID uuid.UUID) (*models.Branch, error)
	Create(ctx context.Context, vendor *models.Vendor) error
	CreateBranch(ctx context.Context, branch *models.Branch) error
	Deactivate(ctx context.Context, id uuid.UUID) (bool, error)
	ListLocatedBranches(ctx context.Context) ([]models.Branch, error)
}

// Service exposes vendor browsing and management.
type Service interface {
	List(ctx context.Context) ([]VendorDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*VendorDTO, error)
	Locations(ctx context.Context) ([]LocationDTO, error)
	Create(ctx context.Context, actor auth.Actor, input CreateVendorInput) (*VendorDTO, error)
	AddBranch(ctx context.Context, actor auth.Actor, vendorID uuid.UUID, input CreateBranchInput) (*BranchDTO, error)
	Deactivate(ctx context.Context, actor auth.Actor, vendorID uuid.UUID) error
	Authorize(ctx context.Context, actor auth.Actor, vendorID uuid.UUID) (*models.Vendor, error)
	AuthorizeBranch(ctx context.Context, actor auth.Actor, vendorID, branchID uuid.UUID) (*models.Branch, error)
}

type service struct {
	repo      vendorRepository
	clock     clock.Clock
	evaluator schedule.Evaluator
}

// NewService builds the vendor service.
func NewService(repo vendorRepository, clk clock.Clock) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	if clk == nil {
		return nil, fmt.Errorf("clock required")
	}
	return &service{
		repo:      repo,
		clock:     clk,
		evaluator: schedule.NewEvaluator(clk.Location()),
	}, nil
}

func (s *service) List(ctx context.Context) ([]VendorDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}
	out := make([]VendorDTO, 0, len(rows))
	for _, v := range rows {
		out = append(out, s.vendorDTO(v))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*VendorDTO, error) {
	vendor, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !vendor.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	dto := s.vendorDTO(*vendor)
	return &dto, nil
}

func (s *service) Locations(ctx context.Context) ([]LocationDTO, error) {
	rows, err := s.repo.ListLocatedBranches(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor locations")
	}
	now := s.clock.Now()
	out := make([]LocationDTO, 0, len(rows))
	for _, b := range rows {
		if !b.HasCoordinates() || b.Vendor == nil {
			continue
		}
		out = append(out, LocationDTO{
			VendorID:   b.VendorID,
			VendorName: b.Vendor.Name,
			VendorType: b.Vendor.Type,
			BranchID:   b.ID,
			BranchName: b.Name,
			Address:    b.Address,
			Latitude:   *b.Latitude,
			Longitude:  *b.Longitude,
			IsOpen:     s.evaluator.IsOpenNow(b.Week(), now),
		})
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateVendorInput) (*VendorDTO, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	vendorType, err := enums.ParseVendorType(strings.TrimSpace(input.Type))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor type")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	ownerID := actor.UserID
	if input.OwnerID != nil && *input.OwnerID != uuid.Nil && *input.OwnerID != actor.UserID {
		if !actor.Staff {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only staff may register vendors for other users")
		}
		ownerID = *input.OwnerID
	}

	vendor := &models.Vendor{
		OwnerID:     ownerID,
		Type:        vendorType,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, vendor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor")
	}
	dto := s.vendorDTO(*vendor)
	return &dto, nil
}

func (s *service) AddBranch(ctx context.Context, actor auth.Actor, vendorID uuid.UUID, input CreateBranchInput) (*BranchDTO, error) {
	if _, err := s.Authorize(ctx, actor, vendorID); err != nil {
		return nil, err
	}
	if (input.Latitude == nil) != (input.Longitude == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "latitude and longitude must be provided together")
	}
	hours, err := ParseOpeningHours(input.OpeningHours)
	if err != nil {
		return nil, err
	}

	branch := &models.Branch{
		VendorID:     vendorID,
		Name:         strings.TrimSpace(input.Name),
		Address:      strings.TrimSpace(input.Address),
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		Phone:        strings.TrimSpace(input.Phone),
		OpeningHours: hours,
		IsActive:     true,
	}
	if err := s.repo.CreateBranch(ctx, branch); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create branch")
	}
	dto := branchDTO(*branch, s.evaluator.StatusAt(branch.Week(), s.clock.Now()))
	return &dto, nil
}

func (s *service) Deactivate(ctx context.Context, actor auth.Actor, vendorID uuid.UUID) error {
	if _, err := s.Authorize(ctx, actor, vendorID); err != nil {
		return err
	}
	ok, err := s.repo.Deactivate(ctx, vendorID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate vendor")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	return nil
}

// Authorize loads the vendor and checks the actor may manage it.
func (s *service) Authorize(ctx context.Context, actor auth.Actor, vendorID uuid.UUID) (*models.Vendor, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	vendor, err := s.load(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(vendor.OwnerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor is managed by another account")
	}
	return vendor, nil
}

// AuthorizeBranch checks vendor access and that branchID belongs to it.
func (s *service) AuthorizeBranch(ctx context.Context, actor auth.Actor, vendorID, branchID uuid.UUID) (*models.Branch, error) {
	if _, err := s.Authorize(ctx, actor, vendorID); err != nil {
		return nil, err
	}
	branch, err := s.repo.FindBranch(ctx, vendorID, branchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch does not belong to vendor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
	}
	return branch, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return vendor, nil
}

func (s *service) vendorDTO(v models.Vendor) VendorDTO {
	now := s.clock.Now()
	branches := make([]BranchDTO, 0, len(v.Branches))
	for _, b := range v.Branches {
		branches = append(branches, branchDTO(b, s.evaluator.StatusAt(b.Week(), now)))
	}
	return VendorDTO{
		ID:          v.ID,
		Type:        v.Type,
		Name:        v.Name,
		Description: v.Description,
		Rating:      v.Rating,
		IsActive:    v.IsActive,
		Branches:    branches,
		CreatedAt:   v.CreatedAt,
	}
}

// ParseOpeningHours accepts a JSON object of weekday entries. Empty input and
// null yield an empty schedule; any other non-object is rejected. Individual
// entries are not validated here, the evaluator treats bad ones as closed.
func ParseOpeningHours(raw json.RawMessage) (types.OpeningHours, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return types.OpeningHours{}, nil
	}
	if trimmed[0] != '{' {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "opening_hours must be a JSON object")
	}
	var hours types.OpeningHours
	if err := json.Unmarshal(trimmed, &hours); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "opening_hours must be a JSON object")
	}
	return hours, nil
}
