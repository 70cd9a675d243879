package vendors

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	"github.com/angelmondragon/surprisebag-backend/pkg/schedule"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
	"github.com/google/uuid"
)

// VendorDTO is the public view of a vendor.
type VendorDTO struct {
	ID          uuid.UUID        `json:"id"`
	Type        enums.VendorType `json:"type"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Rating      float64          `json:"rating"`
	IsActive    bool             `json:"is_active"`
	Branches    []BranchDTO      `json:"branches"`
	CreatedAt   time.Time        `json:"created_at"`
}

// BranchDTO carries a branch and its current opening status.
type BranchDTO struct {
	ID           uuid.UUID          `json:"id"`
	Name         string             `json:"name"`
	Address      string             `json:"address"`
	Latitude     *float64           `json:"latitude"`
	Longitude    *float64           `json:"longitude"`
	Phone        string             `json:"phone"`
	OpeningHours types.OpeningHours `json:"opening_hours"`
	IsOpen       bool               `json:"is_open"`
	ClosingTime  string             `json:"closing_time"`
	Hours        string             `json:"hours"`
}

// LocationDTO is one pin on the vendor map.
type LocationDTO struct {
	VendorID   uuid.UUID        `json:"vendor_id"`
	VendorName string           `json:"vendor_name"`
	VendorType enums.VendorType `json:"vendor_type"`
	BranchID   uuid.UUID        `json:"branch_id"`
	BranchName string           `json:"branch_name"`
	Address    string           `json:"address"`
	Latitude   float64          `json:"latitude"`
	Longitude  float64          `json:"longitude"`
	IsOpen     bool             `json:"is_open"`
}

// CreateVendorInput is the payload for registering a vendor. OwnerID is only
// honoured for staff callers.
type CreateVendorInput struct {
	Type        string     `json:"type" validate:"required"`
	Name        string     `json:"name" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	OwnerID     *uuid.UUID `json:"owner_id,omitempty"`
}

// CreateBranchInput is the payload for adding a branch.
type CreateBranchInput struct {
	Name         string          `json:"name" validate:"required,max=200"`
	Address      string          `json:"address" validate:"required,max=500"`
	Latitude     *float64        `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude    *float64        `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Phone        string          `json:"phone" validate:"max=32"`
	OpeningHours json.RawMessage `json:"opening_hours"`
}

func branchDTO(b models.Branch, status schedule.Status) BranchDTO {
	return BranchDTO{
		ID:           b.ID,
		Name:         b.Name,
		Address:      b.Address,
		Latitude:     b.Latitude,
		Longitude:    b.Longitude,
		Phone:        b.Phone,
		OpeningHours: b.OpeningHours,
		IsOpen:       status.IsOpen,
		ClosingTime:  status.ClosingTime,
		Hours:        status.TodayHours,
	}
}
