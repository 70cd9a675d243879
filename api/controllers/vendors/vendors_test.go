package vendors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/surprisebag-backend/api/middleware"
	vendorsvc "github.com/angelmondragon/surprisebag-backend/internal/vendors"
	"github.com/angelmondragon/surprisebag-backend/pkg/auth"
	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/surprisebag-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVendorService struct {
	actor       auth.Actor
	created     vendorsvc.CreateVendorInput
	branch      vendorsvc.CreateBranchInput
	deactivated uuid.UUID
	err         error
}

func (s *stubVendorService) List(ctx context.Context) ([]vendorsvc.VendorDTO, error) {
	return []vendorsvc.VendorDTO{}, s.err
}

func (s *stubVendorService) Get(ctx context.Context, id uuid.UUID) (*vendorsvc.VendorDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &vendorsvc.VendorDTO{ID: id}, nil
}

func (s *stubVendorService) Locations(ctx context.Context) ([]vendorsvc.LocationDTO, error) {
	return []vendorsvc.LocationDTO{}, s.err
}

func (s *stubVendorService) Create(ctx context.Context, actor auth.Actor, input vendorsvc.CreateVendorInput) (*vendorsvc.VendorDTO, error) {
	s.actor, s.created = actor, input
	return &vendorsvc.VendorDTO{ID: uuid.New(), Name: input.Name}, s.err
}

func (s *stubVendorService) AddBranch(ctx context.Context, actor auth.Actor, vendorID uuid.UUID, input vendorsvc.CreateBranchInput) (*vendorsvc.BranchDTO, error) {
	s.actor, s.branch = actor, input
	return &vendorsvc.BranchDTO{ID: uuid.New(), Name: input.Name}, s.err
}

func (s *stubVendorService) Deactivate(ctx context.Context, actor auth.Actor, vendorID uuid.UUID) error {
	s.actor, s.deactivated = actor, vendorID
	return s.err
}

func (s *stubVendorService) Authorize(ctx context.Context, actor auth.Actor, vendorID uuid.UUID) (*models.Vendor, error) {
	return nil, nil
}

func (s *stubVendorService) AuthorizeBranch(ctx context.Context, actor auth.Actor, vendorID, branchID uuid.UUID) (*models.Branch, error) {
	return nil, nil
}

func actorRequest(method, body string, actor auth.Actor, vendorID string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	ctx := middleware.WithActor(req.Context(), actor)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("vendorId", vendorID)
	return req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
}

func TestCreateVendor(t *testing.T) {
	svc := &stubVendorService{}
	actor := auth.Actor{UserID: uuid.New()}

	resp := httptest.NewRecorder()
	Create(svc, nil)(resp, actorRequest(http.MethodPost, `{"type":"cafe","name":"Non Bakery"}`, actor, ""))

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, actor, svc.actor)
	assert.Equal(t, "Non Bakery", svc.created.Name)
}

func TestCreateVendorValidation(t *testing.T) {
	resp := httptest.NewRecorder()
	Create(&stubVendorService{}, nil)(resp, actorRequest(http.MethodPost, `{"type":"cafe"}`, auth.Actor{UserID: uuid.New()}, ""))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), `"name":"is required"`)
}

func TestAddBranchKeepsOpeningHoursRaw(t *testing.T) {
	svc := &stubVendorService{}
	body := `{"name":"Chilonzor","address":"Bunyodkor 5","opening_hours":{"monday":{"open":"09:00","close":"21:00"}}}`

	resp := httptest.NewRecorder()
	AddBranch(svc, nil)(resp, actorRequest(http.MethodPost, body, auth.Actor{UserID: uuid.New()}, uuid.NewString()))

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.JSONEq(t, `{"monday":{"open":"09:00","close":"21:00"}}`, string(svc.branch.OpeningHours))
}

func TestDeactivateForbidden(t *testing.T) {
	svc := &stubVendorService{err: pkgerrors.New(pkgerrors.CodeForbidden, "not your vendor")}
	vendorID := uuid.New()

	resp := httptest.NewRecorder()
	Deactivate(svc, nil)(resp, actorRequest(http.MethodPost, "", auth.Actor{UserID: uuid.New()}, vendorID.String()))

	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, vendorID, svc.deactivated)
}

func TestDetailRejectsBadID(t *testing.T) {
	resp := httptest.NewRecorder()
	Detail(&stubVendorService{}, nil)(resp, actorRequest(http.MethodGet, "", auth.Actor{}, "abc"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
