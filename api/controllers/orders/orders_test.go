package orders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/surprisebag-backend/api/middleware"
	ordersvc "github.com/angelmondragon/surprisebag-backend/internal/orders"
	"github.com/angelmondragon/surprisebag-backend/pkg/auth"
	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/surprisebag-backend/pkg/errors"
	"github.com/angelmondragon/surprisebag-backend/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrderService struct {
	userID   uuid.UUID
	checkout ordersvc.CheckoutInput
	params   pagination.Params
	next     string
	err      error
}

func (s *stubOrderService) Checkout(ctx context.Context, userID uuid.UUID, input ordersvc.CheckoutInput) (*ordersvc.OrderDTO, error) {
	s.userID, s.checkout = userID, input
	if s.err != nil {
		return nil, s.err
	}
	return &ordersvc.OrderDTO{ID: uuid.New(), Status: enums.OrderStatusPending}, nil
}

func (s *stubOrderService) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ordersvc.OrderList, error) {
	s.userID, s.params = userID, params
	return &ordersvc.OrderList{Orders: []ordersvc.OrderDTO{}}, s.err
}

func (s *stubOrderService) Get(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*ordersvc.OrderDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ordersvc.OrderDTO{ID: orderID}, nil
}

func (s *stubOrderService) Transition(ctx context.Context, actor auth.Actor, orderID uuid.UUID, next string) (*ordersvc.OrderDTO, error) {
	s.next = next
	if s.err != nil {
		return nil, s.err
	}
	return &ordersvc.OrderDTO{ID: orderID, Status: enums.OrderStatus(next)}, nil
}

func authed(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), auth.Actor{UserID: userID}))
}

func withOrderID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCheckoutRequiresUser(t *testing.T) {
	resp := httptest.NewRecorder()
	Checkout(&stubOrderService{}, nil)(resp, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"delivery_type":"pickup"}`)))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCheckoutValidatesDeliveryType(t *testing.T) {
	resp := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"delivery_type":"drone"}`)), uuid.New())
	Checkout(&stubOrderService{}, nil)(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "delivery_type")
}

func TestCheckoutCreatesOrder(t *testing.T) {
	svc := &stubOrderService{}
	userID := uuid.New()
	body := `{"delivery_type":"delivery","delivery_address":"Tashkent, Amir Temur 1","payment_method":"cash"}`

	resp := httptest.NewRecorder()
	Checkout(svc, nil)(resp, authed(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body)), userID))

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, userID, svc.userID)
	assert.Equal(t, "Tashkent, Amir Temur 1", svc.checkout.DeliveryAddress)
}

func TestListParsesPaging(t *testing.T) {
	svc := &stubOrderService{}
	resp := httptest.NewRecorder()
	List(svc, nil)(resp, authed(httptest.NewRequest(http.MethodGet, "/api/v1/orders?page=2&limit=5", nil), uuid.New()))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, pagination.Params{Page: 2, Limit: 5}, svc.params)

	resp = httptest.NewRecorder()
	List(svc, nil)(resp, authed(httptest.NewRequest(http.MethodGet, "/api/v1/orders?page=x", nil), uuid.New()))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestTransitionConflict(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move order from delivered to pending")}
	req := withOrderID(authed(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"pending"}`)), uuid.New()), uuid.NewString())

	resp := httptest.NewRecorder()
	Transition(svc, nil)(resp, req)

	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "pending", svc.next)
}

func TestDetailRejectsBadID(t *testing.T) {
	resp := httptest.NewRecorder()
	Detail(&stubOrderService{}, nil)(resp, withOrderID(authed(httptest.NewRequest(http.MethodGet, "/", nil), uuid.New()), "123"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
