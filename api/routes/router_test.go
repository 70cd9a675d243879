package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/surprisebag-backend/internal/boxes"
	"github.com/angelmondragon/surprisebag-backend/internal/cart"
	"github.com/angelmondragon/surprisebag-backend/internal/catalog"
	"github.com/angelmondragon/surprisebag-backend/internal/orders"
	"github.com/angelmondragon/surprisebag-backend/internal/vendors"
	"github.com/angelmondragon/surprisebag-backend/pkg/auth"
	"github.com/angelmondragon/surprisebag-backend/pkg/config"
	"github.com/angelmondragon/surprisebag-backend/pkg/logger"
	"github.com/angelmondragon/surprisebag-backend/pkg/metrics"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

// Embedding the interfaces keeps the stubs small; unexercised methods panic.
type stubVendors struct{ vendors.Service }

func (stubVendors) List(context.Context) ([]vendors.VendorDTO, error) {
	return []vendors.VendorDTO{}, nil
}

type stubCatalog struct{ catalog.Service }

type stubBoxes struct{ boxes.Service }

func (stubBoxes) Reservations(ctx context.Context, owner types.Owner) ([]boxes.ReservationDTO, error) {
	return []boxes.ReservationDTO{}, nil
}

func (stubBoxes) ClaimSession(ctx context.Context, sessionKey string, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubCart struct{ cart.Service }

func (stubCart) Summary(ctx context.Context, owner types.Owner) (*cart.Summary, error) {
	return &cart.Summary{}, nil
}

func (stubCart) Merge(ctx context.Context, sessionKey string, userID uuid.UUID) (int, error) {
	return 0, nil
}

type stubOrders struct{ orders.Service }

func (stubOrders) Get(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{ID: orderID}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Env: "test", Port: "0", CORSOrigins: []string{"http://localhost:3000"}},
		JWT:    config.JWTConfig{Secret: "secret", Issuer: "issuer"},
		Market: config.MarketConfig{SessionCookie: "sb_session", SessionCookieTTL: time.Hour},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	reg := prometheus.NewRegistry()
	metrics.NewMarketplaceMetrics(reg).IncReservation(metrics.OutcomeSuccess)
	return NewRouter(cfg, logg, stubPinger{}, nil, reg,
		stubVendors{}, stubCatalog{}, stubBoxes{}, stubCart{}, stubOrders{})
}

func bearer(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, auth.Actor{UserID: uuid.New()}, time.Hour, time.Now())
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t, testConfig())

	assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/health/ready", nil)).Code)

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "surprisebag_box_reservations_total")
}

func TestPublicRoutesAllowAnonymous(t *testing.T) {
	router := newTestRouter(t, testConfig())

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/vendors", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Set-Cookie"), "sb_session=")

	resp = serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestProtectedRoutesRequireJWT(t *testing.T) {
	router := newTestRouter(t, testConfig())

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/checkout"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodPost, "/api/v1/vendors"},
		{http.MethodPost, "/api/v1/categories"},
		{http.MethodPost, "/api/v1/reservations/" + uuid.NewString() + "/collect"},
		{http.MethodDelete, "/api/v1/offers/" + uuid.NewString()},
	}
	for _, tc := range cases {
		resp := serve(router, httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}")))
		assert.Equal(t, http.StatusUnauthorized, resp.Code, "%s %s", tc.method, tc.path)
	}
}

func TestOrderDetailWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", bearer(t, cfg))
	resp := serve(router, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, resp.Header().Get("Set-Cookie"))
}

func TestInvalidTokenRejectedOnPublicRoute(t *testing.T) {
	router := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vendors", nil)
	req.Header.Set("Authorization", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, serve(router, req).Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart/items", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := serve(router, req)

	assert.Equal(t, "http://localhost:3000", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header().Get("Access-Control-Allow-Credentials"))
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	router := newTestRouter(t, testConfig())
	assert.Equal(t, http.StatusNotFound, serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)).Code)
}
