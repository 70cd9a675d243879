package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/surprisebag-backend/api/middleware"
	catalogsvc "github.com/angelmondragon/surprisebag-backend/internal/catalog"
	"github.com/angelmondragon/surprisebag-backend/pkg/auth"
	"github.com/angelmondragon/surprisebag-backend/pkg/pagination"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalogService struct {
	query      catalogsvc.ListQuery
	search     string
	lat, lng   float64
	owner      *types.Owner
	categoryIn catalogsvc.CreateCategoryInput
}

func (s *stubCatalogService) List(ctx context.Context, q catalogsvc.ListQuery) (*catalogsvc.Page, error) {
	s.query = q
	return &catalogsvc.Page{Items: []catalogsvc.ItemCard{}}, nil
}

func (s *stubCatalogService) Search(ctx context.Context, query string, page pagination.Params) (*catalogsvc.Page, error) {
	s.search = query
	return &catalogsvc.Page{Items: []catalogsvc.ItemCard{}}, nil
}

func (s *stubCatalogService) Item(ctx context.Context, id uuid.UUID) (*catalogsvc.ItemDetail, error) {
	return &catalogsvc.ItemDetail{ItemCard: catalogsvc.ItemCard{ID: id}}, nil
}

func (s *stubCatalogService) Nearby(ctx context.Context, lat, lng float64) ([]catalogsvc.NearbyItem, error) {
	s.lat, s.lng = lat, lng
	return []catalogsvc.NearbyItem{}, nil
}

func (s *stubCatalogService) Recommendations(ctx context.Context, owner *types.Owner) ([]catalogsvc.Recommendation, error) {
	s.owner = owner
	return []catalogsvc.Recommendation{}, nil
}

func (s *stubCatalogService) CreateItem(ctx context.Context, actor auth.Actor, vendorID uuid.UUID, input catalogsvc.CreateItemInput) (*catalogsvc.ItemDetail, error) {
	return &catalogsvc.ItemDetail{}, nil
}

func (s *stubCatalogService) CreateOffer(ctx context.Context, actor auth.Actor, itemID uuid.UUID, input catalogsvc.CreateOfferInput) (*catalogsvc.OfferDTO, error) {
	return &catalogsvc.OfferDTO{ItemID: itemID}, nil
}

func (s *stubCatalogService) WithdrawOffer(ctx context.Context, actor auth.Actor, offerID uuid.UUID) error {
	return nil
}

func (s *stubCatalogService) Categories(ctx context.Context) ([]catalogsvc.CategoryDTO, error) {
	return []catalogsvc.CategoryDTO{}, nil
}

func (s *stubCatalogService) CreateCategory(ctx context.Context, actor auth.Actor, input catalogsvc.CreateCategoryInput) (*catalogsvc.CategoryDTO, error) {
	s.categoryIn = input
	return &catalogsvc.CategoryDTO{Name: input.Name}, nil
}

func TestListParsesFilters(t *testing.T) {
	svc := &stubCatalogService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog?type=dishes&min_discount=30&price=2000%2B&category=bakery&sort=price&page=2", nil)

	resp := httptest.NewRecorder()
	List(svc, nil)(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "dishes", svc.query.Type)
	assert.Equal(t, "2000+", svc.query.PriceRange)
	assert.Equal(t, "bakery", svc.query.Category)
	assert.Equal(t, "price", svc.query.Sort)
	assert.Equal(t, 2, svc.query.Page)
	require.NotNil(t, svc.query.MinDiscount)
	assert.Equal(t, 30.0, *svc.query.MinDiscount)
}

func TestListRejectsBadDiscount(t *testing.T) {
	resp := httptest.NewRecorder()
	List(&stubCatalogService{}, nil)(resp, httptest.NewRequest(http.MethodGet, "/api/v1/catalog?min_discount=150", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSearchPassesQuery(t *testing.T) {
	svc := &stubCatalogService{}
	resp := httptest.NewRecorder()
	Search(svc, nil)(resp, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/search?q=%D1%85%D0%BB%D0%B5%D0%B1", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "хлеб", svc.search)
}

func TestNearbyRequiresCoordinates(t *testing.T) {
	svc := &stubCatalogService{}

	resp := httptest.NewRecorder()
	Nearby(svc, nil)(resp, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/nearby?lat=41.3", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = httptest.NewRecorder()
	Nearby(svc, nil)(resp, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/nearby?lat=41.3&lng=69.2", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 41.3, svc.lat)
	assert.Equal(t, 69.2, svc.lng)
}

func TestRecommendationsUseOwner(t *testing.T) {
	svc := &stubCatalogService{}

	resp := httptest.NewRecorder()
	Recommendations(svc, nil)(resp, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/recommendations", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Nil(t, svc.owner)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/recommendations", nil)
	req = req.WithContext(middleware.WithOwner(req.Context(), types.SessionOwner("anon")))
	resp = httptest.NewRecorder()
	Recommendations(svc, nil)(resp, req)
	require.NotNil(t, svc.owner)
	assert.Equal(t, "anon", svc.owner.SessionKey)
}

func TestCreateCategoryRequiresActor(t *testing.T) {
	svc := &stubCatalogService{}

	resp := httptest.NewRecorder()
	CreateCategory(svc, nil)(resp, httptest.NewRequest(http.MethodPost, "/api/v1/categories", strings.NewReader(`{"name":"Bakery"}`)))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/categories", strings.NewReader(`{"name":"Bakery"}`))
	req = req.WithContext(middleware.WithActor(req.Context(), auth.Actor{UserID: uuid.New(), Staff: true}))
	resp = httptest.NewRecorder()
	CreateCategory(svc, nil)(resp, req)
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "Bakery", svc.categoryIn.Name)
}
