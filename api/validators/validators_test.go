package validators

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/surprisebag-backend/pkg/errors"
)

type lineInput struct {
	Quantity int `json:"quantity" validate:"min=1"`
}

type offerInput struct {
	Price     decimal.Decimal `json:"price" validate:"gt=0"`
	StartDate string          `json:"start_date" validate:"required,civildate"`
	EndDate   string          `json:"end_date" validate:"omitempty,civildate"`
	Kind      string          `json:"kind" validate:"omitempty,oneof=delivery pickup"`
	Lines     []lineInput     `json:"lines" validate:"dive"`
}

func decode(t *testing.T, body string) (offerInput, error) {
	t.Helper()
	var in offerInput
	err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), &in)
	return in, err
}

func validationDetails(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok, "details should map fields to messages")
	return details
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	in, err := decode(t, `{"price":"12.50","start_date":"2026-03-01","lines":[{"quantity":2}]}`)
	require.NoError(t, err)
	assert.True(t, in.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 2, in.Lines[0].Quantity)
}

func TestDecodeJSONBodyReportsFieldErrorsByJSONPath(t *testing.T) {
	_, err := decode(t, `{"price":"0","start_date":"01/03/2026","end_date":"2026-02-30","kind":"drone","lines":[{"quantity":0}]}`)
	details := validationDetails(t, err)
	assert.Equal(t, "must be greater than 0", details["price"])
	assert.Equal(t, "must be a date in YYYY-MM-DD format", details["start_date"])
	assert.Equal(t, "must be a date in YYYY-MM-DD format", details["end_date"])
	assert.Equal(t, "must be one of: delivery, pickup", details["kind"])
	assert.Equal(t, "must be at least 1", details["lines[0].quantity"])
}

func TestDecodeJSONBodyRejectsMalformedBodies(t *testing.T) {
	_, err := decode(t, `{"price":"1","start_date":"2026-03-01","extra":true}`)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = decode(t, `{"price":"1","start_date":"2026-03-01"}{"price":"2"}`)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = decode(t, "")
	assert.True(t, errors.Is(err, io.EOF))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryFloat(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?lat=41.31&lng=abc&far=200", nil)

	v, ok, err := ParseQueryFloat(req, "lat", -90, 90)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 41.31, v, 1e-9)

	_, ok, err = ParseQueryFloat(req, "missing", -90, 90)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ParseQueryFloat(req, "lng", -180, 180)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, _, err = ParseQueryFloat(req, "far", -180, 180)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParsePage(t *testing.T) {
	p, err := ParsePage(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 0, p.Limit)

	p, err = ParsePage(httptest.NewRequest(http.MethodGet, "/?page=3&limit=24", nil))
	require.NoError(t, err)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 24, p.Limit)

	_, err = ParsePage(httptest.NewRequest(http.MethodGet, "/?page=0", nil))
	assert.Error(t, err)
	_, err = ParsePage(httptest.NewRequest(http.MethodGet, "/?limit=1000", nil))
	assert.Error(t, err)
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("boxID", value)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	got, err := ParseUUIDParam(withParam(id.String()), "boxID")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUIDParam(withParam("not-a-uuid"), "boxID")
	require.Error(t, err)
	assert.Equal(t, "invalid boxID", pkgerrors.As(err).Message())
}
