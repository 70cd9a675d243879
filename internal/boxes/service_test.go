package boxes

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/surprisebag-backend/internal/vendors"
	"github.com/angelmondragon/surprisebag-backend/pkg/auth"
	"github.com/angelmondragon/surprisebag-backend/pkg/clock"
	"github.com/angelmondragon/surprisebag-backend/pkg/db"
	"github.com/angelmondragon/surprisebag-backend/pkg/db/dbtest"
	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/surprisebag-backend/pkg/errors"
	"github.com/angelmondragon/surprisebag-backend/pkg/metrics"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var tashkent = time.FixedZone("UTC+5", 5*60*60)

// Wednesday 2025-06-11 14:30 in the market zone.
var now = time.Date(2025, 6, 11, 14, 30, 0, 0, tashkent)

type fixture struct {
	svc    Service
	repo   *Repository
	client *db.Client
	conn   *gorm.DB
	vendor *models.Vendor
	branch *models.Branch
	owner  auth.Actor
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	clk := clock.Fixed(now, tashkent)
	vendorSvc, err := vendors.NewService(vendors.NewRepository(client.DB()), clk)
	require.NoError(t, err)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo, client, vendorSvc, clk, metrics.NewMarketplaceMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)

	vendor := dbtest.Vendor(t, client.DB())
	return fixture{
		svc:    svc,
		repo:   repo,
		client: client,
		conn:   client.DB(),
		vendor: vendor,
		branch: dbtest.Branch(t, client.DB(), vendor),
		owner:  auth.Actor{UserID: vendor.OwnerID},
	}
}

func pickup(start, end int) func(*models.SurpriseBox) {
	return func(b *models.SurpriseBox) {
		s, e := types.NewTimeOfDay(start, 0), types.NewTimeOfDay(end, 0)
		b.PickupStart, b.PickupEnd = &s, &e
	}
}

func quantity(n int) func(*models.SurpriseBox) {
	return func(b *models.SurpriseBox) { b.TotalQuantity = n }
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	client := dbtest.Open(t)
	clk := clock.Fixed(now, tashkent)
	vendorSvc, err := vendors.NewService(vendors.NewRepository(client.DB()), clk)
	require.NoError(t, err)
	repo := NewRepository(client.DB())

	_, err = NewService(nil, client, vendorSvc, clk, nil)
	assert.Error(t, err)
	_, err = NewService(repo, nil, vendorSvc, clk, nil)
	assert.Error(t, err)
	_, err = NewService(repo, client, nil, clk, nil)
	assert.Error(t, err)
	_, err = NewService(repo, client, vendorSvc, nil, nil)
	assert.Error(t, err)
	_, err = NewService(repo, client, vendorSvc, clk, nil)
	assert.NoError(t, err)
}

func TestCreateValidatesBox(t *testing.T) {
	f := newFixture(t)
	bread := dbtest.Item(t, f.conn, f.branch)
	cake := dbtest.Item(t, f.conn, f.branch, func(i *models.Item) { i.Title = "Cake" })
	other := dbtest.Item(t, f.conn, dbtest.Branch(t, f.conn, dbtest.Vendor(t, f.conn)))

	valid := func() CreateBoxInput {
		start, end := types.NewTimeOfDay(18, 0), types.NewTimeOfDay(20, 0)
		return CreateBoxInput{
			BranchID:       f.branch.ID,
			Title:          " Evening box ",
			BoxType:        "bakery",
			OriginalValue:  decimal.NewFromInt(60000),
			SellingPrice:   decimal.NewFromInt(25000),
			TotalQuantity:  5,
			AvailableFrom:  now,
			AvailableUntil: now.Add(6 * time.Hour),
			PickupStart:    &start,
			PickupEnd:      &end,
			Items: []CreateItemInput{
				{ItemID: bread.ID, Quantity: 2},
				{ItemID: cake.ID},
			},
		}
	}

	created, err := f.svc.Create(context.Background(), f.owner, f.vendor.ID, valid())
	require.NoError(t, err)
	assert.Equal(t, "Evening box", created.Title)
	assert.Equal(t, enums.BoxTypeBakery, created.BoxType)
	assert.True(t, decimal.RequireFromString("58.3").Equal(created.DiscountPercent), created.DiscountPercent.String())
	assert.Equal(t, 5, created.AvailableQuantity)
	assert.True(t, created.IsAvailable)
	assert.False(t, created.IsPickupTime)
	assert.Len(t, created.Items, 2)

	cases := map[string]struct {
		mutate func(*CreateBoxInput)
		code   pkgerrors.Code
	}{
		"price not below value": {func(in *CreateBoxInput) { in.SellingPrice = in.OriginalValue }, pkgerrors.CodeValidation},
		"window reversed":       {func(in *CreateBoxInput) { in.AvailableUntil = in.AvailableFrom }, pkgerrors.CodeValidation},
		"pickup reversed": {func(in *CreateBoxInput) {
			in.PickupStart, in.PickupEnd = in.PickupEnd, in.PickupStart
		}, pkgerrors.CodeValidation},
		"pickup half set": {func(in *CreateBoxInput) { in.PickupEnd = nil }, pkgerrors.CodeValidation},
		"one distinct item": {func(in *CreateBoxInput) {
			in.Items = []CreateItemInput{{ItemID: bread.ID}, {ItemID: bread.ID}}
		}, pkgerrors.CodeValidation},
		"foreign item": {func(in *CreateBoxInput) {
			in.Items = []CreateItemInput{{ItemID: bread.ID}, {ItemID: other.ID}}
		}, pkgerrors.CodeValidation},
		"unknown type":   {func(in *CreateBoxInput) { in.BoxType = "gadgets" }, pkgerrors.CodeValidation},
		"foreign branch": {func(in *CreateBoxInput) { in.BranchID = other.BranchID }, pkgerrors.CodeValidation},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid()
			tc.mutate(&in)
			_, err := f.svc.Create(context.Background(), f.owner, f.vendor.ID, in)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), err.Error())
		})
	}

	_, err = f.svc.Create(context.Background(), auth.Actor{UserID: uuid.New()}, f.vendor.ID, valid())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestListShowsOnlyReservableBoxes(t *testing.T) {
	f := newFixture(t)
	open := dbtest.Box(t, f.conn, f.branch, now)
	dbtest.Box(t, f.conn, f.branch, now, func(b *models.SurpriseBox) {
		b.AvailableFrom, b.AvailableUntil = now.Add(2*time.Hour), now.Add(5*time.Hour)
	})
	dbtest.Box(t, f.conn, f.branch, now, func(b *models.SurpriseBox) { b.SoldQuantity = b.TotalQuantity })
	dbtest.Box(t, f.conn, f.branch, now, func(b *models.SurpriseBox) { b.IsActive = false })

	rows, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, open.ID, rows[0].ID)
	assert.Equal(t, f.vendor.Name, rows[0].VendorName)
}

func TestReserveClaimsStock(t *testing.T) {
	f := newFixture(t)
	box := dbtest.Box(t, f.conn, f.branch, now)
	buyer := types.SessionOwner("sess-1")

	res, err := f.svc.Reserve(context.Background(), buyer, box.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, enums.ReservationStatusReserved, res.Status)
	assert.Len(t, res.PickupCode, 8)
	assert.True(t, decimal.NewFromInt(40000).Equal(res.Total))

	_, err = f.svc.Reserve(context.Background(), buyer, box.ID, 2)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock))

	detail, err := f.svc.Get(context.Background(), box.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.AvailableQuantity)

	mine, err := f.svc.Reservations(context.Background(), buyer)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, res.ID, mine[0].ID)

	others, err := f.svc.Reservations(context.Background(), types.SessionOwner("sess-2"))
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestReserveRejectsBoxOutsideWindow(t *testing.T) {
	f := newFixture(t)
	box := dbtest.Box(t, f.conn, f.branch, now, func(b *models.SurpriseBox) {
		b.AvailableFrom, b.AvailableUntil = now.Add(-5*time.Hour), now.Add(-time.Hour)
	})

	_, err := f.svc.Reserve(context.Background(), types.SessionOwner("sess"), box.ID, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.Reserve(context.Background(), types.SessionOwner("sess"), uuid.New(), 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Reserve(context.Background(), types.Owner{}, box.ID, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestReserveStockIsConditional(t *testing.T) {
	f := newFixture(t)
	box := dbtest.Box(t, f.conn, f.branch, now, quantity(1))

	ok, err := f.repo.ReserveStock(context.Background(), box.ID, 1, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.repo.ReserveStock(context.Background(), box.ID, 1, now)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.repo.ReserveStock(context.Background(), box.ID, 1, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentReservationsNeverOversell(t *testing.T) {
	f := newFixture(t)
	box := dbtest.Box(t, f.conn, f.branch, now, quantity(1))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Reserve(context.Background(), types.UserOwner(uuid.New()), box.ID, 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock), err.Error())
	}
	assert.Equal(t, 1, succeeded)

	var stored models.SurpriseBox
	require.NoError(t, f.conn.First(&stored, "id = ?", box.ID).Error)
	assert.Equal(t, 1, stored.ReservedQuantity)
}

func TestCollectMovesStockToSold(t *testing.T) {
	f := newFixture(t)
	box := dbtest.Box(t, f.conn, f.branch, now, quantity(1), pickup(14, 16))
	buyer := types.UserOwner(uuid.New())

	res, err := f.svc.Reserve(context.Background(), buyer, box.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.Collect(context.Background(), auth.Actor{UserID: uuid.New()}, res.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	collected, err := f.svc.Collect(context.Background(), f.owner, res.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReservationStatusCollected, collected.Status)

	var stored models.SurpriseBox
	require.NoError(t, f.conn.First(&stored, "id = ?", box.ID).Error)
	assert.Equal(t, 0, stored.ReservedQuantity)
	assert.Equal(t, 1, stored.SoldQuantity)
	assert.Equal(t, enums.OfferStatusSoldOut, stored.Status)

	_, err = f.svc.Collect(context.Background(), f.owner, res.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestCollectOutsidePickupWindow(t *testing.T) {
	f := newFixture(t)
	box := dbtest.Box(t, f.conn, f.branch, now, pickup(18, 20))
	res, err := f.svc.Reserve(context.Background(), types.SessionOwner("sess"), box.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.Collect(context.Background(), f.owner, res.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestCancelReleasesStock(t *testing.T) {
	f := newFixture(t)
	box := dbtest.Box(t, f.conn, f.branch, now)
	buyer := types.SessionOwner("sess")
	res, err := f.svc.Reserve(context.Background(), buyer, box.ID, 3)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), Caller{Owner: types.SessionOwner("intruder")}, res.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	cancelled, err := f.svc.Cancel(context.Background(), Caller{Owner: buyer}, res.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReservationStatusCancelled, cancelled.Status)

	detail, err := f.svc.Get(context.Background(), box.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, detail.AvailableQuantity)

	_, err = f.svc.Cancel(context.Background(), Caller{Owner: buyer}, res.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestVendorCanCancelReservation(t *testing.T) {
	f := newFixture(t)
	box := dbtest.Box(t, f.conn, f.branch, now)
	res, err := f.svc.Reserve(context.Background(), types.SessionOwner("sess"), box.ID, 1)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), Caller{Actor: f.owner}, res.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReservationStatusCancelled, cancelled.Status)
}

func TestPickupQRRendersPNG(t *testing.T) {
	f := newFixture(t)
	box := dbtest.Box(t, f.conn, f.branch, now)
	buyer := types.SessionOwner("sess")
	res, err := f.svc.Reserve(context.Background(), buyer, box.ID, 1)
	require.NoError(t, err)

	png, err := f.svc.PickupQR(context.Background(), buyer, res.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = f.svc.PickupQR(context.Background(), types.SessionOwner("other"), res.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestClaimSessionMovesReservationsToUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	box := dbtest.Box(t, f.conn, f.branch, now)
	anon := types.SessionOwner("anon1")
	res, err := f.svc.Reserve(ctx, anon, box.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.Reserve(ctx, types.SessionOwner("anon2"), box.ID, 1)
	require.NoError(t, err)

	userID := uuid.New()
	user := types.UserOwner(userID)
	moved, err := f.svc.ClaimSession(ctx, "anon1", userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), moved)

	mine, err := f.svc.Reservations(ctx, user)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, res.ID, mine[0].ID)

	left, err := f.svc.Reservations(ctx, anon)
	require.NoError(t, err)
	assert.Empty(t, left)

	png, err := f.svc.PickupQR(ctx, user, res.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	cancelled, err := f.svc.Cancel(ctx, Caller{Owner: user, Actor: auth.Actor{UserID: userID}}, res.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReservationStatusCancelled, cancelled.Status)

	moved, err = f.svc.ClaimSession(ctx, "anon1", userID)
	require.NoError(t, err)
	assert.Zero(t, moved)

	others, err := f.svc.Reservations(ctx, types.SessionOwner("anon2"))
	require.NoError(t, err)
	assert.Len(t, others, 1)
}
