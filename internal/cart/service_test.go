package cart

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/surprisebag-backend/pkg/config"
	"github.com/angelmondragon/surprisebag-backend/pkg/db/dbtest"
	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/surprisebag-backend/pkg/errors"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var start = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()), client, config.MarketConfig{DeliveryFee: decimal.NewFromInt(5000)})
	require.NoError(t, err)
	return svc, client.DB()
}

func limited(n int) func(*models.Offer) {
	return func(o *models.Offer) { o.Quantity = n }
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil, config.MarketConfig{})
	require.Error(t, err)
	_, err = NewService(NewRepository(nil), nil, config.MarketConfig{})
	require.Error(t, err)
}

func TestAddMergesLinesAndChecksStock(t *testing.T) {
	svc, conn := newTestService(t)
	item := dbtest.Item(t, conn, dbtest.Branch(t, conn, dbtest.Vendor(t, conn)))
	offer := dbtest.Offer(t, conn, item, start, limited(5))
	owner := types.SessionOwner("sess-1")
	ctx := context.Background()

	res, err := svc.Add(ctx, owner, AddInput{OfferID: offer.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Line.Quantity)
	assert.Equal(t, int64(1), res.CartCount)
	assert.Equal(t, "Bread added to cart", res.Message)
	assert.True(t, decimal.NewFromInt(14000).Equal(res.Line.TotalPrice), res.Line.TotalPrice.String())

	res, err = svc.Add(ctx, owner, AddInput{OfferID: offer.ID, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Line.Quantity)
	assert.Equal(t, int64(1), res.CartCount)

	_, err = svc.Add(ctx, owner, AddInput{OfferID: offer.ID, Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "insufficient stock, available: 5")

	_, err = svc.Add(ctx, owner, AddInput{OfferID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Add(ctx, types.Owner{}, AddInput{OfferID: offer.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestAddRejectsInactiveAndSoldOutOffers(t *testing.T) {
	svc, conn := newTestService(t)
	item := dbtest.Item(t, conn, dbtest.Branch(t, conn, dbtest.Vendor(t, conn)))
	withdrawn := dbtest.Offer(t, conn, item, start, func(o *models.Offer) { o.IsActive = false })
	soldOut := dbtest.Offer(t, conn, item, start, func(o *models.Offer) { o.Status = enums.OfferStatusSoldOut })
	owner := types.SessionOwner("sess")

	_, err := svc.Add(context.Background(), owner, AddInput{OfferID: withdrawn.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Add(context.Background(), owner, AddInput{OfferID: soldOut.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "available: 0")
}

func TestUpdateAndRemoveAreOwnerScoped(t *testing.T) {
	svc, conn := newTestService(t)
	item := dbtest.Item(t, conn, dbtest.Branch(t, conn, dbtest.Vendor(t, conn)))
	offer := dbtest.Offer(t, conn, item, start, limited(4))
	owner := types.UserOwner(uuid.New())
	stranger := types.UserOwner(uuid.New())
	ctx := context.Background()

	res, err := svc.Add(ctx, owner, AddInput{OfferID: offer.ID})
	require.NoError(t, err)

	_, err = svc.Update(ctx, stranger, res.Line.ID, 2)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Update(ctx, owner, res.Line.ID, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Update(ctx, owner, res.Line.ID, 9)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	line, err := svc.Update(ctx, owner, res.Line.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, line.Quantity)

	_, err = svc.Remove(ctx, stranger, res.Line.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	left, err := svc.Remove(ctx, owner, res.Line.ID)
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestSummaryGroupsByVendorAndAddsDeliveryFee(t *testing.T) {
	svc, conn := newTestService(t)
	bakery := dbtest.Vendor(t, conn, func(v *models.Vendor) { v.Name = "Bakery" })
	cafe := dbtest.Vendor(t, conn, func(v *models.Vendor) { v.Name = "Cafe" })
	bread := dbtest.Offer(t, conn, dbtest.Item(t, conn, dbtest.Branch(t, conn, bakery)), start)
	coffee := dbtest.Offer(t, conn, dbtest.Item(t, conn, dbtest.Branch(t, conn, cafe)), start, func(o *models.Offer) {
		o.OriginalPrice = decimal.NewFromInt(20000)
		o.DiscountPercent = 0
	})
	owner := types.SessionOwner("sess")
	ctx := context.Background()

	_, err := svc.Add(ctx, owner, AddInput{OfferID: bread.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.Add(ctx, owner, AddInput{OfferID: coffee.ID, Quantity: 1})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, owner)
	require.NoError(t, err)
	require.Len(t, summary.Lines, 2)
	require.Len(t, summary.Vendors, 2)

	// 2 x 7000 + 20000
	assert.True(t, decimal.NewFromInt(34000).Equal(summary.Totals.TotalAmount), summary.Totals.TotalAmount.String())
	assert.True(t, decimal.NewFromInt(6000).Equal(summary.Totals.TotalSavings))
	assert.True(t, decimal.NewFromInt(40000).Equal(summary.Totals.OriginalTotal))
	assert.True(t, decimal.NewFromInt(15).Equal(summary.Totals.SavingsPercent))
	assert.Equal(t, 3, summary.Totals.ItemCount)
	assert.True(t, decimal.NewFromInt(39000).Equal(summary.FinalTotal))

	names := []string{summary.Vendors[0].VendorName, summary.Vendors[1].VendorName}
	assert.ElementsMatch(t, []string{"Bakery", "Cafe"}, names)

	count, err := svc.Count(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSummaryOfEmptyCartStillCarriesFee(t *testing.T) {
	svc, _ := newTestService(t)

	summary, err := svc.Summary(context.Background(), types.Owner{})
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)
	assert.True(t, summary.Totals.TotalAmount.IsZero())
	assert.True(t, decimal.NewFromInt(5000).Equal(summary.FinalTotal))

	count, err := svc.Count(context.Background(), types.Owner{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMergeSessionIntoUserCart(t *testing.T) {
	svc, conn := newTestService(t)
	branch := dbtest.Branch(t, conn, dbtest.Vendor(t, conn))
	shared := dbtest.Offer(t, conn, dbtest.Item(t, conn, branch), start, limited(4))
	onlySession := dbtest.Offer(t, conn, dbtest.Item(t, conn, branch, func(i *models.Item) { i.Title = "Milk" }), start)
	userID := uuid.New()
	session := types.SessionOwner("anon")
	user := types.UserOwner(userID)
	ctx := context.Background()

	_, err := svc.Add(ctx, user, AddInput{OfferID: shared.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = svc.Add(ctx, session, AddInput{OfferID: shared.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = svc.Add(ctx, session, AddInput{OfferID: onlySession.ID, Quantity: 2})
	require.NoError(t, err)

	merged, err := svc.Merge(ctx, "anon", userID)
	require.NoError(t, err)
	assert.Equal(t, 2, merged)

	summary, err := svc.Summary(ctx, user)
	require.NoError(t, err)
	quantities := map[uuid.UUID]int{}
	for _, line := range summary.Lines {
		quantities[line.OfferID] = line.Quantity
	}
	assert.Equal(t, 4, quantities[shared.ID])
	assert.Equal(t, 2, quantities[onlySession.ID])

	left, err := svc.Count(ctx, session)
	require.NoError(t, err)
	assert.Zero(t, left)
}
