package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"cloud.google.com/go/civil"
	"github.com/angelmondragon/surprisebag-backend/pkg/auth"
	"github.com/angelmondragon/surprisebag-backend/pkg/availability"
	"github.com/angelmondragon/surprisebag-backend/pkg/clock"
	"github.com/angelmondragon/surprisebag-backend/pkg/config"
	"github.com/angelmondragon/surprisebag-backend/pkg/db"
	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/surprisebag-backend/pkg/errors"
	"github.com/angelmondragon/surprisebag-backend/pkg/geo"
	"github.com/angelmondragon/surprisebag-backend/pkg/pagination"
	"github.com/angelmondragon/surprisebag-backend/pkg/pricing"
	"github.com/angelmondragon/surprisebag-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	highDiscountThreshold = 20
	highDiscountLimit     = 10
	categoriesCacheTTL    = 10 * time.Minute
	descriptionPreview    = 100
)

type catalogRepository interface {
	ListActiveItems(ctx context.Context) ([]models.Item, error)
	FindItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListLiveOffers(ctx context.Context, today time.Time) ([]models.Offer, error)
	CartItemIDs(ctx context.Context, owner types.Owner) ([]uuid.UUID, error)
	CreateItem(ctx context.Context, item *models.Item) error
	CreateOffer(ctx context.Context, offer *models.Offer) error
	FindOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	WithdrawOffer(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CategoryNameTaken(ctx context.Context, name string) (bool, error)
	CreateCategory(ctx context.Context, category *models.Category) error
}

type vendorAuthorizer interface {
	Authorize(ctx context.Context, actor auth.Actor, vendorID uuid.UUID) (*models.Vendor, error)
	AuthorizeBranch(ctx context.Context, actor auth.Actor, vendorID, branchID uuid.UUID) (*models.Branch, error)
}

// jsonCache is the subset of the redis client used to cache category lists.
type jsonCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// Service exposes catalog browsing and vendor listing management.
type Service interface {
	List(ctx context.Context, q ListQuery) (*Page, error)
	Search(ctx context.Context, query string, page pagination.Params) (*Page, error)
	Item(ctx context.Context, id uuid.UUID) (*ItemDetail, error)
	Nearby(ctx context.Context, lat, lng float64) ([]NearbyItem, error)
	Recommendations(ctx context.Context, owner *types.Owner) ([]Recommendation, error)
	CreateItem(ctx context.Context, actor auth.Actor, vendorID uuid.UUID, input CreateItemInput) (*ItemDetail, error)
	CreateOffer(ctx context.Context, actor auth.Actor, itemID uuid.UUID, input CreateOfferInput) (*OfferDTO, error)
	WithdrawOffer(ctx context.Context, actor auth.Actor, offerID uuid.UUID) error
	Categories(ctx context.Context) ([]CategoryDTO, error)
	CreateCategory(ctx context.Context, actor auth.Actor, input CreateCategoryInput) (*CategoryDTO, error)
}

type service struct {
	repo    catalogRepository
	vendors vendorAuthorizer
	clock   clock.Clock
	market  config.MarketConfig
	cache   jsonCache
}

// NewService builds the catalog service. cache may be nil.
func NewService(repo catalogRepository, vendors vendorAuthorizer, clk clock.Clock, market config.MarketConfig, cache jsonCache) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor authorizer required")
	}
	if clk == nil {
		return nil, fmt.Errorf("clock required")
	}
	return &service{
		repo:    repo,
		vendors: vendors,
		clock:   clk,
		market:  market,
		cache:   cache,
	}, nil
}

func (s *service) today() civil.Date {
	return clock.Today(s.clock)
}

func (s *service) loadEntries(ctx context.Context) ([]entry, error) {
	items, err := s.repo.ListActiveItems(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog items")
	}
	today := s.today()
	entries := make([]entry, 0, len(items))
	for _, item := range items {
		if !availability.ItemIsAvailable(item.Rules(), today) {
			continue
		}
		entries = append(entries, newEntry(item, today))
	}
	return entries, nil
}

func (s *service) page(entries []entry, params pagination.Params) *Page {
	params = params.Normalize(s.market.CatalogPageSize)
	window := pagination.Slice(entries, params)
	cards := make([]ItemCard, 0, len(window))
	for _, e := range window {
		cards = append(cards, itemCard(e.item, e.best()))
	}
	return &Page{Items: cards, Meta: pagination.NewMeta(params, len(entries))}
}

func (s *service) List(ctx context.Context, q ListQuery) (*Page, error) {
	entries, err := s.loadEntries(ctx)
	if err != nil {
		return nil, err
	}
	entries = applyFilters(entries, q.filters())
	sortEntries(entries, q.Sort)
	return s.page(entries, pagination.Params{Page: q.Page, Limit: q.Limit}), nil
}

func (s *service) Search(ctx context.Context, query string, params pagination.Params) (*Page, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return s.page(nil, params), nil
	}
	entries, err := s.loadEntries(ctx)
	if err != nil {
		return nil, err
	}
	entries = applyFilters(entries, []filter{func(e entry) bool { return matchesSearch(e.item, needle) }})
	return s.page(entries, params), nil
}

func (s *service) Item(ctx context.Context, id uuid.UUID) (*ItemDetail, error) {
	item, err := s.repo.FindItem(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if !item.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return s.itemDetail(*item), nil
}

func (s *service) itemDetail(item models.Item) *ItemDetail {
	e := newEntry(item, s.today())
	offers := make([]OfferDTO, 0, len(item.Offers))
	for _, o := range item.Offers {
		offers = append(offers, offerDTO(o))
	}
	return &ItemDetail{ItemCard: itemCard(item, e.best()), Offers: offers}
}

func (s *service) Nearby(ctx context.Context, lat, lng float64) ([]NearbyItem, error) {
	if lat == 0 || lng == 0 {
		return []NearbyItem{}, nil
	}
	entries, err := s.loadEntries(ctx)
	if err != nil {
		return nil, err
	}
	locate := func(e entry) (geo.Point, bool) {
		b := e.item.Branch
		if b == nil || !b.HasCoordinates() {
			return geo.Point{}, false
		}
		return geo.Point{Lat: *b.Latitude, Lng: *b.Longitude}, true
	}
	ranked := geo.RankByDistance(geo.Point{Lat: lat, Lng: lng}, entries, locate, s.market.NearbyLimit)
	out := make([]NearbyItem, 0, len(ranked))
	for _, r := range ranked {
		p, _ := locate(r.Value)
		out = append(out, NearbyItem{
			Item:       itemCard(r.Value.item, r.Value.best()),
			DistanceKm: geo.RoundKm(r.DistanceKm),
			Latitude:   p.Lat,
			Longitude:  p.Lng,
		})
	}
	return out, nil
}

func (s *service) Recommendations(ctx context.Context, owner *types.Owner) ([]Recommendation, error) {
	today := s.today()
	offers, err := s.repo.ListLiveOffers(ctx, clock.DateValue(today))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}

	exclude := map[uuid.UUID]struct{}{}
	if owner != nil && owner.Validate() == nil {
		ids, err := s.repo.CartItemIDs(ctx, *owner)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
		}
		for _, id := range ids {
			exclude[id] = struct{}{}
		}
	}

	live := offers[:0:0]
	for _, o := range offers {
		if _, skip := exclude[o.ItemID]; skip {
			continue
		}
		if !availability.OfferIsPurchasable(o.Rules(), today, 0) {
			continue
		}
		live = append(live, o)
	}

	var high []models.Offer
	for _, o := range live {
		if o.DiscountPercent >= highDiscountThreshold {
			high = append(high, o)
		}
	}
	sort.SliceStable(high, func(i, j int) bool { return high[i].DiscountPercent > high[j].DiscountPercent })
	if len(high) > highDiscountLimit {
		high = high[:highDiscountLimit]
	}

	limit := s.market.RecommendLimit
	if limit <= 0 {
		limit = 12
	}
	seen := map[uuid.UUID]struct{}{}
	out := make([]Recommendation, 0, limit)
	for _, o := range append(high, live...) {
		if len(out) == limit {
			break
		}
		if _, dup := seen[o.ItemID]; dup {
			continue
		}
		seen[o.ItemID] = struct{}{}
		out = append(out, recommendation(o))
	}
	return out, nil
}

func recommendation(o models.Offer) Recommendation {
	pct := int(o.DiscountPercent)
	rec := Recommendation{
		ItemID:          o.ItemID,
		OfferID:         o.ID,
		OriginalPrice:   o.OriginalPrice,
		CurrentPrice:    o.CurrentPrice(),
		DiscountPercent: pct,
		BadgeType:       pricing.Badge(o.DiscountPercent),
		BadgeText:       fmt.Sprintf("-%d%%", pct),
	}
	switch rec.BadgeType {
	case pricing.BadgeHot:
		rec.BadgeText = "ГОРЯЧЕЕ"
	case "":
		rec.BadgeType = pricing.BadgeDiscount
	}
	if item := o.Item; item != nil {
		rec.Title = item.Title
		rec.Unit = item.Unit.Label(item.CustomUnit)
		rec.Description = truncate(item.Description, descriptionPreview)
		if item.Vendor != nil {
			rec.VendorName = item.Vendor.Name
		}
		if item.Category != nil {
			rec.Category = item.Category.Name
		}
	}
	return rec
}

func (s *service) CreateItem(ctx context.Context, actor auth.Actor, vendorID uuid.UUID, input CreateItemInput) (*ItemDetail, error) {
	branch, err := s.vendors.AuthorizeBranch(ctx, actor, vendorID, input.BranchID)
	if err != nil {
		return nil, err
	}
	unit, err := enums.ParseItemUnit(strings.TrimSpace(input.Unit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit")
	}
	customUnit := strings.TrimSpace(input.CustomUnit)
	if unit == enums.ItemUnitOther && customUnit == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "custom_unit is required when unit is другое")
	}
	if unit != enums.ItemUnitOther {
		customUnit = ""
	}

	item := &models.Item{
		VendorID:    vendorID,
		BranchID:    branch.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Unit:        unit,
		CustomUnit:  customUnit,
		IsActive:    true,
	}
	if item.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.ExpiryDate != "" {
		d, err := civil.ParseDate(input.ExpiryDate)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "expiry_date must be YYYY-MM-DD")
		}
		expiry := clock.DateValue(d)
		item.ExpiryDate = &expiry
	}
	if input.CategoryID != nil && *input.CategoryID != uuid.Nil {
		category, err := s.repo.FindCategory(ctx, *input.CategoryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
		item.CategoryID = &category.ID
		item.Category = category
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
	}
	item.Branch = branch
	return s.itemDetail(*item), nil
}

func (s *service) CreateOffer(ctx context.Context, actor auth.Actor, itemID uuid.UUID, input CreateOfferInput) (*OfferDTO, error) {
	item, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if _, err := s.vendors.Authorize(ctx, actor, item.VendorID); err != nil {
		return nil, err
	}

	if input.OriginalPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "original_price must not be negative")
	}
	if input.DiscountPercent < 0 || input.DiscountPercent > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_percent must be between 0 and 100")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	start, err := civil.ParseDate(input.StartDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "start_date must be YYYY-MM-DD")
	}

	offer := &models.Offer{
		ItemID:          item.ID,
		BranchID:        item.BranchID,
		OriginalPrice:   input.OriginalPrice.Round(2),
		DiscountPercent: input.DiscountPercent,
		Quantity:        input.Quantity,
		StartDate:       clock.DateValue(start),
		IsActive:        true,
		Status:          enums.OfferStatusAvailable,
	}
	if input.EndDate != "" {
		end, err := civil.ParseDate(input.EndDate)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "end_date must be YYYY-MM-DD")
		}
		if !end.After(start) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "end_date must be after start_date")
		}
		endValue := clock.DateValue(end)
		offer.EndDate = &endValue
	}

	if err := s.repo.CreateOffer(ctx, offer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
	}
	dto := offerDTO(*offer)
	return &dto, nil
}

func (s *service) WithdrawOffer(ctx context.Context, actor auth.Actor, offerID uuid.UUID) error {
	offer, err := s.repo.FindOffer(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	if offer.Item == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
	}
	if _, err := s.vendors.Authorize(ctx, actor, offer.Item.VendorID); err != nil {
		return err
	}
	if err := s.repo.WithdrawOffer(ctx, offerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "withdraw offer")
	}
	return nil
}

func (s *service) categoriesKey() string {
	return s.cache.CacheKey("categories", "active")
}

func (s *service) Categories(ctx context.Context) ([]CategoryDTO, error) {
	if s.cache != nil {
		var cached []CategoryDTO
		if ok, err := s.cache.GetJSON(ctx, s.categoriesKey(), &cached); err == nil && ok {
			return cached, nil
		}
	}
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *categoryDTO(&rows[i]))
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, s.categoriesKey(), out, categoriesCacheTTL)
	}
	return out, nil
}

func (s *service) CreateCategory(ctx context.Context, actor auth.Actor, input CreateCategoryInput) (*CategoryDTO, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name must not be empty")
	}
	taken, err := s.repo.CategoryNameTaken(ctx, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category name")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "category with this name already exists")
	}
	slug := Slugify(name)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name must contain letters or digits")
	}

	category := &models.Category{Name: name, Slug: slug, IsActive: true}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "category slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, s.categoriesKey())
	}
	return categoryDTO(category), nil
}

// Slugify lowercases name and joins its letter and digit runs with dashes.
// Non-Latin letters are kept.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
