package catalog

import (
	"sort"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/angelmondragon/surprisebag-backend/pkg/availability"
	"github.com/angelmondragon/surprisebag-backend/pkg/db/models"
	"github.com/angelmondragon/surprisebag-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Sort keys accepted by the catalog listing.
const (
	SortPrice    = "price"
	SortDiscount = "discount"
	SortName     = "name"
)

// ListQuery holds the catalog listing filters. Zero values disable a filter;
// malformed discount or price range values are ignored by the parser.
type ListQuery struct {
	Type        string
	MinDiscount *float64
	PriceRange  string
	Category    string
	Sort        string
	Page        int
	Limit       int
}

// PriceRange is an inclusive bound on current price. Max is nil for
// open-ended ranges such as "2000+".
type PriceRange struct {
	Min decimal.Decimal
	Max *decimal.Decimal
}

// ParsePriceRange reads "a-b" or "n+" bounds.
func ParsePriceRange(raw string) (PriceRange, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PriceRange{}, false
	}
	if strings.HasSuffix(raw, "+") {
		lo, err := strconv.Atoi(strings.TrimSuffix(raw, "+"))
		if err != nil || lo < 0 {
			return PriceRange{}, false
		}
		return PriceRange{Min: decimal.NewFromInt(int64(lo))}, true
	}
	parts := strings.Split(raw, "-")
	if len(parts) != 2 {
		return PriceRange{}, false
	}
	lo, errLo := strconv.Atoi(strings.TrimSpace(parts[0]))
	hi, errHi := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errLo != nil || errHi != nil || lo < 0 || hi < lo {
		return PriceRange{}, false
	}
	upper := decimal.NewFromInt(int64(hi))
	return PriceRange{Min: decimal.NewFromInt(int64(lo)), Max: &upper}, true
}

// Contains reports whether price falls inside the range.
func (r PriceRange) Contains(price decimal.Decimal) bool {
	if price.LessThan(r.Min) {
		return false
	}
	return r.Max == nil || !price.GreaterThan(*r.Max)
}

// entry pairs an item with the offers purchasable today.
type entry struct {
	item   models.Item
	offers []models.Offer
}

func newEntry(item models.Item, today civil.Date) entry {
	e := entry{item: item}
	for _, o := range item.Offers {
		if availability.OfferIsPurchasable(o.Rules(), today, 0) {
			e.offers = append(e.offers, o)
		}
	}
	return e
}

// best is the offer shown on the tile: the deepest discount, then the
// cheapest price.
func (e entry) best() *models.Offer {
	var best *models.Offer
	for i := range e.offers {
		o := &e.offers[i]
		if best == nil ||
			o.DiscountPercent > best.DiscountPercent ||
			(o.DiscountPercent == best.DiscountPercent && o.CurrentPrice().LessThan(best.CurrentPrice())) {
			best = o
		}
	}
	return best
}

func (e entry) minPrice() (decimal.Decimal, bool) {
	var lowest decimal.Decimal
	for i, o := range e.offers {
		if p := o.CurrentPrice(); i == 0 || p.LessThan(lowest) {
			lowest = p
		}
	}
	return lowest, len(e.offers) > 0
}

func (e entry) maxDiscount() float64 {
	var deepest float64
	for _, o := range e.offers {
		if o.DiscountPercent > deepest {
			deepest = o.DiscountPercent
		}
	}
	return deepest
}

func (e entry) anyOffer(match func(models.Offer) bool) bool {
	for _, o := range e.offers {
		if match(o) {
			return true
		}
	}
	return false
}

type filter func(entry) bool

func (q ListQuery) filters() []filter {
	var out []filter
	if vendorTypes := enums.VendorTypesForGroup(q.Type); len(vendorTypes) > 0 {
		out = append(out, func(e entry) bool {
			if e.item.Vendor == nil {
				return false
			}
			for _, t := range vendorTypes {
				if e.item.Vendor.Type == t {
					return true
				}
			}
			return false
		})
	}
	if q.MinDiscount != nil {
		floor := *q.MinDiscount
		out = append(out, func(e entry) bool {
			return e.anyOffer(func(o models.Offer) bool { return o.DiscountPercent >= floor })
		})
	}
	if bounds, ok := ParsePriceRange(q.PriceRange); ok {
		out = append(out, func(e entry) bool {
			return e.anyOffer(func(o models.Offer) bool { return bounds.Contains(o.CurrentPrice()) })
		})
	}
	if slug := strings.TrimSpace(q.Category); slug != "" {
		out = append(out, func(e entry) bool {
			return e.item.Category != nil && e.item.Category.Slug == slug
		})
	}
	return out
}

func applyFilters(entries []entry, filters []filter) []entry {
	out := entries[:0:0]
next:
	for _, e := range entries {
		for _, f := range filters {
			if !f(e) {
				continue next
			}
		}
		out = append(out, e)
	}
	return out
}

// sortEntries orders entries in place. Input arrives newest first, so the
// default order only needs to lift items with a live offer.
func sortEntries(entries []entry, key string) {
	var less func(a, b entry) bool
	switch key {
	case SortPrice:
		less = func(a, b entry) bool {
			pa, okA := a.minPrice()
			pb, okB := b.minPrice()
			if okA != okB {
				return okA
			}
			return okA && pa.LessThan(pb)
		}
	case SortDiscount:
		less = func(a, b entry) bool { return a.maxDiscount() > b.maxDiscount() }
	case SortName:
		less = func(a, b entry) bool { return strings.ToLower(a.item.Title) < strings.ToLower(b.item.Title) }
	default:
		less = func(a, b entry) bool { return len(a.offers) > 0 && len(b.offers) == 0 }
	}
	sort.SliceStable(entries, func(i, j int) bool { return less(entries[i], entries[j]) })
}

func matchesSearch(item models.Item, needle string) bool {
	if strings.Contains(strings.ToLower(item.Title), needle) ||
		strings.Contains(strings.ToLower(item.Description), needle) {
		return true
	}
	return item.Vendor != nil && strings.Contains(strings.ToLower(item.Vendor.Name), needle)
}
