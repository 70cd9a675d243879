package pagination

import (
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 12
	// MaxLimit caps how many rows any listing can request.
	MaxLimit = 100
)

// Params holds page/limit inputs from controllers or services. Page is 1-based.
type Params struct {
	Page  int
	Limit int
}

// Meta describes the returned slice of a paged listing.
type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NormalizeLimit enforces the default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizePage clamps page numbers below 1.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Normalize applies the page and limit defaults, using defaultLimit when the
// caller did not pick one.
func (p Params) Normalize(defaultLimit int) Params {
	if p.Limit <= 0 && defaultLimit > 0 {
		p.Limit = defaultLimit
	}
	return Params{Page: NormalizePage(p.Page), Limit: NormalizeLimit(p.Limit)}
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	return (NormalizePage(p.Page) - 1) * NormalizeLimit(p.Limit)
}

// NewMeta builds page metadata for total rows.
func NewMeta(p Params, total int) Meta {
	page := NormalizePage(p.Page)
	limit := NormalizeLimit(p.Limit)
	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}
	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}

// Slice returns the page window of an in-memory collection.
func Slice[T any](rows []T, p Params) []T {
	start := p.Offset()
	if start >= len(rows) {
		return []T{}
	}
	end := start + NormalizeLimit(p.Limit)
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// ParsePage reads a page query value; anything unparsable is page 1.
func ParsePage(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return NormalizePage(value)
}
