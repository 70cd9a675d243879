// Package schedule normalizes loosely typed branch opening hours and answers
// "is it open now" and "when does it close" in a fixed market time zone.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Kind tags the shape of a single day's hours after normalization.
type Kind int

const (
	// Unset means no entry exists for the day.
	Unset Kind = iota
	// Closed means the entry is an explicit closed marker.
	Closed
	// Range means both endpoints parsed as HH:MM.
	Range
	// Invalid means an entry exists but could not be parsed into a range.
	Invalid
)

func (k Kind) String() string {
	switch k {
	case Closed:
		return "closed"
	case Range:
		return "range"
	case Invalid:
		return "invalid"
	default:
		return "unset"
	}
}

const (
	LabelClosed      = "closed"
	LabelUnspecified = "unspecified"
)

// DayHours is the canonical form of one weekday entry.
type DayHours struct {
	Kind  Kind
	Open  civil.Time
	Close civil.Time
	// CloseLabel is the closing time as written by the vendor. It can be set
	// for Invalid entries whose closing half is still presentable.
	CloseLabel string
}

// Contains reports whether t falls inside the range. Same-day ranges are
// inclusive on both ends; when Open is after Close the range wraps midnight.
func (d DayHours) Contains(t civil.Time) bool {
	if d.Kind != Range {
		return false
	}
	if !d.Open.After(d.Close) {
		return !t.Before(d.Open) && !t.After(d.Close)
	}
	return !t.Before(d.Open) || !t.After(d.Close)
}

// String renders the entry for display, e.g. "09:00-18:00".
func (d DayHours) String() string {
	switch d.Kind {
	case Closed:
		return LabelClosed
	case Range:
		return fmt.Sprintf("%s-%s", formatHM(d.Open), formatHM(d.Close))
	default:
		return LabelUnspecified
	}
}

// Week holds one normalized entry per weekday.
type Week [7]DayHours

// Day returns the entry for the given weekday.
func (w Week) Day(d time.Weekday) DayHours {
	return w[d]
}

// IsEmpty reports whether no weekday has an entry.
func (w Week) IsEmpty() bool {
	for _, d := range w {
		if d.Kind != Unset {
			return false
		}
	}
	return true
}

func formatHM(t civil.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func parseHM(raw string) (civil.Time, bool) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return civil.Time{}, false
	}
	return civil.Time{Hour: parsed.Hour(), Minute: parsed.Minute()}, true
}
