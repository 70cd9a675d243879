package schedule

import (
	"time"

	"cloud.google.com/go/civil"
)

// marketZone is UTC+5 without DST, the zone the marketplace operates in.
var marketZone = time.FixedZone("UTC+5", 5*60*60)

// Evaluator resolves "now" in a single fixed zone, never machine-local time.
type Evaluator struct {
	loc *time.Location
}

// NewEvaluator builds an Evaluator for loc. A nil loc uses UTC+5.
func NewEvaluator(loc *time.Location) Evaluator {
	if loc == nil {
		loc = marketZone
	}
	return Evaluator{loc: loc}
}

func (e Evaluator) location() *time.Location {
	if e.loc == nil {
		return marketZone
	}
	return e.loc
}

// TodayHours returns the entry for now's weekday in the market zone. The
// boolean is false when there is no schedule for the day.
func (e Evaluator) TodayHours(week Week, now time.Time) (DayHours, bool) {
	day := week.Day(now.In(e.location()).Weekday())
	return day, day.Kind != Unset
}

// ClosingTime returns today's closing time as written, LabelClosed for a
// closed marker, or LabelUnspecified when nothing usable is recorded.
func (e Evaluator) ClosingTime(week Week, now time.Time) string {
	day, ok := e.TodayHours(week, now)
	if !ok {
		return LabelUnspecified
	}
	switch day.Kind {
	case Closed:
		return LabelClosed
	case Range, Invalid:
		if day.CloseLabel != "" {
			return day.CloseLabel
		}
	}
	return LabelUnspecified
}

// IsOpenNow reports whether now falls within today's hours. Anything other
// than a well-formed range reads as closed.
func (e Evaluator) IsOpenNow(week Week, now time.Time) bool {
	day, ok := e.TodayHours(week, now)
	if !ok {
		return false
	}
	return day.Contains(civil.TimeOf(now.In(e.location())))
}

// Status bundles the evaluations a storefront shows for a branch.
type Status struct {
	IsOpen      bool   `json:"is_open"`
	ClosingTime string `json:"closing_time"`
	TodayHours  string `json:"today_hours"`
}

// StatusAt evaluates the week at now.
func (e Evaluator) StatusAt(week Week, now time.Time) Status {
	day, _ := e.TodayHours(week, now)
	return Status{
		IsOpen:      e.IsOpenNow(week, now),
		ClosingTime: e.ClosingTime(week, now),
		TodayHours:  day.String(),
	}
}
