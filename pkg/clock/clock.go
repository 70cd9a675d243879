// Package clock provides "now" in the fixed market time zone.
package clock

import (
	"time"

	"cloud.google.com/go/civil"
)

type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type marketClock struct {
	loc *time.Location
	now func() time.Time
}

// New returns a Clock reading the system time, expressed in loc.
func New(loc *time.Location) Clock {
	return NewWithFunc(loc, time.Now)
}

// NewWithFunc returns a Clock backed by now; tests pin the time with it.
func NewWithFunc(loc *time.Location, now func() time.Time) Clock {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return marketClock{loc: loc, now: now}
}

// Fixed returns a Clock that always reports t.
func Fixed(t time.Time, loc *time.Location) Clock {
	return NewWithFunc(loc, func() time.Time { return t })
}

func (c marketClock) Now() time.Time {
	return c.now().In(c.loc)
}

func (c marketClock) Location() *time.Location {
	return c.loc
}

// Today is the civil date of now in the clock's zone.
func Today(c Clock) civil.Date {
	return civil.DateOf(c.Now())
}

// TimeOfDay is the civil time of now in the clock's zone.
func TimeOfDay(c Clock) civil.Time {
	return civil.TimeOf(c.Now())
}

// DateValue converts a civil date to midnight UTC, the representation used
// for date columns.
func DateValue(d civil.Date) time.Time {
	return d.In(time.UTC)
}

// DateOf reads a date column value back as a civil date.
func DateOf(t time.Time) civil.Date {
	return civil.DateOf(t.UTC())
}
