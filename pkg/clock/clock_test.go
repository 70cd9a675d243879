package clock

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestFixedClockResolvesMarketZone(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*60*60)
	c := Fixed(time.Date(2024, 6, 2, 21, 15, 0, 0, time.UTC), zone)

	if got := Today(c); got != (civil.Date{Year: 2024, Month: time.June, Day: 3}) {
		t.Fatalf("expected market date 2024-06-03, got %s", got)
	}
	if got := TimeOfDay(c); got.Hour != 2 || got.Minute != 15 {
		t.Fatalf("expected 02:15 market time, got %s", got)
	}
}

func TestDateValueRoundTrip(t *testing.T) {
	d := civil.Date{Year: 2024, Month: time.February, Day: 29}
	if got := DateOf(DateValue(d)); got != d {
		t.Fatalf("expected %s, got %s", d, got)
	}
}
