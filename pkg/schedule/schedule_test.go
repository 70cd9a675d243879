package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tashkent = time.FixedZone("UTC+5", 5*60*60)

// 2024-06-03 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2024, 6, 3, hour, minute, 0, 0, tashkent)
}

func TestMondayScenario(t *testing.T) {
	week := Parse(map[string]any{"monday": "09:00-18:00"})
	eval := NewEvaluator(tashkent)

	assert.True(t, eval.IsOpenNow(week, monday(10, 0)))
	assert.Equal(t, "18:00", eval.ClosingTime(week, monday(10, 0)))
	assert.False(t, eval.IsOpenNow(week, monday(19, 0)))
}

func TestSameDayWindowBoundaries(t *testing.T) {
	cases := []struct{ open, close string }{
		{"09:00", "18:00"},
		{"00:01", "23:58"},
		{"12:00", "12:30"},
		{"07:15", "07:15"},
	}
	eval := NewEvaluator(tashkent)
	for _, tc := range cases {
		week := Parse(map[string]any{"monday": tc.open + "-" + tc.close})
		day := week.Day(time.Monday)
		require.Equal(t, Range, day.Kind, tc)

		openAt := monday(day.Open.Hour, day.Open.Minute)
		closeAt := monday(day.Close.Hour, day.Close.Minute)
		mid := openAt.Add(closeAt.Sub(openAt) / 2)

		assert.True(t, eval.IsOpenNow(week, openAt), "open boundary %v", tc)
		assert.True(t, eval.IsOpenNow(week, closeAt), "close boundary %v", tc)
		assert.True(t, eval.IsOpenNow(week, mid), "midpoint %v", tc)
		if before := openAt.Add(-time.Minute); before.Day() == openAt.Day() {
			assert.False(t, eval.IsOpenNow(week, before), "minute before open %v", tc)
		}
		if after := closeAt.Add(time.Minute); after.Day() == closeAt.Day() {
			assert.False(t, eval.IsOpenNow(week, after), "minute after close %v", tc)
		}
	}
}

func TestOvernightWindow(t *testing.T) {
	week := Parse(map[string]any{"monday": "22:00-02:00"})
	eval := NewEvaluator(tashkent)

	assert.True(t, eval.IsOpenNow(week, monday(23, 30)))
	assert.True(t, eval.IsOpenNow(week, monday(1, 0)))
	assert.False(t, eval.IsOpenNow(week, monday(10, 0)))
	assert.Equal(t, "02:00", eval.ClosingTime(week, monday(23, 30)))
}

func TestSpacesAroundDashAndObjectForm(t *testing.T) {
	eval := NewEvaluator(tashkent)

	spaced := Parse(map[string]any{"monday": "09:00 - 18:00"})
	assert.True(t, eval.IsOpenNow(spaced, monday(12, 0)))
	assert.Equal(t, "18:00", eval.ClosingTime(spaced, monday(12, 0)))

	object := Parse(map[string]any{"monday": map[string]any{"open": "08:00", "close": "20:00"}})
	assert.True(t, eval.IsOpenNow(object, monday(19, 59)))
	assert.Equal(t, "20:00", eval.ClosingTime(object, monday(8, 0)))
}

func TestClosedMarkers(t *testing.T) {
	eval := NewEvaluator(tashkent)
	for _, marker := range []string{"closed", "Closed", "ЗАКРЫТО", "закрыто"} {
		week := Parse(map[string]any{"monday": marker})
		assert.False(t, eval.IsOpenNow(week, monday(12, 0)), marker)
		assert.Equal(t, LabelClosed, eval.ClosingTime(week, monday(12, 0)), marker)
	}
}

func TestAliasLookupPriority(t *testing.T) {
	eval := NewEvaluator(tashkent)

	russian := Parse(map[string]any{"понедельник": "10:00-11:00"})
	assert.True(t, eval.IsOpenNow(russian, monday(10, 30)))

	abbr := Parse(map[string]any{"пн": "10:00-11:00"})
	assert.True(t, eval.IsOpenNow(abbr, monday(10, 30)))

	mixed := Parse(map[string]any{
		"пн":          "00:00-01:00",
		"понедельник": "02:00-03:00",
		"Monday":      "10:00-11:00",
	})
	assert.True(t, eval.IsOpenNow(mixed, monday(10, 30)))
	assert.False(t, eval.IsOpenNow(mixed, monday(2, 30)))
}

func TestCaseCollidingKeysResolveDeterministically(t *testing.T) {
	eval := NewEvaluator(tashkent)
	raw := map[string]any{
		"Monday": "09:00-10:00",
		"MONDAY": "11:00-12:00",
	}
	for i := 0; i < 50; i++ {
		week := Parse(raw)
		require.True(t, eval.IsOpenNow(week, monday(11, 30)), "iteration %d", i)
		require.False(t, eval.IsOpenNow(week, monday(9, 30)), "iteration %d", i)
	}

	withLower := Parse(map[string]any{
		"MONDAY": "11:00-12:00",
		"monday": "09:00-10:00",
		"Monday": "13:00-14:00",
	})
	assert.True(t, eval.IsOpenNow(withLower, monday(9, 30)))
}

func TestMalformedEntriesReadAsClosed(t *testing.T) {
	eval := NewEvaluator(tashkent)
	now := monday(12, 0)

	empty := Parse(nil)
	assert.True(t, empty.IsEmpty())
	assert.False(t, eval.IsOpenNow(empty, now))
	assert.Equal(t, LabelUnspecified, eval.ClosingTime(empty, now))

	tooManyParts := Parse(map[string]any{"monday": "09:00-12:00-18:00"})
	assert.False(t, eval.IsOpenNow(tooManyParts, now))
	assert.Equal(t, LabelUnspecified, eval.ClosingTime(tooManyParts, now))

	badTime := Parse(map[string]any{"monday": "9am-late"})
	assert.False(t, eval.IsOpenNow(badTime, now))
	assert.Equal(t, "late", eval.ClosingTime(badTime, now))

	missingClose := Parse(map[string]any{"monday": map[string]any{"open": "09:00"}})
	assert.False(t, eval.IsOpenNow(missingClose, now))
	assert.Equal(t, LabelUnspecified, eval.ClosingTime(missingClose, now))

	wrongType := Parse(map[string]any{"monday": 42.0})
	assert.False(t, eval.IsOpenNow(wrongType, now))

	otherDay := Parse(map[string]any{"tuesday": "09:00-18:00"})
	_, ok := eval.TodayHours(otherDay, now)
	assert.False(t, ok)
}

func TestWeekdayResolvedInMarketZone(t *testing.T) {
	week := Parse(map[string]any{"monday": "00:00-23:59", "sunday": "closed"})
	eval := NewEvaluator(tashkent)

	// Sunday 20:30 UTC is already Monday 01:30 in the market zone.
	now := time.Date(2024, 6, 2, 20, 30, 0, 0, time.UTC)
	assert.True(t, eval.IsOpenNow(week, now))

	utcEval := NewEvaluator(time.UTC)
	assert.False(t, utcEval.IsOpenNow(week, now))
}

func TestStatusAt(t *testing.T) {
	week := Parse(map[string]any{"monday": "09:00-18:00"})
	status := NewEvaluator(nil).StatusAt(week, monday(9, 30))
	assert.Equal(t, Status{IsOpen: true, ClosingTime: "18:00", TodayHours: "09:00-18:00"}, status)
}
