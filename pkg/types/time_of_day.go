package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// TimeOfDay wraps civil.Time for Postgres "time" columns.
type TimeOfDay struct {
	civil.Time
}

// NewTimeOfDay builds a TimeOfDay at hour:minute.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay{civil.Time{Hour: hour, Minute: minute}}
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	raw = strings.TrimSpace(raw)
	if strings.Count(raw, ":") == 1 {
		raw += ":00"
	}
	t, err := civil.ParseTime(raw)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("time of day: %w", err)
	}
	return TimeOfDay{t}, nil
}

// Value renders HH:MM:SS.
func (t TimeOfDay) Value() (driver.Value, error) {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second), nil
}

// Scan accepts textual times or full timestamps (sqlite drivers may return
// either).
func (t *TimeOfDay) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*t = TimeOfDay{}
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case time.Time:
		*t = TimeOfDay{civil.TimeOf(v)}
		return nil
	default:
		return fmt.Errorf("time of day: unsupported scan type %T", value)
	}
}

func (t *TimeOfDay) parse(raw string) error {
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON renders "HH:MM".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("%02d:%02d", t.Hour, t.Minute))
}

// UnmarshalJSON accepts "HH:MM" or "HH:MM:SS".
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return t.parse(raw)
}
