package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// OpeningHours is the raw per-weekday schedule persisted as JSONB. Values are
// loosely typed ("09:00-18:00", "closed", {"open": .., "close": ..}) and are
// normalized by the schedule package before evaluation.
type OpeningHours map[string]any

// Value marshals the schedule into JSON for Postgres.
func (o OpeningHours) Value() (driver.Value, error) {
	if o == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes JSONB into the schedule.
func (o *OpeningHours) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("opening hours: unsupported scan type %T", value)
	}

	result := make(OpeningHours)
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*o = result
	return nil
}
