package schedule

import (
	"slices"
	"strings"
	"time"
)

// aliases lists accepted keys per weekday in lookup priority: English name,
// Russian full name, Russian abbreviation.
var aliases = map[time.Weekday][3]string{
	time.Monday:    {"monday", "понедельник", "пн"},
	time.Tuesday:   {"tuesday", "вторник", "вт"},
	time.Wednesday: {"wednesday", "среда", "ср"},
	time.Thursday:  {"thursday", "четверг", "чт"},
	time.Friday:    {"friday", "пятница", "пт"},
	time.Saturday:  {"saturday", "суббота", "сб"},
	time.Sunday:    {"sunday", "воскресенье", "вс"},
}

var closedMarkers = []string{"closed", "закрыто"}

// Parse normalizes a raw opening-hours document (as decoded from JSON) into
// a Week. It never fails: unknown keys are ignored and malformed values
// become Invalid entries.
func Parse(raw map[string]any) Week {
	var week Week
	if len(raw) == 0 {
		return week
	}
	// Keys equal after lowering: an already-lowercase key wins, otherwise the
	// lexically smallest raw key.
	rawKeys := make([]string, 0, len(raw))
	for k := range raw {
		rawKeys = append(rawKeys, k)
	}
	slices.Sort(rawKeys)
	lowered := make(map[string]any, len(raw))
	for _, k := range rawKeys {
		key := strings.ToLower(strings.TrimSpace(k))
		if _, exists := lowered[key]; exists && k != key {
			continue
		}
		lowered[key] = raw[k]
	}
	for day, keys := range aliases {
		for _, key := range keys {
			value, ok := lowered[key]
			if !ok || isEmptyValue(value) {
				continue
			}
			week[day] = ParseDay(value)
			break
		}
	}
	return week
}

// ParseDay normalizes a single weekday value: a "HH:MM-HH:MM" string, a
// closed marker, or an {"open", "close"} object.
func ParseDay(value any) DayHours {
	switch v := value.(type) {
	case nil:
		return DayHours{}
	case string:
		return parseString(v)
	case map[string]any:
		return parseObject(v)
	case map[string]string:
		obj := make(map[string]any, len(v))
		for k, s := range v {
			obj[k] = s
		}
		return parseObject(obj)
	default:
		return DayHours{Kind: Invalid}
	}
}

func parseString(raw string) DayHours {
	text := strings.TrimSpace(raw)
	if text == "" {
		return DayHours{}
	}
	for _, marker := range closedMarkers {
		if strings.EqualFold(text, marker) {
			return DayHours{Kind: Closed}
		}
	}
	if !strings.Contains(text, "-") {
		return DayHours{Kind: Invalid, CloseLabel: text}
	}
	parts := strings.Split(text, "-")
	if len(parts) != 2 {
		return DayHours{Kind: Invalid}
	}
	closeLabel := strings.TrimSpace(parts[1])
	open, okOpen := parseHM(parts[0])
	closeAt, okClose := parseHM(parts[1])
	if !okOpen || !okClose {
		return DayHours{Kind: Invalid, CloseLabel: closeLabel}
	}
	return DayHours{Kind: Range, Open: open, Close: closeAt, CloseLabel: closeLabel}
}

func parseObject(obj map[string]any) DayHours {
	openRaw, _ := obj["open"].(string)
	closeRaw, _ := obj["close"].(string)
	if openRaw == "" && closeRaw == "" {
		return DayHours{Kind: Invalid}
	}
	closeLabel := strings.TrimSpace(closeRaw)
	open, okOpen := parseHM(openRaw)
	closeAt, okClose := parseHM(closeRaw)
	if !okOpen || !okClose {
		return DayHours{Kind: Invalid, CloseLabel: closeLabel}
	}
	return DayHours{Kind: Range, Open: open, Close: closeAt, CloseLabel: closeLabel}
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}
