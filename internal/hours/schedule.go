package hours

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDocument is returned when an opening-hours document is not an object.
var ErrInvalidDocument = errors.New("hours: document must be an object")

// DateLayout is the calendar date format used by overrides and the API.
const DateLayout = "2006-01-02"

var dayKeys = [7]string{
	time.Sunday:    "zondag",
	time.Monday:    "maandag",
	time.Tuesday:   "dinsdag",
	time.Wednesday: "woensdag",
	time.Thursday:  "donderdag",
	time.Friday:    "vrijdag",
	time.Saturday:  "zaterdag",
}

// DayKey returns the document key used for a weekday.
func DayKey(d time.Weekday) string {
	return dayKeys[d]
}

// Range is one opening interval with normalised HH:MM clocks. A clock that
// could not be read is left empty.
type Range struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

func (r *Range) complete() bool {
	return r != nil && r.Open != "" && r.Close != ""
}

// Day is the opening definition for a single calendar day.
type Day struct {
	// Text is a legacy free-form value such as "10:00 - 18:00" and wins over
	// every other field.
	Text      string `json:"text,omitempty"`
	Closed    bool   `json:"closed"`
	Morning   *Range `json:"morning,omitempty"`
	Afternoon *Range `json:"afternoon,omitempty"`
}

type override struct {
	date string
	day  Day
}

type legacyOverride struct {
	date       string
	start, end time.Time
	days       map[time.Weekday]Day
}

// Schedule is a parsed opening-hours document plus optional date overrides.
type Schedule struct {
	hasDefault bool
	defaults   map[time.Weekday]Day
	legacy     map[time.Weekday]Day
	inline     []override
	custom     []legacyOverride
	dates      []override
}

// HasDefault reports whether the document used the weekly "default" shape.
func (s Schedule) HasDefault() bool {
	return s.hasDefault
}

// ParseDocument builds a Schedule from a decoded openingsuren document.
func ParseDocument(doc any) (Schedule, error) {
	root, ok := doc.(map[string]any)
	if !ok {
		return Schedule{}, ErrInvalidDocument
	}

	s := Schedule{
		defaults: map[time.Weekday]Day{},
		legacy:   map[time.Weekday]Day{},
	}

	if rawDefault, ok := root["default"]; ok {
		s.hasDefault = true
		if week, ok := rawDefault.(map[string]any); ok {
			s.defaults = parseWeek(week)
		}
	}
	s.legacy = parseWeek(root)

	if list, ok := root["customDates"].([]any); ok {
		for _, item := range list {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			date := stringValue(entry["date"])
			if date == "" {
				continue
			}
			if day, ok := inlineDay(entry); ok {
				s.inline = append(s.inline, override{date: date, day: day})
			}
		}
	}

	if list, ok := root["custom"].([]any); ok {
		for _, item := range list {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			lo := parseLegacyOverride(entry)
			if lo.date != "" || !lo.start.IsZero() {
				s.custom = append(s.custom, lo)
			}
		}
	}

	return s, nil
}

// ParseCustomDates reads the separate custom-dates document. Every entry with
// a date is kept; an entry without hours or half-day ranges closes the store.
func ParseCustomDates(doc any) ([]Override, error) {
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, ErrInvalidDocument
	}
	list, _ := root["customDates"].([]any)
	result := make([]Override, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		date := stringValue(entry["date"])
		if date == "" {
			continue
		}
		result = append(result, Override{Date: date, Day: customDateDay(entry)})
	}
	return result, nil
}

// Override pins the hours for one calendar date.
type Override struct {
	Date string
	Day  Day
}

// WithOverrides returns a copy of s whose lookups consult overrides first.
func (s Schedule) WithOverrides(overrides []Override) Schedule {
	out := s
	out.dates = make([]override, 0, len(overrides))
	for _, o := range overrides {
		out.dates = append(out.dates, override{date: o.Date, day: o.Day})
	}
	return out
}

func parseWeek(values map[string]any) map[time.Weekday]Day {
	week := make(map[time.Weekday]Day, 7)
	for wd, key := range dayKeys {
		if day, ok := dayFromValue(values[key]); ok {
			week[time.Weekday(wd)] = day
		}
	}
	return week
}

// parseLegacyOverride reads a legacy custom entry. A dateRange whose bounds
// cannot be read never matches; the entry's exact date still applies.
func parseLegacyOverride(entry map[string]any) legacyOverride {
	lo := legacyOverride{
		date: stringValue(entry["date"]),
		days: parseWeek(entry),
	}
	if rng, ok := entry["dateRange"].(map[string]any); ok {
		start, startErr := parseInstant(stringValue(rng["start"]))
		end, endErr := parseInstant(stringValue(rng["end"]))
		if startErr == nil && endErr == nil {
			lo.start, lo.end = start, end
		}
	}
	return lo
}

func customDateDay(entry map[string]any) Day {
	if raw := entry["hours"]; truthy(raw) {
		day, _ := dayFromValue(raw)
		return day
	}
	morning, hasMorning := entry["morning"]
	afternoon, hasAfternoon := entry["afternoon"]
	if hasMorning || hasAfternoon {
		return Day{
			Closed:    !truthy(morning) && !truthy(afternoon),
			Morning:   rangeFromValue(morning),
			Afternoon: rangeFromValue(afternoon),
		}
	}
	return Day{Closed: true}
}

func inlineDay(entry map[string]any) (Day, bool) {
	if raw := entry["hours"]; truthy(raw) {
		return dayFromValue(raw)
	}
	_, hasClosed := entry["closed"]
	if truthy(entry["morning"]) || truthy(entry["afternoon"]) || hasClosed {
		return Day{
			Closed:    truthy(entry["closed"]),
			Morning:   rangeFromValue(entry["morning"]),
			Afternoon: rangeFromValue(entry["afternoon"]),
		}, true
	}
	return Day{}, false
}

// dayFromValue accepts a plain string or an object. Falsy values are treated
// as absent so that lookups fall through to the next source.
func dayFromValue(v any) (Day, bool) {
	if !truthy(v) {
		return Day{}, false
	}
	switch value := v.(type) {
	case string:
		return Day{Text: value}, true
	case map[string]any:
		return Day{
			Closed:    truthy(value["closed"]),
			Morning:   rangeFromValue(value["morning"]),
			Afternoon: rangeFromValue(value["afternoon"]),
		}, true
	default:
		return Day{}, true
	}
}

func rangeFromValue(v any) *Range {
	value, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	open, closeAt := value["open"], value["close"]
	if !truthy(open) || !truthy(closeAt) {
		return nil
	}
	return &Range{Open: Clock(open), Close: Clock(closeAt)}
}

// Clock normalises a clock value to HH:MM. It accepts H:MM, HH:MM, ISO
// datetimes and time.Time; anything else yields "".
func Clock(v any) string {
	switch value := v.(type) {
	case time.Time:
		return value.Format("15:04")
	case string:
		if clockPattern.MatchString(value) {
			if len(value) == 4 {
				return "0" + value
			}
			return value
		}
		if i := strings.Index(value, "T"); i >= 0 {
			rest := value[i+1:]
			if len(rest) > 5 {
				rest = rest[:5]
			}
			return rest
		}
	}
	return ""
}

// parseInstant reads a range bound as an instant in UTC. A bare date is
// midnight UTC; a datetime without offset is read as UTC.
func parseInstant(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range []string{DateLayout, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("hours: unreadable date %q", value)
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func truthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case string:
		return value != ""
	case float64:
		return value != 0
	case int:
		return value != 0
	default:
		return true
	}
}
