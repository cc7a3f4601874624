package hours

import (
	"fmt"
	"strings"
	"time"
)

const (
	// ClosedText is shown for a day without opening ranges.
	ClosedText = "Gesloten"
	// Separator joins the morning and afternoon ranges.
	Separator = " en "
)

// Resolve returns the opening definition for the calendar date of t, in t's
// location. ok is false when no source defines the date.
func (s Schedule) Resolve(t time.Time) (Day, bool) {
	key := t.Format(DateLayout)
	weekday := t.Weekday()

	for _, o := range s.dates {
		if o.date == key {
			return o.day, true
		}
	}
	for _, o := range s.inline {
		if o.date == key {
			return o.day, true
		}
	}

	check := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	for _, lo := range s.custom {
		day, ok := lo.days[weekday]
		if !ok {
			continue
		}
		if lo.date == key {
			return day, true
		}
		if !lo.start.IsZero() && !check.Before(lo.start) && !check.After(lo.end) {
			return day, true
		}
	}

	if day, ok := s.defaults[weekday]; ok {
		return day, true
	}
	if day, ok := s.legacy[weekday]; ok {
		return day, true
	}
	return Day{}, false
}

// HoursFor renders the hours text for the date of t. Documents using the
// weekly default shape report ClosedText for undefined days; legacy documents
// report an empty string.
func (s Schedule) HoursFor(t time.Time) string {
	day, ok := s.Resolve(t)
	if !ok {
		if s.hasDefault {
			return ClosedText
		}
		return ""
	}
	return Format(day)
}

// Format renders a Day as "HH:MM - HH:MM", joining morning and afternoon with
// Separator.
func Format(d Day) string {
	if d.Text != "" {
		return d.Text
	}
	if d.Closed {
		return ClosedText
	}
	parts := make([]string, 0, 2)
	for _, r := range []*Range{d.Morning, d.Afternoon} {
		if r.complete() {
			parts = append(parts, fmt.Sprintf("%s - %s", r.Open, r.Close))
		}
	}
	if len(parts) == 0 {
		return ClosedText
	}
	return strings.Join(parts, Separator)
}

// Lines splits an hours text into display lines, one per range.
func Lines(hours string) []string {
	if !strings.Contains(hours, Separator) {
		return []string{hours}
	}
	parts := strings.Split(hours, Separator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
