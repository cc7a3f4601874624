package hours

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Status classifies the store state at a moment of the day.
type Status string

const (
	StatusNone        Status = ""
	StatusOpen        Status = "open"
	StatusClosingSoon Status = "closing-soon"
	StatusOpeningSoon Status = "opening-soon"
	StatusClosed      Status = "closed"
)

const (
	// ClosingSoonWindow is the number of minutes before closing that count as closing soon.
	ClosingSoonWindow = 30
	// OpeningSoonWindow is the number of minutes before opening that count as opening soon.
	OpeningSoonWindow = 120
)

// Subtext message keys, translated by the i18n bundle.
const (
	SubtextOpen        = "hours.subtext.open"
	SubtextClosingSoon = "hours.subtext.closing_soon"
	SubtextOpeningSoon = "hours.subtext.opening_soon"
	SubtextClosed      = "hours.subtext.closed"
)

var (
	clockPattern = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	spanPattern  = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*-\s*(\d{1,2}):(\d{2})`)
)

// Span is a parsed opening interval in minutes since midnight.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// StatusInfo is the classification of an hours text. Subtext is a message key
// and is empty when no explanation should be shown.
type StatusInfo struct {
	Status  Status `json:"status"`
	Subtext string `json:"subtext,omitempty"`
}

// Spans extracts the intervals of an hours text. Parts that do not look like
// "H:MM - H:MM" are skipped.
func Spans(hours string) []Span {
	parts := strings.Split(hours, Separator)
	spans := make([]Span, 0, len(parts))
	for _, part := range parts {
		m := spanPattern.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		spans = append(spans, Span{
			Start: minutes(m[1], m[2]),
			End:   minutes(m[3], m[4]),
		})
	}
	return spans
}

func minutes(h, m string) int {
	hh, _ := strconv.Atoi(h)
	mm, _ := strconv.Atoi(m)
	return hh*60 + mm
}

// IsClosedText reports whether hours marks a day as closed.
func IsClosedText(hours string) bool {
	trimmed := strings.TrimSpace(hours)
	return trimmed == "" || strings.EqualFold(trimmed, ClosedText)
}

// Classify returns the status of hours at minute now (minutes since midnight).
func Classify(hours string, now int) StatusInfo {
	if IsClosedText(hours) {
		return StatusInfo{Status: StatusClosed}
	}

	spans := Spans(hours)
	for _, sp := range spans {
		if now >= sp.Start && now < sp.End {
			if sp.End-now <= ClosingSoonWindow {
				return StatusInfo{Status: StatusClosingSoon, Subtext: SubtextClosingSoon}
			}
			return StatusInfo{Status: StatusOpen, Subtext: SubtextOpen}
		}
	}

	next := -1
	for _, sp := range spans {
		if sp.Start > now && (next < 0 || sp.Start < next) {
			next = sp.Start
		}
	}
	if next >= 0 && next-now <= OpeningSoonWindow {
		return StatusInfo{Status: StatusOpeningSoon, Subtext: SubtextOpeningSoon}
	}
	return StatusInfo{Status: StatusClosed, Subtext: SubtextClosed}
}

// StatusAt classifies hours for the day of date as seen from now. Days other
// than today have no status.
func StatusAt(hours string, date, now time.Time) StatusInfo {
	if !SameDay(date, now) {
		return StatusInfo{}
	}
	return Classify(hours, MinuteOfDay(now))
}

// MinuteOfDay returns the minutes elapsed since midnight in t's location.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// SameDay reports whether a and b fall on the same calendar date in b's location.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ShowSubtext reports whether the subtext should be displayed. Days that are
// closed all day only show it while open.
func ShowSubtext(info StatusInfo, closedAllDay bool) bool {
	return info.Subtext != "" && (!closedAllDay || info.Status == StatusOpen)
}
