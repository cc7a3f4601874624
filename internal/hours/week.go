package hours

import (
	"fmt"
	"math"
	"time"
)

// DutchMonths holds the abbreviated month names used by FormatWeekRange.
var DutchMonths = [12]string{"jan", "feb", "mrt", "apr", "mei", "jun", "jul", "aug", "sep", "okt", "nov", "dec"}

// Midnight returns the start of t's calendar day in its location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekStart returns the Monday at midnight of the week containing t.
func WeekStart(t time.Time) time.Time {
	day := Midnight(t)
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset = 6
	}
	return day.AddDate(0, 0, -offset)
}

// FormatWeekRange renders "3 mrt - 9 mrt" for the week starting at start.
func FormatWeekRange(start time.Time, months [12]string) string {
	end := start.AddDate(0, 0, 6)
	return fmt.Sprintf("%d %s - %d %s", start.Day(), months[start.Month()-1], end.Day(), months[end.Month()-1])
}

// WeeksAhead returns how many weeks weekStart lies after the current week of now.
func WeeksAhead(weekStart, now time.Time) int {
	current := WeekStart(now)
	start := Midnight(weekStart.In(now.Location()))
	days := daysBetween(current, start)
	return int(math.Round(float64(days) / 7))
}

// daysBetween counts calendar days from a to b, independent of DST shifts.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// WeekLabel returns the Dutch label for a week offset: "Deze week",
// "Volgende week", "N weken vooruit", or "" for past weeks.
func WeekLabel(weeksAhead int) string {
	switch {
	case weeksAhead == 0:
		return "Deze week"
	case weeksAhead == 1:
		return "Volgende week"
	case weeksAhead > 1:
		return fmt.Sprintf("%d weken vooruit", weeksAhead)
	default:
		return ""
	}
}

// DayView is one row of the weekly hours table.
type DayView struct {
	Date        time.Time
	Weekday     time.Weekday
	Hours       string
	Lines       []string
	IsToday     bool
	Closed      bool
	Status      Status
	Subtext     string
	ShowSubtext bool
}

// Week builds the seven rows starting at weekStart as seen from now.
func (s Schedule) Week(weekStart, now time.Time) []DayView {
	start := Midnight(weekStart.In(now.Location()))
	days := make([]DayView, 0, 7)
	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i)
		text := s.HoursFor(date)
		info := StatusAt(text, date, now)
		closed := IsClosedText(text)
		days = append(days, DayView{
			Date:        date,
			Weekday:     date.Weekday(),
			Hours:       text,
			Lines:       Lines(text),
			IsToday:     SameDay(date, now),
			Closed:      closed,
			Status:      info.Status,
			Subtext:     info.Subtext,
			ShowSubtext: ShowSubtext(info, closed),
		})
	}
	return days
}

// Navigation describes the hours modal header for a week offset.
type Navigation struct {
	Offset       int
	Start        time.Time
	WeeksAhead   int
	Range        string
	PrevDisabled bool
	PrevOffset   int
	NextOffset   int
}

// Navigate returns the navigation state for the week offset weeks after the
// current week. Negative offsets are clamped to the current week.
func Navigate(now time.Time, offset int) Navigation {
	if offset < 0 {
		offset = 0
	}
	start := WeekStart(now).AddDate(0, 0, 7*offset)
	prev := offset - 1
	if prev < 0 {
		prev = 0
	}
	return Navigation{
		Offset:       offset,
		Start:        start,
		WeeksAhead:   WeeksAhead(start, now),
		Range:        FormatWeekRange(start, DutchMonths),
		PrevDisabled: offset == 0,
		PrevOffset:   prev,
		NextOffset:   offset + 1,
	}
}
