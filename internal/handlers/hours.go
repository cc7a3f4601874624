package handlers

import (
	"time"

	"github.com/etalage/web/internal/hours"
)

var englishMonths = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// DayRow is one line of an hours table.
type DayRow struct {
	Name    string
	Date    time.Time
	Lines   []string
	IsToday bool
	Closed  bool
	// Status is the CSS modifier, empty for days other than today.
	Status  string
	Subtext string
}

// HoursView is a week of opening hours with its navigation.
type HoursView struct {
	Available    bool
	Label        string
	Range        string
	Offset       int
	PrevOffset   int
	NextOffset   int
	PrevDisabled bool
	Days         []DayRow
	Today        *DayRow
}

// BuildHoursView renders the week offset weeks after the current one. The
// schedule is resolved in now's location.
func BuildHoursView(tr Translator, lang string, schedule hours.Schedule, now time.Time, offset int) HoursView {
	navState := hours.Navigate(now, offset)
	months := hours.DutchMonths
	if lang != "nl" {
		months = englishMonths
	}
	view := HoursView{
		Available:    true,
		Label:        WeekLabel(tr, lang, navState.WeeksAhead),
		Range:        hours.FormatWeekRange(navState.Start, months),
		Offset:       navState.Offset,
		PrevOffset:   navState.PrevOffset,
		NextOffset:   navState.NextOffset,
		PrevDisabled: navState.PrevDisabled,
	}
	for _, day := range schedule.Week(navState.Start, now) {
		view.Days = append(view.Days, dayRow(tr, lang, day))
	}
	for i := range view.Days {
		if view.Days[i].IsToday {
			view.Today = &view.Days[i]
		}
	}
	return view
}

// UnavailableHours is rendered when the hours documents cannot be loaded.
func UnavailableHours(tr Translator, lang string, now time.Time, offset int) HoursView {
	navState := hours.Navigate(now, offset)
	return HoursView{
		Label:        WeekLabel(tr, lang, navState.WeeksAhead),
		Offset:       navState.Offset,
		PrevOffset:   navState.PrevOffset,
		NextOffset:   navState.NextOffset,
		PrevDisabled: navState.PrevDisabled,
	}
}

// WeekLabel names a week relative to the current one.
func WeekLabel(tr Translator, lang string, weeksAhead int) string {
	switch {
	case weeksAhead <= 0:
		return tr.T(lang, "hours.week.this")
	case weeksAhead == 1:
		return tr.T(lang, "hours.week.next")
	default:
		return tr.Tf(lang, "hours.week.ahead", weeksAhead)
	}
}

func dayRow(tr Translator, lang string, day hours.DayView) DayRow {
	row := DayRow{
		Name:    tr.T(lang, "day."+hours.DayKey(day.Weekday)),
		Date:    day.Date,
		IsToday: day.IsToday,
		Closed:  day.Closed,
		Status:  string(day.Status),
	}
	switch {
	case day.Hours == "":
	case day.Closed:
		row.Lines = []string{tr.T(lang, "hours.closed")}
	default:
		row.Lines = day.Lines
	}
	if day.ShowSubtext {
		row.Subtext = tr.T(lang, day.Subtext)
	}
	return row
}
