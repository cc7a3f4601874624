package hours

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var brussels = mustLocation("Europe/Brussels")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, brussels)
}

const defaultDoc = `{
  "default": {
    "maandag": {"closed": true},
    "dinsdag": {"morning": {"open": "9:30", "close": "12:30"}, "afternoon": {"open": "13:30", "close": "18:00"}},
    "woensdag": {"morning": {"open": "09:30", "close": "12:30"}},
    "donderdag": {"afternoon": {"open": "1970-01-01T13:30:00.000Z", "close": "1970-01-01T18:00:00.000Z"}},
    "vrijdag": "10:00 - 18:00",
    "zaterdag": {"morning": {"open": "", "close": "12:00"}},
    "zondag": null
  },
  "customDates": [
    {"date": "2025-03-05", "closed": true},
    {"date": "2025-03-06"},
    {"date": "2025-03-07", "hours": "11:00 - 15:00"}
  ]
}`

func TestFormatDefaultWeek(t *testing.T) {
	s, err := ParseDocument(decode(t, defaultDoc))
	require.NoError(t, err)
	require.True(t, s.HasDefault())

	// week of 10 March 2025 (Monday) has no overrides
	cases := []struct {
		day  int
		want string
	}{
		{10, "Gesloten"},
		{11, "09:30 - 12:30 en 13:30 - 18:00"},
		{12, "09:30 - 12:30"},
		{13, "13:30 - 18:00"},
		{14, "10:00 - 18:00"},
		{15, "Gesloten"},
		{16, "Gesloten"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("march %d", tc.day), func(t *testing.T) {
			require.Equal(t, tc.want, s.HoursFor(at(2025, time.March, tc.day, 12, 0)))
		})
	}
}

func TestInlineCustomDates(t *testing.T) {
	s, err := ParseDocument(decode(t, defaultDoc))
	require.NoError(t, err)

	require.Equal(t, "Gesloten", s.HoursFor(at(2025, time.March, 5, 9, 0)), "closed flag applies")
	require.Equal(t, "13:30 - 18:00", s.HoursFor(at(2025, time.March, 6, 9, 0)), "entry without fields is skipped")
	require.Equal(t, "11:00 - 15:00", s.HoursFor(at(2025, time.March, 7, 9, 0)), "hours string wins")
}

func TestCustomDatesDocumentWins(t *testing.T) {
	s, err := ParseDocument(decode(t, defaultDoc))
	require.NoError(t, err)

	overrides, err := ParseCustomDates(decode(t, `{"customDates": [
		{"date": "2025-03-07", "hours": "12:00 - 13:00"},
		{"date": "2025-03-11", "morning": null},
		{"date": "2025-03-12", "morning": {"open": "8:00", "close": "11:00"}, "afternoon": null},
		{"date": "2025-03-13"},
		{"hours": "no date"}
	]}`))
	require.NoError(t, err)
	require.Len(t, overrides, 4)

	s = s.WithOverrides(overrides)
	require.Equal(t, "12:00 - 13:00", s.HoursFor(at(2025, time.March, 7, 9, 0)))
	require.Equal(t, "Gesloten", s.HoursFor(at(2025, time.March, 11, 9, 0)), "present but null ranges close the day")
	require.Equal(t, "08:00 - 11:00", s.HoursFor(at(2025, time.March, 12, 9, 0)))
	require.Equal(t, "Gesloten", s.HoursFor(at(2025, time.March, 13, 9, 0)), "bare entry closes the day")
	require.Equal(t, "10:00 - 18:00", s.HoursFor(at(2025, time.March, 14, 9, 0)))
}

func TestLegacyDocument(t *testing.T) {
	s, err := ParseDocument(decode(t, `{
		"maandag": "Gesloten",
		"dinsdag": "10:00 - 18:00",
		"custom": [
			{"date": "2025-03-11", "dinsdag": "10:00 - 12:00"},
			{"dateRange": {"start": "2025-03-17", "end": "2025-03-23"}, "dinsdag": "14:00 - 17:00"}
		]
	}`))
	require.NoError(t, err)
	require.False(t, s.HasDefault())

	require.Equal(t, "10:00 - 12:00", s.HoursFor(at(2025, time.March, 11, 9, 0)))
	require.Equal(t, "14:00 - 17:00", s.HoursFor(at(2025, time.March, 18, 9, 0)))
	require.Equal(t, "10:00 - 18:00", s.HoursFor(at(2025, time.March, 25, 9, 0)))
	require.Equal(t, "", s.HoursFor(at(2025, time.March, 12, 9, 0)), "legacy documents leave undefined days empty")
}

func TestParseDocumentRejectsNonObject(t *testing.T) {
	_, err := ParseDocument([]any{"maandag"})
	require.ErrorIs(t, err, ErrInvalidDocument)

}

func TestUnreadableDateRangeIsSkipped(t *testing.T) {
	s, err := ParseDocument(decode(t, `{
		"default": {"dinsdag": "10:00 - 18:00"},
		"custom": [
			{"dateRange": {"start": "2025-03-17"}, "dinsdag": "14:00 - 17:00"},
			{"dateRange": {"start": "soon", "end": "later"}, "dinsdag": "11:00 - 12:00"},
			{"date": "2025-03-11", "dateRange": {"start": "soon"}, "dinsdag": "09:00 - 12:00"}
		]
	}`))
	require.NoError(t, err)

	require.Equal(t, "10:00 - 18:00", s.HoursFor(at(2025, time.March, 18, 9, 0)))
	require.Equal(t, "10:00 - 18:00", s.HoursFor(at(2025, time.March, 25, 9, 0)))
	require.Equal(t, "09:00 - 12:00", s.HoursFor(at(2025, time.March, 11, 9, 0)), "exact date still applies")
}

func TestDateRangeComparesInstants(t *testing.T) {
	s, err := ParseDocument(decode(t, `{
		"default": {"dinsdag": "10:00 - 18:00"},
		"custom": [
			{"dateRange": {"start": "2025-03-18T12:00:00Z", "end": "2025-03-30"}, "dinsdag": "14:00 - 17:00"}
		]
	}`))
	require.NoError(t, err)

	require.Equal(t, "10:00 - 18:00", s.HoursFor(at(2025, time.March, 18, 9, 0)), "start after midnight excludes the first day")
	require.Equal(t, "14:00 - 17:00", s.HoursFor(at(2025, time.March, 25, 9, 0)))
}

func TestNullDefaultStillClosesUndefinedDays(t *testing.T) {
	s, err := ParseDocument(decode(t, `{"default": null, "dinsdag": "10:00 - 18:00"}`))
	require.NoError(t, err)
	require.True(t, s.HasDefault())

	require.Equal(t, "10:00 - 18:00", s.HoursFor(at(2025, time.March, 11, 9, 0)))
	require.Equal(t, "Gesloten", s.HoursFor(at(2025, time.March, 12, 9, 0)))
}

func TestClock(t *testing.T) {
	require.Equal(t, "09:30", Clock("9:30"))
	require.Equal(t, "10:00", Clock("10:00"))
	require.Equal(t, "13:45", Clock("2024-01-01T13:45:00Z"))
	require.Equal(t, "08:15", Clock(time.Date(2024, 1, 1, 8, 15, 0, 0, time.UTC)))
	require.Equal(t, "", Clock("noon"))
	require.Equal(t, "", Clock(930))
}

func TestClassify(t *testing.T) {
	const hours = "09:30 - 12:30 en 13:30 - 18:00"
	cases := []struct {
		now  string
		want Status
		sub  string
	}{
		{"07:29", StatusClosed, SubtextClosed},
		{"07:30", StatusOpeningSoon, SubtextOpeningSoon},
		{"09:30", StatusOpen, SubtextOpen},
		{"12:00", StatusClosingSoon, SubtextClosingSoon},
		{"11:59", StatusOpen, SubtextOpen},
		{"12:30", StatusOpeningSoon, SubtextOpeningSoon},
		{"17:45", StatusClosingSoon, SubtextClosingSoon},
		{"18:00", StatusClosed, SubtextClosed},
	}
	for _, tc := range cases {
		t.Run(tc.now, func(t *testing.T) {
			var hh, mm int
			_, err := fmt.Sscanf(tc.now, "%d:%d", &hh, &mm)
			require.NoError(t, err)
			got := Classify(hours, hh*60+mm)
			require.Equal(t, tc.want, got.Status)
			require.Equal(t, tc.sub, got.Subtext)
		})
	}
}

func TestClassifyClosedText(t *testing.T) {
	for _, text := range []string{"Gesloten", "gesloten", "", "  "} {
		got := Classify(text, 600)
		require.Equal(t, StatusClosed, got.Status)
		require.Empty(t, got.Subtext)
	}
	got := Classify("op afspraak", 600)
	require.Equal(t, StatusClosed, got.Status)
	require.Equal(t, SubtextClosed, got.Subtext)
}

func TestClassifyMinuteSweep(t *testing.T) {
	spans := []Span{{Start: 9*60 + 30, End: 12*60 + 30}, {Start: 13*60 + 30, End: 18 * 60}}
	hours := "9:30 - 12:30 en 13:30 - 18:00"
	require.Equal(t, spans, Spans(hours))

	inside := func(m int) bool {
		for _, sp := range spans {
			if m >= sp.Start && m < sp.End {
				return true
			}
		}
		return false
	}

	for m := 0; m < 24*60; m++ {
		got := Classify(hours, m).Status
		if inside(m) {
			require.Contains(t, []Status{StatusOpen, StatusClosingSoon}, got, "minute %d", m)
		} else {
			require.Contains(t, []Status{StatusClosed, StatusOpeningSoon}, got, "minute %d", m)
		}
	}
}

func TestStatusOnlyToday(t *testing.T) {
	now := at(2025, time.March, 11, 10, 0)
	require.Equal(t, StatusOpen, StatusAt("09:00 - 17:00", at(2025, time.March, 11, 0, 0), now).Status)
	require.Equal(t, StatusNone, StatusAt("09:00 - 17:00", at(2025, time.March, 12, 0, 0), now).Status)
}

func TestShowSubtext(t *testing.T) {
	require.True(t, ShowSubtext(StatusInfo{Status: StatusOpen, Subtext: SubtextOpen}, false))
	require.True(t, ShowSubtext(StatusInfo{Status: StatusOpen, Subtext: SubtextOpen}, true))
	require.False(t, ShowSubtext(StatusInfo{Status: StatusClosed, Subtext: SubtextClosed}, true))
	require.False(t, ShowSubtext(StatusInfo{Status: StatusClosed}, false))
}

func TestLines(t *testing.T) {
	require.Equal(t, []string{"09:30 - 12:30", "13:30 - 18:00"}, Lines("09:30 - 12:30 en 13:30 - 18:00"))
	require.Equal(t, []string{"Gesloten"}, Lines("Gesloten"))
}
