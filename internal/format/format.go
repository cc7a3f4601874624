package format

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Dutch, cases.NoLower)

// Label turns a slug such as "oorbellen-zilver" into "Oorbellen Zilver".
func Label(key string) string {
	return titleCaser.String(strings.ReplaceAll(key, "-", " "))
}

// Initials returns up to two uppercase initials of a name, or "??" when the
// name is empty.
func Initials(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "??"
	}
	var b strings.Builder
	count := 0
	for _, part := range strings.Split(name, " ") {
		if part == "" {
			continue
		}
		r := []rune(part)
		b.WriteString(strings.ToUpper(string(r[0])))
		count++
		if count == 2 {
			break
		}
	}
	return b.String()
}

// MaxStars is the length of a rating strip.
const MaxStars = 5

// Stars returns a strip of MaxStars flags, true for filled stars. A missing
// (zero) rating counts as a full rating.
func Stars(rating float64) []bool {
	if rating <= 0 {
		rating = MaxStars
	}
	filled := int(math.Ceil(rating))
	out := make([]bool, MaxStars)
	for i := range out {
		out[i] = i < filled
	}
	return out
}

var dutchMonths = [12]string{"januari", "februari", "maart", "april", "mei", "juni", "juli", "augustus", "september", "oktober", "november", "december"}

// FmtDate formats a date in a locale-friendly long form.
func FmtDate(t time.Time, lang string) string {
	switch strings.ToLower(lang) {
	case "nl":
		return fmt.Sprintf("%d %s %d", t.Day(), dutchMonths[t.Month()-1], t.Year())
	default:
		return t.Format("January 2, 2006")
	}
}
