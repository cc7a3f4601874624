package observability

import (
	"strings"
	"unicode"
)

// Field limits for values that end up in log entries.
const (
	routeLimit  = 180
	methodLimit = 10
	valueLimit  = 256
)

// clean removes control characters and keeps at most limit runes.
func clean(value string, limit int) string {
	if limit <= 0 {
		limit = valueLimit
	}
	var b strings.Builder
	n := 0
	for _, r := range value {
		if unicode.IsControl(r) {
			continue
		}
		if n == limit {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

// SanitizeRoute cleans a route pattern or path for logging; empty becomes "/".
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return clean(route, routeLimit)
}

// SanitizeMethod cleans an HTTP method for logging.
func SanitizeMethod(method string) string {
	return clean(method, methodLimit)
}

// SanitizePagePath drops the query string and fragment of a client supplied
// page path so analytics logs never carry search terms or tokens.
func SanitizePagePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return SanitizeRoute(path)
}
