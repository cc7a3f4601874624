package middleware

import (
	"net/http"
	"strings"

	"github.com/etalage/web/internal/httpx"
)

// writeError answers htmx and JSON clients with the error envelope and
// browsers with plain text.
func writeError(w http.ResponseWriter, r *http.Request, err httpx.Error) {
	if IsHTMX(r.Context()) || wantsJSON(r) {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	http.Error(w, err.Message, err.Status)
}

func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
