package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/etalage/web/internal/httpx"
)

const (
	// CSRFHeader carries the token on htmx and fetch requests.
	CSRFHeader = "X-CSRF-Token"
	// CSRFField carries the token on plain form posts.
	CSRFField = "csrf_token"
)

var errInvalidCSRF = httpx.ErrForbidden.WithMessage("invalid CSRF token")

// CSRF ties a token to the session and requires it on unsafe methods, either
// in the X-CSRF-Token header or the csrf_token form field.
func CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := GetSession(r)
		if s.CSRFToken == "" {
			s.CSRFToken = randToken()
			s.MarkDirty()
		}

		if !isSafeMethod(r.Method) {
			got := r.Header.Get(CSRFHeader)
			if got == "" {
				got = r.PostFormValue(CSRFField)
			}
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.CSRFToken)) != 1 {
				writeError(w, r, errInvalidCSRF)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// CSRFToken returns the token to embed in forms and the page meta tag.
func CSRFToken(r *http.Request) string {
	return GetSession(r).CSRFToken
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
