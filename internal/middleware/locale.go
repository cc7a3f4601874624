package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/etalage/web/internal/i18n"
)

const defaultLang = "nl"

// VaryLocale sets Vary header for Accept-Language on dynamic responses
func VaryLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Language")
		next.ServeHTTP(w, r)
	})
}

// Locale resolves the language from the `hl` query parameter, the stored
// preference, or Accept-Language, in that order. An explicit `hl` is saved
// in the preference cookie.
func Locale(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			prefs := GetPreferences(r)
			lang := ""
			if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("hl"))); q != "" && bundle.IsSupported(q) {
				lang = q
				if prefs.Locale != q {
					prefs.Locale = q
					prefs.MarkDirty()
				}
			} else if prefs.Locale != "" && bundle.IsSupported(prefs.Locale) {
				lang = prefs.Locale
			} else {
				lang = bundle.Resolve(r.Header.Get("Accept-Language"))
			}
			w.Header().Set("Content-Language", lang)
			next.ServeHTTP(w, r.WithContext(WithLang(r.Context(), lang)))
		})
	}
}

// Lang returns the resolved language for the request.
func Lang(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyLang).(string); ok && v != "" {
		return v
	}
	return defaultLang
}
