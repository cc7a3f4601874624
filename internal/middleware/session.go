package middleware

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"github.com/etalage/web/internal/requestctx"
)

const (
	sessionCookieName     = "etalage_session"
	preferencesCookieName = "etalage_prefs"

	preferencesMaxAge = 365 * 24 * time.Hour
	// maxDismissed bounds the announcement hashes kept in the session cookie.
	maxDismissed = 32
)

// SessionData lives for the browser session: the cookie carries no expiry.
type SessionData struct {
	ID        string    `json:"id"`
	CSRFToken string    `json:"csrf,omitempty"`
	Dismissed []string  `json:"dismissed,omitempty"`
	PopupHash string    `json:"popup,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	dirty bool
}

// MarkDirty flags the session for writing before the response is sent.
func (s *SessionData) MarkDirty() { s.dirty = true }

// IsDismissed reports whether the announcement with hash was closed in this session.
func (s *SessionData) IsDismissed(hash string) bool {
	return slices.Contains(s.Dismissed, hash)
}

// Dismiss remembers an announcement hash. The oldest entries are dropped
// once the list is full.
func (s *SessionData) Dismiss(hash string) {
	if hash == "" || s.IsDismissed(hash) {
		return
	}
	s.Dismissed = append(s.Dismissed, hash)
	if over := len(s.Dismissed) - maxDismissed; over > 0 {
		s.Dismissed = slices.Clone(s.Dismissed[over:])
	}
	s.MarkDirty()
}

// DismissPopup remembers the popup hash for this session.
func (s *SessionData) DismissPopup(hash string) {
	if s.PopupHash == hash {
		return
	}
	s.PopupHash = hash
	s.MarkDirty()
}

// Preferences survive browser restarts.
type Preferences struct {
	Theme     string `json:"theme,omitempty"`
	Locale    string `json:"locale,omitempty"`
	PopupHash string `json:"popup,omitempty"`

	dirty bool
}

// MarkDirty flags the preferences for writing before the response is sent.
func (p *Preferences) MarkDirty() { p.dirty = true }

// SetTheme stores "light" or "dark"; any other value clears the preference.
func (p *Preferences) SetTheme(theme string) {
	if theme != "light" && theme != "dark" {
		theme = ""
	}
	if p.Theme == theme {
		return
	}
	p.Theme = theme
	p.MarkDirty()
}

// DismissPopup remembers the popup hash across sessions.
func (p *Preferences) DismissPopup(hash string) {
	if p.PopupHash == hash {
		return
	}
	p.PopupHash = hash
	p.MarkDirty()
}

// Store signs (and optionally encrypts) the session and preference cookies.
type Store struct {
	session     *securecookie.SecureCookie
	preferences *securecookie.SecureCookie
	secure      bool
	ephemeral   bool
	now         func() time.Time
}

// NewStore builds a cookie store. An empty hashKey yields a random
// process-local key, so cookies do not survive restarts.
func NewStore(hashKey, blockKey []byte, secure bool) *Store {
	ephemeral := false
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
		ephemeral = true
	}
	if len(blockKey) == 0 {
		blockKey = nil
	}
	session := securecookie.New(hashKey, blockKey).
		SetSerializer(securecookie.JSONEncoder{}).
		MaxAge(0)
	preferences := securecookie.New(hashKey, blockKey).
		SetSerializer(securecookie.JSONEncoder{}).
		MaxAge(int(preferencesMaxAge / time.Second))
	return &Store{
		session:     session,
		preferences: preferences,
		secure:      secure,
		ephemeral:   ephemeral,
		now:         time.Now,
	}
}

// Ephemeral reports whether the store runs on a generated key.
func (s *Store) Ephemeral() bool { return s.ephemeral }

// Middleware loads both cookies, stores them on the request context and
// writes them back before the first byte of the response when changed.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, fromCookie := s.readSession(r)
		if sd.ID == "" {
			sd.ID = randToken()
			sd.CSRFToken = randToken()
			sd.CreatedAt = s.now().UTC()
			sd.dirty = true
		}
		prefs := s.readPreferences(r)

		ctx := context.WithValue(r.Context(), ctxKeySession, sd)
		ctx = context.WithValue(ctx, ctxKeyPreferences, prefs)
		r = r.WithContext(ctx)

		persist := func(w http.ResponseWriter) {
			if sd.dirty || !fromCookie {
				s.writeSession(w, r, sd)
			}
			if prefs.dirty {
				s.writePreferences(w, r, prefs)
			}
		}
		bw := &beforeWriteWriter{ResponseWriter: w, before: persist}
		next.ServeHTTP(bw, r)
		if !bw.wrote {
			persist(w)
		}
	})
}

// GetSession returns session data from the request context.
func GetSession(r *http.Request) *SessionData {
	if sd, ok := r.Context().Value(ctxKeySession).(*SessionData); ok {
		return sd
	}
	return &SessionData{}
}

// GetPreferences returns the persistent preferences from the request context.
func GetPreferences(r *http.Request) *Preferences {
	if p, ok := r.Context().Value(ctxKeyPreferences).(*Preferences); ok {
		return p
	}
	return &Preferences{}
}

func (s *Store) readSession(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return &SessionData{}, false
	}
	var sd SessionData
	if err := s.session.Decode(sessionCookieName, c.Value, &sd); err != nil {
		requestctx.Logger(r.Context()).Debug("discarding session cookie", zap.Error(err))
		return &SessionData{}, false
	}
	return &sd, true
}

func (s *Store) readPreferences(r *http.Request) *Preferences {
	c, err := r.Cookie(preferencesCookieName)
	if err != nil || c.Value == "" {
		return &Preferences{}
	}
	var p Preferences
	if err := s.preferences.Decode(preferencesCookieName, c.Value, &p); err != nil {
		return &Preferences{}
	}
	return &p
}

func (s *Store) writeSession(w http.ResponseWriter, r *http.Request, sd *SessionData) {
	value, err := s.session.Encode(sessionCookieName, sd)
	if err != nil {
		requestctx.Logger(r.Context()).Warn("encode session cookie", zap.Error(err))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	sd.dirty = false
}

func (s *Store) writePreferences(w http.ResponseWriter, r *http.Request, p *Preferences) {
	value, err := s.preferences.Encode(preferencesCookieName, p)
	if err != nil {
		requestctx.Logger(r.Context()).Warn("encode preferences cookie", zap.Error(err))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     preferencesCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(preferencesMaxAge / time.Second),
	})
	p.dirty = false
}

func randToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// beforeWriteWriter runs before once, ahead of the first header or body write.
type beforeWriteWriter struct {
	http.ResponseWriter
	before func(http.ResponseWriter)
	wrote  bool
}

func (w *beforeWriteWriter) fire() {
	if w.wrote {
		return
	}
	w.wrote = true
	if w.before != nil {
		w.before(w.ResponseWriter)
	}
}

func (w *beforeWriteWriter) WriteHeader(status int) {
	w.fire()
	w.ResponseWriter.WriteHeader(status)
}

func (w *beforeWriteWriter) Write(b []byte) (int, error) {
	w.fire()
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *beforeWriteWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
