// Package notice decides which announcements and popups a visitor still sees.
package notice

import (
	"encoding/base64"
	"html/template"
	"strings"

	"github.com/etalage/web/internal/cms"
	"github.com/etalage/web/internal/markup"
	"github.com/etalage/web/internal/textutil"
)

// HashLength is the number of characters kept from the encoded content.
const HashLength = 16

// Hash identifies a piece of content so that a dismissal only sticks until
// the content changes.
func Hash(content string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(textutil.EncodeURIComponent(content)))
	if len(encoded) > HashLength {
		encoded = encoded[:HashLength]
	}
	return encoded
}

// Banner is an announcement ready for rendering.
type Banner struct {
	Text string
	HTML template.HTML
	Hash string
}

// Banners returns the active, non-empty announcements that have not been
// dismissed. Newlines in the text are folded into spaces.
func Banners(items []cms.Announcement, dismissed func(hash string) bool) []Banner {
	out := make([]Banner, 0, len(items))
	for _, item := range items {
		if !item.Active {
			continue
		}
		text := strings.TrimSpace(strings.ReplaceAll(item.Text, "\n", " "))
		if text == "" {
			continue
		}
		hash := Hash(text)
		if dismissed != nil && dismissed(hash) {
			continue
		}
		out = append(out, Banner{Text: text, HTML: markup.Inline(text), Hash: hash})
	}
	return out
}

// PopupHash hashes the visible popup content.
func PopupHash(p cms.Popup) string {
	return Hash(p.Image + "|" + p.Title + "|" + p.Text)
}

// PopupView is the popup as rendered on the page.
type PopupView struct {
	Hash       string
	Image      string
	Title      string
	Body       template.HTML
	Persistent bool
}

// Popup returns the popup to show, or nil when it is disabled or the visitor
// already dismissed this content. sessionHash and persistentHash are the
// dismissed hashes stored for the session and across sessions.
func Popup(p cms.Popup, sessionHash, persistentHash string) *PopupView {
	if !p.Enabled {
		return nil
	}
	hash := PopupHash(p)
	stored := sessionHash
	if p.CacheDismissal {
		stored = persistentHash
	}
	if stored == hash {
		return nil
	}
	return &PopupView{
		Hash:       hash,
		Image:      cms.NormalizeImagePath(p.Image),
		Title:      strings.TrimSpace(p.Title),
		Body:       markup.HTML(p.Text),
		Persistent: p.CacheDismissal,
	}
}
