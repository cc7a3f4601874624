package handlers

import (
	"github.com/etalage/web/internal/nav"
	"github.com/etalage/web/internal/notice"
	"github.com/etalage/web/internal/seo"
)

// Translator looks up UI strings per language.
type Translator interface {
	T(lang, key string) string
	Tf(lang, key string, args ...any) string
}

// PageData is the view model shared by every page using the base layout.
type PageData struct {
	Title     string
	Lang      string
	Langs     []string
	SEO       seo.Meta
	Analytics Analytics
	Site      Site

	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb

	CSRFToken string
	Theme     string
	Banners   []notice.Banner
	Popup     *notice.PopupView
	Footer    HoursView
	Year      int

	// Optional per-page view model payloads
	Home       *HomeView
	Collection *CollectionView
	Hours      *HoursView
	Content    *ContentView
}

// Site carries store details shown in the header and footer.
type Site struct {
	Name    string
	Phone   string
	Address string
}

// Analytics holds client instrumentation configuration surfaced to templates.
type Analytics struct {
	UmamiWebsiteID string
	UmamiScriptURL string
}

// Enabled reports whether the Umami script should be included.
func (a Analytics) Enabled() bool {
	return a.UmamiWebsiteID != "" && a.UmamiScriptURL != ""
}
