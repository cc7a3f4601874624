package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/etalage/web/internal/catalog"
	"github.com/etalage/web/internal/cms"
	"github.com/etalage/web/internal/handlers"
	"github.com/etalage/web/internal/hours"
	"github.com/etalage/web/internal/httpx"
	"github.com/etalage/web/internal/markup"
	mw "github.com/etalage/web/internal/middleware"
	"github.com/etalage/web/internal/notice"
	"github.com/etalage/web/internal/requestctx"
)

func (a *app) homeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := mw.Lang(ctx)
	data := a.layout(r, "", a.bundle.T(lang, "meta.home"))

	view := &handlers.HomeView{}
	hero, err := a.content.Hero(ctx)
	if err != nil {
		a.contentError(ctx, cms.DocHero, err)
	}
	view.Hero = handlers.BuildHero(a.bundle, lang, hero)

	if items, err := a.content.Gallery(ctx); err == nil {
		view.Gallery = handlers.BuildGallery(a.bundle, lang, items)
	} else {
		a.contentError(ctx, cms.DocGallery, err)
	}
	if brands, err := a.content.Brands(ctx); err == nil {
		view.Brands = handlers.BuildBrands(brands, a.cfg.Carousel.ItemWidth)
	} else {
		a.contentError(ctx, cms.DocBrands, err)
	}
	if reviews, err := a.content.Reviews(ctx); err == nil {
		view.Reviews = handlers.BuildReviews(a.bundle, lang, reviews)
	} else {
		a.contentError(ctx, cms.DocReviews, err)
	}

	data.Home = view
	a.views.page(w, r, http.StatusOK, "home", data)
}

func (a *app) collectionHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := mw.Lang(ctx)
	data := a.layout(r, a.bundle.T(lang, "collection.title"), a.bundle.T(lang, "meta.collection"))

	filter := catalog.ParseFilter(r.URL.Query()["filter"])
	cat, err := a.content.Products(ctx)
	if err != nil {
		a.contentError(ctx, cms.DocProducts, err)
		cat = cms.Catalogue{}
	}
	view := handlers.BuildCollection(a.bundle, lang, cat, filter)
	view.Available = err == nil
	data.Collection = &view

	if mw.IsHTMX(ctx) {
		a.views.fragment(w, r, "collection_body", data)
		return
	}
	a.views.page(w, r, http.StatusOK, "collection", data)
}

func (a *app) hoursHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := mw.Lang(ctx)
	data := a.layout(r, a.bundle.T(lang, "hours.title"), a.bundle.T(lang, "meta.hours"))

	offset, _ := strconv.Atoi(r.URL.Query().Get("week"))
	view := a.hoursView(r, offset)
	data.Hours = &view

	if mw.IsHTMX(ctx) {
		a.views.fragment(w, r, "hours_modal", data)
		return
	}
	a.views.page(w, r, http.StatusOK, "hours", data)
}

func (a *app) hoursView(r *http.Request, offset int) handlers.HoursView {
	ctx := r.Context()
	lang := mw.Lang(ctx)
	now := a.now(ctx)
	schedule, err := a.content.OpeningHours(ctx)
	if err != nil {
		a.contentError(ctx, cms.DocOpeningHours, err)
		return handlers.UnavailableHours(a.bundle, lang, now, offset)
	}
	return handlers.BuildHoursView(a.bundle, lang, schedule, now, offset)
}

// dayHours is the JSON shape of /api/hours.
type dayHours struct {
	Date    string       `json:"date"`
	Day     string       `json:"day"`
	Hours   string       `json:"hours"`
	Lines   []string     `json:"lines"`
	Closed  bool         `json:"closed"`
	Spans   []hours.Span `json:"spans"`
	Status  string       `json:"status,omitempty"`
	Subtext string       `json:"subtext,omitempty"`
}

func (a *app) hoursAPIHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := mw.Lang(ctx)
	now := a.now(ctx)

	date := hours.Midnight(now)
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.ParseInLocation(hours.DateLayout, raw, now.Location())
		if err != nil {
			httpx.WriteError(ctx, w, httpx.ErrBadRequest.WithMessage("date must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	schedule, err := a.content.OpeningHours(ctx)
	if err != nil {
		a.contentError(ctx, cms.DocOpeningHours, err)
		httpx.WriteError(ctx, w, httpx.NewError("hours_unavailable", "opening hours unavailable", http.StatusServiceUnavailable))
		return
	}

	text := schedule.HoursFor(date)
	out := dayHours{
		Date:   date.Format(hours.DateLayout),
		Day:    a.bundle.T(lang, "day."+hours.DayKey(date.Weekday())),
		Hours:  text,
		Lines:  hours.Lines(text),
		Closed: hours.IsClosedText(text),
		Spans:  hours.Spans(text),
	}
	switch {
	case text == "":
		out.Lines = nil
	case out.Closed:
		out.Lines = []string{a.bundle.T(lang, "hours.closed")}
	}
	if hours.SameDay(date, now) {
		info := hours.StatusAt(text, date, now)
		out.Status = string(info.Status)
		if hours.ShowSubtext(info, out.Closed) {
			out.Subtext = a.bundle.T(lang, info.Subtext)
		}
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (a *app) contentPageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")
	text, err := a.content.Page(ctx, slug)
	switch {
	case errors.Is(err, cms.ErrInvalidSlug), errors.Is(err, cms.ErrNotFound):
		a.notFoundHandler(w, r)
		return
	case err != nil:
		requestctx.Logger(ctx).Warn("content page unavailable", zap.String("slug", slug), zap.Error(err))
		lang := mw.Lang(ctx)
		data := a.layout(r, a.bundle.T(lang, "page.unavailable"), "")
		data.Content = &handlers.ContentView{Slug: slug, Title: a.bundle.T(lang, "page.unavailable")}
		a.views.page(w, r, http.StatusServiceUnavailable, "content", data)
		return
	}

	title := markdownTitle(text, slug)
	data := a.layout(r, title, "")
	data.Content = &handlers.ContentView{Slug: slug, Title: title, Body: markup.Markdown(text)}
	a.views.page(w, r, http.StatusOK, "content", data)
}

// markdownTitle returns the first level-one heading, or a label derived
// from the slug.
func markdownTitle(text, slug string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return strings.ToUpper(slug[:1]) + strings.ReplaceAll(slug[1:], "-", " ")
}

func (a *app) dismissAnnouncementHandler(w http.ResponseWriter, r *http.Request) {
	hash := r.PostFormValue("hash")
	if !validHash(hash) {
		httpx.WriteError(r.Context(), w, httpx.ErrBadRequest.WithMessage("invalid announcement hash"))
		return
	}
	mw.GetSession(r).Dismiss(hash)
	a.metrics.ObserveDismissal("announcement")
	a.dismissed(w, r)
}

func (a *app) dismissPopupHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hash := r.PostFormValue("hash")
	if !validHash(hash) {
		httpx.WriteError(ctx, w, httpx.ErrBadRequest.WithMessage("invalid popup hash"))
		return
	}
	// Only the popup that was shown decides where its dismissal is kept.
	persistent := false
	if p, err := a.content.Popup(ctx); err == nil {
		persistent = p.CacheDismissal && notice.PopupHash(p) == hash
	} else {
		a.contentError(ctx, cms.DocPopup, err)
	}
	if persistent {
		mw.GetPreferences(r).DismissPopup(hash)
		a.metrics.ObserveDismissal("popup_persistent")
	} else {
		mw.GetSession(r).DismissPopup(hash)
		a.metrics.ObserveDismissal("popup")
	}
	a.dismissed(w, r)
}

// dismissed answers htmx with an empty swap, fetch with 204 and plain forms
// with a redirect.
func (a *app) dismissed(w http.ResponseWriter, r *http.Request) {
	switch {
	case mw.IsHTMX(r.Context()):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	case acceptsJSON(r):
		w.WriteHeader(http.StatusNoContent)
	default:
		back(w, r)
	}
}

func validHash(hash string) bool {
	if hash == "" || len(hash) > notice.HashLength {
		return false
	}
	for _, c := range hash {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '+', c == '/', c == '=':
		default:
			return false
		}
	}
	return true
}

func (a *app) themeHandler(w http.ResponseWriter, r *http.Request) {
	prefs := mw.GetPreferences(r)
	prefs.SetTheme(r.PostFormValue("theme"))
	if mw.IsHTMX(r.Context()) || acceptsJSON(r) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"theme": prefs.Theme})
		return
	}
	back(w, r)
}

func (a *app) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") || acceptsJSON(r) {
		httpx.WriteError(r.Context(), w, httpx.ErrNotFound)
		return
	}
	lang := mw.Lang(r.Context())
	data := a.layout(r, a.bundle.T(lang, "error.not_found"), "")
	data.SEO.Robots = "noindex"
	a.views.page(w, r, http.StatusNotFound, "not_found", data)
}

func acceptsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
