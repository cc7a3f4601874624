package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/etalage/web/internal/analytics"
	"github.com/etalage/web/internal/cms"
	"github.com/etalage/web/internal/config"
	"github.com/etalage/web/internal/i18n"
	"github.com/etalage/web/internal/metrics"
	mw "github.com/etalage/web/internal/middleware"
	"github.com/etalage/web/internal/notice"
	"github.com/etalage/web/internal/requestctx"
)

type testServer struct {
	handler http.Handler
	logs    *observer.ObservedLogs
	cookies map[string]*http.Cookie
}

// newTestServer wires the app like main() against contentDir with the clock
// fixed on Tuesday 11 March 2025, 17:45 in Brussels.
func newTestServer(t *testing.T, contentDir string) *testServer {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Brussels")
	require.NoError(t, err)
	now := time.Date(2025, 3, 11, 17, 45, 0, 0, loc)

	cfg := config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Site: config.SiteConfig{
			Name:     "Etalage",
			BaseURL:  "https://etalage.example",
			Location: loc,
			Locale:   "nl",
			Locales:  []string{"nl", "en"},
			Phone:    "+32 9 123 45 67",
			Address:  "Veldstraat 1, 9000 Gent",
		},
		Paths: config.PathsConfig{
			Templates: "../../templates",
			Public:    "../../public",
			Uploads:   t.TempDir(),
			Locales:   "../../locales",
		},
		Carousel: config.CarouselConfig{ItemWidth: 160},
	}

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	bundle, err := i18n.Load(cfg.Paths.Locales, "nl", cfg.Site.Locales)
	require.NoError(t, err)
	views, err := newRenderer(cfg.Paths.Templates, true, bundle)
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())

	a := &app{
		cfg:       cfg,
		logger:    logger,
		content:   cms.NewClient(cms.NewDirSource(contentDir), cms.WithCacheTTL(0), cms.WithObserver(m)),
		bundle:    bundle,
		store:     mw.NewStore([]byte(strings.Repeat("k", 32)), nil, false),
		views:     views,
		metrics:   m,
		publisher: analytics.NewLogPublisher(logger),
	}
	router := a.routes()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestctx.WithClock(r.Context(), func() time.Time { return now })
		router.ServeHTTP(w, r.WithContext(ctx))
	})
	return &testServer{handler: handler, logs: logs, cookies: map[string]*http.Cookie{}}
}

// do sends req with the cookies collected so far and keeps the new ones.
func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		s.cookies[c.Name] = c
	}
	return rec
}

func (s *testServer) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, httptest.NewRequest(http.MethodGet, target, nil))
}

func (s *testServer) post(t *testing.T, target, token string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set(mw.CSRFHeader, token)
	}
	return s.do(t, req)
}

func parseDoc(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	return doc
}

func csrfToken(t *testing.T, doc *goquery.Document) string {
	t.Helper()
	token, ok := doc.Find(`meta[name="csrf-token"]`).Attr("content")
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, "../../content")
	rec := srv.get(t, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", strings.TrimSpace(rec.Body.String()))
}

func TestHomePage(t *testing.T) {
	srv := newTestServer(t, "../../content")
	rec := srv.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "nl", rec.Header().Get("Content-Language"))
	require.Contains(t, rec.Header().Values("Vary"), "Accept-Language")

	doc := parseDoc(t, rec)
	require.Equal(t, "nl", doc.Find("html").AttrOr("lang", ""))
	require.Equal(t, "Etalage", doc.Find("title").Text())
	require.Equal(t, "Welkom bij Etalage", strings.TrimSpace(doc.Find(".hero h1").Text()))
	require.Equal(t, "karakter", doc.Find(".hero-subtitle strong").Text())

	require.Equal(t, 3, doc.Find(".bento-item").Length())
	require.Equal(t, "Gallery", doc.Find(".bento-item img").Last().AttrOr("alt", ""))

	// three brands rendered three times for the loop
	require.Equal(t, 9, doc.Find(".carousel-item").Length())
	style := doc.Find(".carousel").AttrOr("style", "")
	require.Contains(t, style, "--scroll-distance:")

	authors := doc.Find(".review-card h3").Map(func(_ int, s *goquery.Selection) string { return s.Text() })
	require.Equal(t, []string{"Sofie Janssens", "Anoniem", "Tom Claes"}, authors)

	require.Equal(t, 1, doc.Find(".announcement").Length())
	require.Equal(t, 0, doc.Find("#popup").Length())

	rows := doc.Find(".site-footer .hours-row")
	require.Equal(t, 7, rows.Length())
	today := doc.Find(".site-footer .hours-row.today")
	require.Equal(t, 1, today.Length())
	require.Contains(t, today.Find("th").Text(), "Dinsdag")
	require.Equal(t, "We sluiten bijna", today.Find(".status-subtext").Text())
	require.True(t, today.Find(".status").HasClass("status-closing-soon"))

	var business map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc.Find(`script[type="application/ld+json"]`).First().Text()), &business))
	require.Equal(t, "Store", business["@type"])

	require.Equal(t, 2, doc.Find(`link[rel="alternate"]`).Length())
	require.NotEmpty(t, csrfToken(t, doc))
	require.Contains(t, srv.cookies, "etalage_session")
}

func TestHomePageEnglish(t *testing.T) {
	srv := newTestServer(t, "../../content")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")
	rec := srv.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "en", rec.Header().Get("Content-Language"))

	doc := parseDoc(t, rec)
	require.Equal(t, "Our brands", doc.Find("#brands-title").Text())
	require.Contains(t, doc.Find(".site-footer .hours-row.today th").Text(), "Tuesday")
	require.Equal(t, "Closed", strings.TrimSpace(doc.Find(".site-footer .hours-row").First().Find(".hours-line").Text()))
}

func TestLanguageQueryIsRemembered(t *testing.T) {
	srv := newTestServer(t, "../../content")
	rec := srv.get(t, "/?hl=en")
	require.Equal(t, "en", rec.Header().Get("Content-Language"))
	require.Contains(t, srv.cookies, "etalage_prefs")

	rec = srv.get(t, "/collectie")
	require.Equal(t, "en", rec.Header().Get("Content-Language"))
	require.Equal(t, "Collection", strings.TrimSpace(parseDoc(t, rec).Find("main h1").Text()))
}

func TestCollectionFilters(t *testing.T) {
	srv := newTestServer(t, "../../content")

	rec := srv.get(t, "/collectie")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseDoc(t, rec)
	require.Equal(t, 5, doc.Find(".product").Length())
	require.Equal(t, 3, doc.Find(".collection-sidebar ul").First().Find("li").Length())
	require.True(t, doc.Find(`.site-nav a[href="/collectie"]`).HasClass("active"))

	rec = srv.get(t, "/collectie?filter=new")
	doc = parseDoc(t, rec)
	require.Equal(t, 2, doc.Find(".product").Length())
	require.Equal(t, 2, doc.Find(".badge-new").Length())
	require.Equal(t, 0, doc.Find("#wonen").Length())
	require.True(t, doc.Find(`.filter[data-event-filter="new"]`).HasClass("active"))

	rec = srv.get(t, "/collectie?filter=new&filter=cadeautip")
	doc = parseDoc(t, rec)
	require.Equal(t, 0, doc.Find(".product").Length())
	require.Equal(t, "Geen producten gevonden voor deze filters.", doc.Find(".collection-empty").Text())
}

func TestCollectionFragmentForHTMX(t *testing.T) {
	srv := newTestServer(t, "../../content")
	req := httptest.NewRequest(http.MethodGet, "/collectie?filter=cadeautip", nil)
	req.Header.Set("HX-Request", "true")
	rec := srv.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "<html")
	require.Contains(t, rec.Body.String(), `id="collection"`)
	require.Equal(t, 2, parseDoc(t, rec).Find(".badge-cadeautip").Length())
}

func TestHoursPageAndModal(t *testing.T) {
	srv := newTestServer(t, "../../content")

	rec := srv.get(t, "/openingsuren")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseDoc(t, rec)
	require.Equal(t, "Deze week", doc.Find(".hours-page .hours-label strong").Text())
	require.Equal(t, "10 mrt - 16 mrt", doc.Find(".hours-page .hours-range").Text())
	require.True(t, doc.Find(".hours-page .hours-prev").HasClass("disabled"))

	req := httptest.NewRequest(http.MethodGet, "/openingsuren?week=2", nil)
	req.Header.Set("HX-Request", "true")
	rec = srv.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "<html")
	doc = parseDoc(t, rec)
	require.Equal(t, 1, doc.Find("#hours-modal").Length())
	require.Equal(t, "2 weken vooruit", doc.Find(".hours-label strong").Text())
	require.Equal(t, "/openingsuren?week=1", doc.Find(".hours-prev").AttrOr("hx-get", ""))
	require.Equal(t, 0, doc.Find(".hours-row.today").Length())
}

func TestHoursAPI(t *testing.T) {
	srv := newTestServer(t, "../../content")

	rec := srv.get(t, "/api/hours")
	require.Equal(t, http.StatusOK, rec.Code)
	var today dayHours
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &today))
	require.Equal(t, "2025-03-11", today.Date)
	require.Equal(t, "Dinsdag", today.Day)
	require.Equal(t, []string{"10:00 - 12:30", "13:30 - 18:00"}, today.Lines)
	require.Equal(t, "closing-soon", today.Status)
	require.Equal(t, "We sluiten bijna", today.Subtext)
	require.Len(t, today.Spans, 2)

	rec = srv.get(t, "/api/hours?date=2025-03-10")
	var monday dayHours
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &monday))
	require.True(t, monday.Closed)
	require.Empty(t, monday.Status)
	require.Equal(t, []string{"Gesloten"}, monday.Lines)

	rec = srv.get(t, "/api/hours?date=12-03-2025")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), `"bad_request"`)
}

func TestHoursUnavailableWithoutDocument(t *testing.T) {
	srv := newTestServer(t, t.TempDir())

	rec := srv.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseDoc(t, rec)
	require.Equal(t, "Deze pagina is tijdelijk niet beschikbaar.", doc.Find(".site-footer .hours-unavailable").Text())
	require.Equal(t, "Brands coming soon...", doc.Find(".brands-empty").Text())
	require.Equal(t, "Reviews worden binnenkort toegevoegd...", doc.Find(".reviews-empty").Text())
	require.Equal(t, "Welkom in onze winkel", strings.TrimSpace(doc.Find(".hero h1").Text()))

	rec = srv.get(t, "/api/hours")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDismissAnnouncement(t *testing.T) {
	srv := newTestServer(t, "../../content")
	doc := parseDoc(t, srv.get(t, "/"))
	token := csrfToken(t, doc)
	hash, ok := doc.Find(".announcement").Attr("data-hash")
	require.True(t, ok)

	rec := srv.post(t, "/announcements/dismiss", "", url.Values{"hash": {hash}})
	require.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/announcements/dismiss", strings.NewReader(url.Values{"hash": {hash}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(mw.CSRFHeader, token)
	req.Header.Set("HX-Request", "true")
	rec = srv.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())

	doc = parseDoc(t, srv.get(t, "/"))
	require.Equal(t, 0, doc.Find(".announcement").Length())
}

func TestDismissAnnouncementFormFallback(t *testing.T) {
	srv := newTestServer(t, "../../content")
	doc := parseDoc(t, srv.get(t, "/collectie"))
	token := csrfToken(t, doc)
	hash := doc.Find(".announcement").AttrOr("data-hash", "")

	req := httptest.NewRequest(http.MethodPost, "/announcements/dismiss",
		strings.NewReader(url.Values{"hash": {hash}, mw.CSRFField: {token}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "http://example.com/collectie")
	rec := srv.do(t, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/collectie", rec.Header().Get("Location"))

	rec = srv.post(t, "/announcements/dismiss", token, url.Values{"hash": {"not a hash!"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func writeContent(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestPopupDismissal(t *testing.T) {
	for _, tc := range []struct {
		name       string
		persistent bool
		cookie     string
	}{
		{name: "session", persistent: false, cookie: "etalage_session"},
		{name: "persistent", persistent: true, cookie: "etalage_prefs"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			popup, err := json.Marshal(cms.Popup{Enabled: true, CacheDismissal: tc.persistent, Title: "Solden", Text: "Tot **50%**"})
			require.NoError(t, err)
			srv := newTestServer(t, writeContent(t, map[string]string{"popup.json": string(popup)}))

			doc := parseDoc(t, srv.get(t, "/"))
			require.Equal(t, "Solden", doc.Find("#popup h2").Text())
			hash := doc.Find(`#popup input[name="hash"]`).AttrOr("value", "")
			require.NotEmpty(t, hash)

			req := httptest.NewRequest(http.MethodPost, "/popup/dismiss", strings.NewReader(url.Values{"hash": {hash}}.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("Accept", "application/json")
			req.Header.Set(mw.CSRFHeader, csrfToken(t, doc))
			rec := srv.do(t, req)
			require.Equal(t, http.StatusNoContent, rec.Code)
			var written bool
			for _, c := range rec.Result().Cookies() {
				written = written || c.Name == tc.cookie
			}
			require.True(t, written)

			doc = parseDoc(t, srv.get(t, "/"))
			require.Equal(t, 0, doc.Find("#popup").Length())
		})
	}
}

func TestStalePopupDismissalStaysInSession(t *testing.T) {
	popup, err := json.Marshal(cms.Popup{Enabled: true, CacheDismissal: true, Title: "Solden", Text: "Tot **50%**"})
	require.NoError(t, err)
	srv := newTestServer(t, writeContent(t, map[string]string{"popup.json": string(popup)}))

	doc := parseDoc(t, srv.get(t, "/"))
	current := doc.Find(`#popup input[name="hash"]`).AttrOr("value", "")
	stale := notice.PopupHash(cms.Popup{Enabled: true, CacheDismissal: true, Title: "Kerst"})
	require.NotEqual(t, current, stale)

	req := httptest.NewRequest(http.MethodPost, "/popup/dismiss", strings.NewReader(url.Values{"hash": {stale}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(mw.CSRFHeader, csrfToken(t, doc))
	rec := srv.do(t, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	names := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		names[c.Name] = true
	}
	require.True(t, names["etalage_session"])
	require.False(t, names["etalage_prefs"], "a replaced popup is not remembered persistently")

	doc = parseDoc(t, srv.get(t, "/"))
	require.Equal(t, "Solden", doc.Find("#popup h2").Text())
}

func TestThemePreference(t *testing.T) {
	srv := newTestServer(t, "../../content")
	doc := parseDoc(t, srv.get(t, "/"))
	_, set := doc.Find("html").Attr("data-theme")
	require.False(t, set)

	req := httptest.NewRequest(http.MethodPost, "/theme", strings.NewReader(url.Values{"theme": {"dark"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(mw.CSRFHeader, csrfToken(t, doc))
	rec := srv.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"theme":"dark"}`, rec.Body.String())

	doc = parseDoc(t, srv.get(t, "/"))
	require.Equal(t, "dark", doc.Find("html").AttrOr("data-theme", ""))
	require.Equal(t, "light", doc.Find(`.theme-form input[name="theme"]`).AttrOr("value", ""))
}

func TestContentPages(t *testing.T) {
	srv := newTestServer(t, "../../content")

	rec := srv.get(t, "/pagina/privacy")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseDoc(t, rec)
	require.Equal(t, "Privacyverklaring", doc.Find(".content-page h1").Text())
	require.Equal(t, "Privacyverklaring | Etalage", doc.Find("title").Text())
	require.Equal(t, 2, doc.Find(".content-page li").Length())

	rec = srv.get(t, "/pagina/bestaat-niet")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.get(t, "/pagina/Geen_Slug")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t, "../../content")

	rec := srv.get(t, "/nergens")
	require.Equal(t, http.StatusNotFound, rec.Code)
	doc := parseDoc(t, rec)
	require.Equal(t, "Pagina niet gevonden", doc.Find(".not-found h1").Text())
	require.Equal(t, "noindex", doc.Find(`meta[name="robots"]`).AttrOr("content", ""))

	rec = srv.get(t, "/api/nergens")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	require.Contains(t, rec.Body.String(), `"not_found"`)
}

func TestAnalyticsEvents(t *testing.T) {
	srv := newTestServer(t, "../../content")
	token := csrfToken(t, parseDoc(t, srv.get(t, "/")))

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(mw.CSRFHeader, token)
		return srv.do(t, req)
	}

	rec := send(`{"name":"Filter Toggle","path":"/collectie","props":{"filter":"new"}}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Contains(t, rec.Body.String(), `"id"`)
	require.Equal(t, 1, srv.logs.FilterMessage("analytics event").Len())

	rec = send(`{"name":"Buy Now"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	metricsRec := srv.get(t, "/metrics")
	require.Equal(t, http.StatusOK, metricsRec.Code)
	require.Contains(t, metricsRec.Body.String(), `etalage_analytics_events_total{name="Filter Toggle"} 1`)
}

func TestStaticAssetsSkipSession(t *testing.T) {
	srv := newTestServer(t, "../../content")
	rec := srv.get(t, "/assets/site.css")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("ETag"))
	require.Empty(t, rec.Header().Values("Set-Cookie"))
}

func TestMarkdownTitle(t *testing.T) {
	require.Equal(t, "Over ons", markdownTitle("intro\n# Over ons\n\ntekst", "over"))
	require.Equal(t, "Algemene voorwaarden", markdownTitle("geen kop", "algemene-voorwaarden"))
}
