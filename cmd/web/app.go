package main

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/etalage/web/internal/analytics"
	"github.com/etalage/web/internal/cms"
	"github.com/etalage/web/internal/config"
	"github.com/etalage/web/internal/handlers"
	"github.com/etalage/web/internal/hours"
	"github.com/etalage/web/internal/i18n"
	"github.com/etalage/web/internal/metrics"
	mw "github.com/etalage/web/internal/middleware"
	"github.com/etalage/web/internal/nav"
	"github.com/etalage/web/internal/notice"
	"github.com/etalage/web/internal/observability"
	"github.com/etalage/web/internal/requestctx"
	"github.com/etalage/web/internal/seo"
)

// app bundles the dependencies shared by all handlers.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	content   *cms.Client
	bundle    *i18n.Bundle
	store     *mw.Store
	views     *renderer
	metrics   *metrics.Metrics
	publisher analytics.Publisher
}

// routes builds the chi router. Static files skip the session middleware so
// they never carry Set-Cookie headers.
func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP.
	r.Use(chimw.RealIP)
	r.Use(observability.TraceMiddleware())
	r.Use(observability.InjectLoggerMiddleware(a.logger))
	r.Use(observability.RecoveryMiddleware(a.logger))
	r.Use(observability.RequestLoggerMiddleware(a.metrics))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(a.cfg.Server.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	assets := http.StripPrefix("/assets", mw.AssetsWithCache(filepath.Join(a.cfg.Paths.Public, "assets"), ""))
	r.Handle("/assets/*", assets)
	uploads := http.StripPrefix("/static/img/uploads", mw.AssetsWithCache(a.cfg.Paths.Uploads, "public, max-age=86400"))
	r.Handle("/static/img/uploads/*", uploads)

	r.Group(func(r chi.Router) {
		r.Use(a.sessionChain)

		r.Get("/", a.homeHandler)
		r.Get("/collectie", a.collectionHandler)
		r.Get("/openingsuren", a.hoursHandler)
		r.Get("/pagina/{slug}", a.contentPageHandler)
		r.Get("/api/hours", a.hoursAPIHandler)

		r.Post("/announcements/dismiss", a.dismissAnnouncementHandler)
		r.Post("/popup/dismiss", a.dismissPopupHandler)
		r.Post("/theme", a.themeHandler)
		r.Method(http.MethodPost, "/api/events", analytics.NewHandler(a.publisher, a.metrics))
	})

	r.NotFound(a.sessionChain(http.HandlerFunc(a.notFoundHandler)).ServeHTTP)
	return r
}

func (a *app) sessionChain(next http.Handler) http.Handler {
	return chi.Chain(
		mw.HTMX,
		a.store.Middleware,
		mw.Locale(a.bundle),
		mw.CSRF,
		mw.VaryLocale,
	).Handler(next)
}

// now returns the request time in the store's time zone.
func (a *app) now(ctx context.Context) time.Time {
	return requestctx.Now(ctx).In(a.cfg.Site.Location)
}

// layout fills the fields every page needs. CMS failures degrade to empty
// sections rather than failing the page.
func (a *app) layout(r *http.Request, title, description string) handlers.PageData {
	ctx := r.Context()
	lang := mw.Lang(ctx)
	session := mw.GetSession(r)
	prefs := mw.GetPreferences(r)
	now := a.now(ctx)

	data := handlers.PageData{
		Title: title,
		Lang:  lang,
		Langs: a.bundle.Supported(),
		SEO:   seo.Page(a.cfg.Site.Name, a.cfg.Site.BaseURL, r.URL.Path, title, description, lang, a.bundle.Supported()),
		Analytics: handlers.Analytics{
			UmamiWebsiteID: a.cfg.Analytics.UmamiWebsite,
			UmamiScriptURL: a.cfg.Analytics.UmamiScript,
		},
		Site: handlers.Site{
			Name:    a.cfg.Site.Name,
			Phone:   a.cfg.Site.Phone,
			Address: a.cfg.Site.Address,
		},
		Path:        r.URL.Path,
		Nav:         nav.Build(r.URL.Path),
		Breadcrumbs: nav.Breadcrumbs(r.URL.Path),
		CSRFToken:   mw.CSRFToken(r),
		Theme:       prefs.Theme,
		Year:        now.Year(),
	}

	if items, err := a.content.Announcements(ctx); err == nil {
		data.Banners = notice.Banners(items, session.IsDismissed)
	} else {
		a.contentError(ctx, cms.DocAnnouncements, err)
	}

	if p, err := a.content.Popup(ctx); err == nil {
		data.Popup = notice.Popup(p, session.PopupHash, prefs.PopupHash)
	} else {
		a.contentError(ctx, cms.DocPopup, err)
	}

	if schedule, err := a.content.OpeningHours(ctx); err == nil {
		data.Footer = handlers.BuildHoursView(a.bundle, lang, schedule, now, 0)
		data.SEO.JSONLD = append(data.SEO.JSONLD, seo.LocalBusiness(seo.Business{
			Name:   a.cfg.Site.Name,
			URL:    a.cfg.Site.BaseURL,
			Phone:  a.cfg.Site.Phone,
			Street: a.cfg.Site.Address,
		}, schedule.Week(hours.WeekStart(now), now)))
	} else {
		a.contentError(ctx, cms.DocOpeningHours, err)
		data.Footer = handlers.UnavailableHours(a.bundle, lang, now, 0)
	}
	return data
}

// contentError logs a failed CMS read. Missing documents are expected for
// optional sections and only logged at debug level.
func (a *app) contentError(ctx context.Context, doc string, err error) {
	logger := requestctx.Logger(ctx)
	if errors.Is(err, cms.ErrNotFound) {
		logger.Debug("cms document missing", zap.String("document", doc))
		return
	}
	logger.Warn("cms document unavailable", zap.String("document", doc), zap.Error(err))
}

// back redirects form posts without JavaScript to the page they came from.
func back(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if ref := r.Referer(); ref != "" {
		if u, err := r.URL.Parse(ref); err == nil && (u.Host == "" || u.Host == r.Host) {
			target = u.RequestURI()
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
