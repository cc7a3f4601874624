package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/etalage/web/internal/format"
	"github.com/etalage/web/internal/i18n"
	"github.com/etalage/web/internal/requestctx"
)

// templateSet holds one template tree per page. Every tree contains the
// layout and partials plus the page's own "content" definition.
type templateSet struct {
	pages    map[string]*template.Template
	partials *template.Template
}

// renderer parses templates once, or on every render in dev mode.
type renderer struct {
	dir     string
	devMode bool
	funcs   template.FuncMap

	mu    sync.Mutex
	cache *templateSet
}

func newRenderer(dir string, devMode bool, bundle *i18n.Bundle) (*renderer, error) {
	r := &renderer{dir: dir, devMode: devMode, funcs: templateFuncs(bundle)}
	if devMode {
		// parse once anyway so broken templates fail at startup
		if _, err := r.parse(); err != nil {
			return nil, err
		}
		return r, nil
	}
	set, err := r.parse()
	if err != nil {
		return nil, err
	}
	r.cache = set
	return r, nil
}

func templateFuncs(bundle *i18n.Bundle) template.FuncMap {
	return template.FuncMap{
		"t": func(lang, key string) string {
			return bundle.T(lang, key)
		},
		"tf": func(lang, key string, args ...any) string {
			return bundle.Tf(lang, key, args...)
		},
		"asset":   assetURL,
		"fmtDate": format.FmtDate,
		"now":     time.Now,
		"join":    strings.Join,
		"add": func(a, b int) int {
			return a + b
		},
		"dict": dict,
	}
}

// dict builds a map from key/value pairs so partials can take several values.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

// assetURL makes CMS image paths root-relative; absolute URLs pass through.
func assetURL(p string) string {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "://") {
		return p
	}
	return "/" + p
}

func (r *renderer) set() (*templateSet, error) {
	if r.devMode {
		return r.parse()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache == nil {
		return nil, fmt.Errorf("templates not initialised")
	}
	return r.cache, nil
}

// parse loads layout/*.tmpl and partials/*.tmpl into a shared base and
// clones it for every pages/*.tmpl file.
func (r *renderer) parse() (*templateSet, error) {
	shared, err := collect(filepath.Join(r.dir, "layout"), filepath.Join(r.dir, "partials"))
	if err != nil {
		return nil, err
	}
	if len(shared) == 0 {
		return nil, fmt.Errorf("no layout templates found under %s", r.dir)
	}
	base, err := template.New("_root").Funcs(r.funcs).ParseFiles(shared...)
	if err != nil {
		return nil, err
	}

	pageFiles, err := collect(filepath.Join(r.dir, "pages"))
	if err != nil {
		return nil, err
	}
	set := &templateSet{pages: map[string]*template.Template{}, partials: base}
	for _, file := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		page, err := clone.ParseFiles(file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		name := strings.TrimSuffix(filepath.Base(file), ".tmpl")
		set.pages[name] = page
	}
	return set, nil
}

func collect(dirs ...string) ([]string, error) {
	var files []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), ".tmpl") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// page executes the base layout of the named page.
func (r *renderer) page(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	set, err := r.set()
	if err != nil {
		r.fail(w, req, err)
		return
	}
	t, ok := set.pages[name]
	if !ok {
		r.fail(w, req, fmt.Errorf("unknown page template %q", name))
		return
	}
	r.execute(w, req, status, t, "base", data)
}

// fragment executes a partial, typically for htmx swaps.
func (r *renderer) fragment(w http.ResponseWriter, req *http.Request, name string, data any) {
	set, err := r.set()
	if err != nil {
		r.fail(w, req, err)
		return
	}
	r.execute(w, req, http.StatusOK, set.partials, name, data)
}

func (r *renderer) execute(w http.ResponseWriter, req *http.Request, status int, t *template.Template, name string, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		r.fail(w, req, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (r *renderer) fail(w http.ResponseWriter, req *http.Request, err error) {
	requestctx.Logger(req.Context()).Error("template render failed", zap.Error(err))
	http.Error(w, "template error", http.StatusInternalServerError)
}
