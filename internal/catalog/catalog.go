// Package catalog filters the product catalogue into visible sections.
package catalog

import (
	"net/url"
	"strings"

	"github.com/etalage/web/internal/cms"
	"github.com/etalage/web/internal/format"
)

// Filter names accepted in the "filter" query parameter.
const (
	FilterNew       = "new"
	FilterCadeautip = "cadeautip"
)

// Filter selects products by badge. Active filters combine with AND.
type Filter struct {
	New       bool
	Cadeautip bool
}

// ParseFilter reads repeated or comma separated "filter" values.
func ParseFilter(values []string) Filter {
	var f Filter
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			switch strings.ToLower(strings.TrimSpace(part)) {
			case FilterNew:
				f.New = true
			case FilterCadeautip:
				f.Cadeautip = true
			}
		}
	}
	return f
}

// Active reports whether any filter is set.
func (f Filter) Active() bool {
	return f.New || f.Cadeautip
}

// Match reports whether p passes every active filter.
func (f Filter) Match(p cms.Product) bool {
	if f.New && !p.New {
		return false
	}
	if f.Cadeautip && !p.Cadeautip {
		return false
	}
	return true
}

// Toggle returns the query string for f with name flipped.
func (f Filter) Toggle(name string) string {
	next := f
	switch name {
	case FilterNew:
		next.New = !next.New
	case FilterCadeautip:
		next.Cadeautip = !next.Cadeautip
	}
	return next.Query()
}

// Query encodes f as a query string, empty when no filter is active.
func (f Filter) Query() string {
	q := url.Values{}
	if f.New {
		q.Add("filter", FilterNew)
	}
	if f.Cadeautip {
		q.Add("filter", FilterCadeautip)
	}
	return q.Encode()
}

// Item is a product card.
type Item struct {
	Image     string
	Alt       string
	Brand     string
	New       bool
	Cadeautip bool
}

// Section is one category with its matching products.
type Section struct {
	Key   string
	Label string
	Items []Item
}

// Link is a sidebar entry pointing at a section anchor.
type Link struct {
	Href  string
	Label string
	Key   string
}

// View is the filtered catalogue. Sections without matching products are
// left out together with their sidebar links.
type View struct {
	Filter   Filter
	Sections []Section
	Sidebar  []Link
	Total    int
}

// Empty reports whether no product matches.
func (v View) Empty() bool {
	return v.Total == 0
}

// Build filters the catalogue in category order.
func Build(cat cms.Catalogue, f Filter) View {
	view := View{Filter: f}
	for _, key := range cms.Categories {
		items := make([]Item, 0, len(cat[key]))
		for _, p := range cat[key] {
			if !f.Match(p) {
				continue
			}
			items = append(items, Item{
				Image:     cms.NormalizeImagePath(p.Image),
				Alt:       firstNonEmpty(p.Alt, p.Brand, format.Label(key)),
				Brand:     p.Brand,
				New:       p.New,
				Cadeautip: p.Cadeautip,
			})
		}
		if len(items) == 0 {
			continue
		}
		label := format.Label(key)
		view.Sections = append(view.Sections, Section{Key: key, Label: label, Items: items})
		view.Sidebar = append(view.Sidebar, Link{Href: "#" + key, Label: label, Key: key})
		view.Total += len(items)
	}
	return view
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
