package handlers

import (
	"html/template"

	"github.com/etalage/web/internal/catalog"
	"github.com/etalage/web/internal/cms"
)

// FilterButton toggles one badge filter.
type FilterButton struct {
	Name   string
	Label  string
	Href   string
	Active bool
}

// CollectionView is the catalogue page.
type CollectionView struct {
	catalog.View
	Available bool
	Filters   []FilterButton
}

// BuildCollection filters the catalogue and prepares the filter toggles.
func BuildCollection(tr Translator, lang string, cat cms.Catalogue, f catalog.Filter) CollectionView {
	view := CollectionView{View: catalog.Build(cat, f), Available: true}
	for _, b := range []struct {
		name   string
		active bool
	}{
		{catalog.FilterNew, f.New},
		{catalog.FilterCadeautip, f.Cadeautip},
	} {
		href := "/collectie"
		if q := f.Toggle(b.name); q != "" {
			href += "?" + q
		}
		view.Filters = append(view.Filters, FilterButton{
			Name:   b.name,
			Label:  tr.T(lang, "collection.filter."+b.name),
			Href:   href,
			Active: b.active,
		})
	}
	return view
}

// ContentView is a markdown page such as the privacy statement.
type ContentView struct {
	Slug  string
	Title string
	Body  template.HTML
}
