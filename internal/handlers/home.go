package handlers

import (
	"html/template"
	"sort"
	"strings"

	"github.com/etalage/web/internal/carousel"
	"github.com/etalage/web/internal/cms"
	"github.com/etalage/web/internal/format"
	"github.com/etalage/web/internal/markup"
)

// MaxReviews is how many reviews the home page shows.
const MaxReviews = 3

// HomeView is the view model for the landing page.
type HomeView struct {
	Hero    HeroView
	Gallery []GalleryTile
	Brands  BrandsView
	Reviews ReviewsView
}

// HeroView is the page header.
type HeroView struct {
	Title    string
	Subtitle template.HTML
}

// GalleryTile is one bento grid item.
type GalleryTile struct {
	Image string
	Alt   string
	Href  string
}

// BrandItem is one logo in the carousel.
type BrandItem struct {
	Name string
	Logo string
}

// BrandsView holds the carousel. Copies lists the clone indexes so the
// template can render the set back to back.
type BrandsView struct {
	Items  []BrandItem
	Copies []int
	Style  template.CSS
}

// Empty reports whether the fallback text should be shown.
func (b BrandsView) Empty() bool { return len(b.Items) == 0 }

// ReviewCard is one rendered review.
type ReviewCard struct {
	Author   string
	Initials string
	Stars    []bool
	Rating   int
	Text     template.HTML
	Date     string
}

// ReviewsView holds the selected reviews.
type ReviewsView struct {
	Cards []ReviewCard
}

// Empty reports whether the fallback text should be shown.
func (r ReviewsView) Empty() bool { return len(r.Cards) == 0 }

// BuildHero falls back to the translated defaults for missing fields.
func BuildHero(tr Translator, lang string, h cms.Hero) HeroView {
	view := HeroView{
		Title:    strings.TrimSpace(h.Title),
		Subtitle: markup.Inline(h.Subtitle),
	}
	if view.Title == "" {
		view.Title = tr.T(lang, "home.hero.title")
	}
	if view.Subtitle == "" {
		view.Subtitle = template.HTML(template.HTMLEscapeString(tr.T(lang, "home.hero.subtitle")))
	}
	return view
}

// BuildGallery normalises image paths and fills in missing alt texts.
func BuildGallery(tr Translator, lang string, items []cms.GalleryItem) []GalleryTile {
	tiles := make([]GalleryTile, 0, len(items))
	for _, item := range items {
		image := cms.NormalizeImagePath(item.Image)
		if image == "" {
			continue
		}
		alt := strings.TrimSpace(item.Alt)
		if alt == "" {
			alt = tr.T(lang, "gallery.alt")
		}
		tiles = append(tiles, GalleryTile{Image: image, Alt: alt, Href: strings.TrimSpace(item.Href)})
	}
	return tiles
}

// BuildBrands prepares the carousel. Brands without a width use itemWidth
// when computing the animation.
func BuildBrands(brands []cms.Brand, itemWidth float64) BrandsView {
	var view BrandsView
	widths := make([]float64, 0, len(brands))
	for _, b := range brands {
		logo := cms.NormalizeImagePath(b.Logo)
		if logo == "" {
			continue
		}
		view.Items = append(view.Items, BrandItem{Name: b.Name, Logo: logo})
		w := b.Width
		if w <= 0 {
			w = itemWidth
		}
		widths = append(widths, w)
	}
	if len(view.Items) == 0 {
		return view
	}
	view.Copies = make([]int, carousel.Clones)
	for i := range view.Copies {
		view.Copies[i] = i
	}
	view.Style = template.CSS(carousel.Style(widths))
	return view
}

// BuildReviews keeps the MaxReviews best rated reviews. A missing rating
// counts as five stars and ties keep document order.
func BuildReviews(tr Translator, lang string, reviews []cms.Review) ReviewsView {
	sorted := make([]cms.Review, len(reviews))
	copy(sorted, reviews)
	sort.SliceStable(sorted, func(i, j int) bool {
		return effectiveRating(sorted[i]) > effectiveRating(sorted[j])
	})
	if len(sorted) > MaxReviews {
		sorted = sorted[:MaxReviews]
	}

	var view ReviewsView
	for _, r := range sorted {
		author := strings.TrimSpace(r.Author)
		stars := format.Stars(r.Rating)
		filled := 0
		for _, s := range stars {
			if s {
				filled++
			}
		}
		card := ReviewCard{
			Author:   author,
			Initials: format.Initials(author),
			Stars:    stars,
			Rating:   filled,
			Text:     markup.HTML(r.Text),
			Date:     strings.TrimSpace(r.Date),
		}
		if card.Author == "" {
			card.Author = tr.T(lang, "reviews.anonymous")
		}
		view.Cards = append(view.Cards, card)
	}
	return view
}

func effectiveRating(r cms.Review) float64 {
	if r.Rating <= 0 {
		return format.MaxStars
	}
	return r.Rating
}
