package cms

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/etalage/web/internal/hours"
)

// Document names.
const (
	DocBrands        = "brands"
	DocReviews       = "reviews"
	DocProducts      = "products"
	DocAnnouncements = "announcements"
	DocPopup         = "popup"
	DocHero          = "hero"
	DocGallery       = "gallery"
	DocOpeningHours  = "openingsuren"
	DocCustomDates   = "custom-dates"
)

// Brand is one logo in the brand carousel.
type Brand struct {
	Name  string  `json:"name"`
	Logo  string  `json:"logo"`
	Width float64 `json:"width,omitempty"`
}

// Review is a customer testimonial. A zero rating means the rating is missing.
type Review struct {
	Author string  `json:"author"`
	Rating float64 `json:"rating"`
	Text   string  `json:"text"`
	Date   string  `json:"date"`
}

// Product is one catalogue card.
type Product struct {
	Category  string `json:"category"`
	Image     string `json:"image"`
	Alt       string `json:"alt"`
	Brand     string `json:"brand"`
	New       bool   `json:"new"`
	Cadeautip bool   `json:"cadeautip"`
}

// UnmarshalJSON accepts any truthy value for the badge flags.
func (p *Product) UnmarshalJSON(data []byte) error {
	var raw struct {
		Image     string `json:"image"`
		Alt       string `json:"alt"`
		Brand     string `json:"brand"`
		New       any    `json:"new"`
		Cadeautip any    `json:"cadeautip"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Product{
		Image:     raw.Image,
		Alt:       raw.Alt,
		Brand:     raw.Brand,
		New:       truthy(raw.New),
		Cadeautip: truthy(raw.Cadeautip),
	}
	return nil
}

func truthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case string:
		return value != ""
	case float64:
		return value != 0
	default:
		return true
	}
}

// Categories lists the catalogue sections in display order.
var Categories = []string{"juwelen", "accessoires", "wonen"}

// Catalogue maps a category to its products.
type Catalogue map[string][]Product

// Announcement is one banner message.
type Announcement struct {
	Text   string `json:"text"`
	Active bool   `json:"active"`
}

// Popup is the promotional modal.
type Popup struct {
	Enabled        bool   `json:"enabled"`
	CacheDismissal bool   `json:"cacheDismissal"`
	Image          string `json:"image"`
	Title          string `json:"title"`
	Text           string `json:"text"`
}

// Hero is the home page header.
type Hero struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// GalleryItem is one tile of the bento grid.
type GalleryItem struct {
	Image string `json:"image"`
	Alt   string `json:"alt"`
	Href  string `json:"href"`
}

// Brands returns the carousel brands.
func (c *Client) Brands(ctx context.Context) ([]Brand, error) {
	var doc struct {
		Brands []Brand `json:"brands"`
	}
	if err := c.Decode(ctx, DocBrands, &doc); err != nil {
		return nil, err
	}
	return doc.Brands, nil
}

// Reviews returns all reviews in document order.
func (c *Client) Reviews(ctx context.Context) ([]Review, error) {
	var doc struct {
		Reviews []Review `json:"reviews"`
	}
	if err := c.Decode(ctx, DocReviews, &doc); err != nil {
		return nil, err
	}
	return doc.Reviews, nil
}

// Products returns the catalogue. Each category may be a plain list, an
// object with "items", or an object with "subcategories" holding "items".
func (c *Client) Products(ctx context.Context) (Catalogue, error) {
	var doc map[string]json.RawMessage
	if err := c.Decode(ctx, DocProducts, &doc); err != nil {
		return nil, err
	}
	out := Catalogue{}
	for _, cat := range Categories {
		raw, ok := doc[cat]
		if !ok {
			continue
		}
		items, err := categoryItems(raw)
		if err != nil {
			return nil, err
		}
		if items == nil {
			continue
		}
		for i := range items {
			items[i].Category = cat
		}
		out[cat] = items
	}
	return out, nil
}

func categoryItems(raw json.RawMessage) ([]Product, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		items := []Product{}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var nested struct {
		Items         []Product `json:"items"`
		Subcategories []struct {
			Items []Product `json:"items"`
		} `json:"subcategories"`
	}
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, err
	}
	if nested.Items != nil {
		return nested.Items, nil
	}
	if nested.Subcategories != nil {
		items := []Product{}
		for _, sub := range nested.Subcategories {
			items = append(items, sub.Items...)
		}
		return items, nil
	}
	return []Product{}, nil
}

// Announcements returns every announcement, active or not.
func (c *Client) Announcements(ctx context.Context) ([]Announcement, error) {
	var doc struct {
		Announcements []Announcement `json:"announcements"`
	}
	if err := c.Decode(ctx, DocAnnouncements, &doc); err != nil {
		return nil, err
	}
	return doc.Announcements, nil
}

// Popup returns the promotional popup.
func (c *Client) Popup(ctx context.Context) (Popup, error) {
	var p Popup
	if err := c.Decode(ctx, DocPopup, &p); err != nil {
		return Popup{}, err
	}
	return p, nil
}

// Hero returns the home page header.
func (c *Client) Hero(ctx context.Context) (Hero, error) {
	var h Hero
	if err := c.Decode(ctx, DocHero, &h); err != nil {
		return Hero{}, err
	}
	return h, nil
}

// Gallery returns the bento grid tiles.
func (c *Client) Gallery(ctx context.Context) ([]GalleryItem, error) {
	var doc struct {
		Gallery []GalleryItem `json:"gallery"`
	}
	if err := c.Decode(ctx, DocGallery, &doc); err != nil {
		return nil, err
	}
	return doc.Gallery, nil
}

// OpeningHours returns the schedule with the custom-dates document applied.
// A missing custom-dates document is not an error.
func (c *Client) OpeningHours(ctx context.Context) (hours.Schedule, error) {
	doc, err := c.Document(ctx, DocOpeningHours)
	if err != nil {
		return hours.Schedule{}, err
	}
	schedule, err := hours.ParseDocument(doc)
	if err != nil {
		return hours.Schedule{}, err
	}

	custom, err := c.Document(ctx, DocCustomDates)
	switch {
	case errors.Is(err, ErrNotFound):
		return schedule, nil
	case err != nil:
		c.logger.Warn("custom dates unavailable", zap.Error(err))
		return schedule, nil
	}
	overrides, err := hours.ParseCustomDates(custom)
	if err != nil {
		c.logger.Warn("custom dates ignored", zap.Error(err))
		return schedule, nil
	}
	return schedule.WithOverrides(overrides), nil
}
