package seo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/etalage/web/internal/hours"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Organization returns a minimal Organization schema.
func Organization(name, url, logoURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if logoURL != "" {
		m["logo"] = logoURL
	}
	return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// Business describes the physical store.
type Business struct {
	Name      string
	URL       string
	Phone     string
	Street    string
	Locality  string
	Postal    string
	Country   string
	Image     string
	PriceText string
}

// LocalBusiness returns a Store schema with one opening hours entry per
// open span of the given week.
func LocalBusiness(b Business, week []hours.DayView) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Store",
		"name":     b.Name,
	}
	if b.URL != "" {
		m["url"] = b.URL
	}
	if b.Phone != "" {
		m["telephone"] = b.Phone
	}
	if b.Image != "" {
		m["image"] = b.Image
	}
	if b.Street != "" || b.Locality != "" {
		addr := map[string]any{"@type": "PostalAddress"}
		setIf(addr, "streetAddress", b.Street)
		setIf(addr, "addressLocality", b.Locality)
		setIf(addr, "postalCode", b.Postal)
		setIf(addr, "addressCountry", b.Country)
		m["address"] = addr
	}
	if specs := OpeningHours(week); len(specs) > 0 {
		m["openingHoursSpecification"] = specs
	}
	return m
}

// OpeningHours converts resolved days into OpeningHoursSpecification entries.
func OpeningHours(week []hours.DayView) []map[string]any {
	var specs []map[string]any
	for _, day := range week {
		for _, span := range hours.Spans(day.Hours) {
			specs = append(specs, map[string]any{
				"@type":        "OpeningHoursSpecification",
				"dayOfWeek":    "https://schema.org/" + day.Weekday.String(),
				"opens":        clock(span.Start),
				"closes":       clock(span.End),
				"validFrom":    day.Date.Format(time.DateOnly),
				"validThrough": day.Date.Format(time.DateOnly),
			})
		}
	}
	return specs
}

func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func setIf(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
