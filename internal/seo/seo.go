package seo

// OpenGraph holds og:* meta values.
type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	SiteName    string
	Locale      string
}

// Alternate is an hreflang link.
type Alternate struct {
	Href     string
	Hreflang string
}

// Meta is the head metadata of a page.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OG          OpenGraph
	Alternates  []Alternate
	JSONLD      []map[string]any
}

// Page builds the common metadata for a page at path on baseURL.
func Page(siteName, baseURL, path, title, description, lang string, langs []string) Meta {
	full := siteName
	if title != "" && title != siteName {
		full = title + " | " + siteName
	}
	canonical := Absolute(baseURL, path)
	m := Meta{
		Title:       full,
		Description: description,
		Canonical:   canonical,
		Robots:      "index,follow",
		OG: OpenGraph{
			Title:       full,
			Description: description,
			Type:        "website",
			URL:         canonical,
			SiteName:    siteName,
			Locale:      ogLocale(lang),
		},
	}
	if len(langs) > 1 {
		for _, l := range langs {
			m.Alternates = append(m.Alternates, Alternate{Href: canonical + "?hl=" + l, Hreflang: l})
		}
	}
	return m
}

// Absolute joins baseURL and path. An empty baseURL keeps path relative.
func Absolute(baseURL, path string) string {
	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	return baseURL + path
}

func ogLocale(lang string) string {
	switch lang {
	case "nl":
		return "nl_BE"
	case "en":
		return "en_GB"
	default:
		return lang
	}
}
