// Package markup renders CMS rich text (inline markdown or HTML) into safe HTML.
package markup

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	md  = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))
	doc = goldmark.New(goldmark.WithExtensions(extension.GFM))

	policy = func() *bluemonday.Policy {
		p := bluemonday.UGCPolicy()
		p.AllowElements("u", "del", "s", "br")
		p.RequireNoFollowOnLinks(false)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		return p
	}()
)

// Inline renders a single line of CMS text. Text that already contains a tag
// is treated as HTML; everything else is inline markdown (**bold**, *italic*,
// __bold__, _italic_, ~~strike~~, `code`). The result is always sanitised and
// never wrapped in a paragraph.
func Inline(text string) template.HTML {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if strings.Contains(text, "<") {
		return template.HTML(policy.Sanitize(text))
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	out := strings.TrimSpace(buf.String())
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") && strings.Count(out, "<p>") == 1 {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return template.HTML(policy.Sanitize(out))
}

// HTML sanitises a block of CMS HTML such as the popup body.
func HTML(text string) template.HTML {
	return template.HTML(policy.Sanitize(text))
}

// Markdown renders a full markdown document, such as a legal page, with
// GitHub flavoured extensions.
func Markdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := doc.Convert([]byte(text), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(text) + "</p>")
	}
	return template.HTML(policy.Sanitize(buf.String()))
}
