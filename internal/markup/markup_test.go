package markup

import (
	"html/template"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInlineMarkdown(t *testing.T) {
	cases := map[string]template.HTML{
		"**Sale** nu":         "<strong>Sale</strong> nu",
		"*zacht* licht":       "<em>zacht</em> licht",
		"__vet__":             "<strong>vet</strong>",
		"_schuin_":            "<em>schuin</em>",
		"~~oud~~ nieuw":       "<del>oud</del> nieuw",
		"code `x`":            "code <code>x</code>",
		"gewoon tekst & meer": "gewoon tekst &amp; meer",
		"":                    "",
	}
	for in, want := range cases {
		require.Equal(t, want, Inline(in), "input %q", in)
	}
}

func TestInlineHTMLPassthroughIsSanitised(t *testing.T) {
	require.Equal(t, template.HTML("<b>Open</b> op zondag"), Inline("<b>Open</b> op zondag"))
	require.Equal(t, template.HTML("hallo"), Inline(`<script>alert(1)</script>hallo`))
}

func TestHTML(t *testing.T) {
	got := HTML(`<p onclick="x()">Tekst <a href="https://example.com">link</a></p>`)
	require.Contains(t, string(got), "<p>Tekst")
	require.NotContains(t, string(got), "onclick")
	require.Contains(t, string(got), `href="https://example.com"`)
}

func TestMarkdownDocument(t *testing.T) {
	got := string(Markdown("## Privacy\n\n- geen cookies\n- ~~tracking~~\n\nMail [ons](mailto:winkel@example.com)."))
	require.Contains(t, got, "<h2>Privacy</h2>")
	require.Contains(t, got, "<li>geen cookies</li>")
	require.Contains(t, got, "<del>tracking</del>")
	require.Contains(t, got, `href="mailto:winkel@example.com"`)
	require.NotContains(t, string(Markdown("<script>x</script>")), "<script>")
}
