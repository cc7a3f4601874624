package nav

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func active(items []RenderedItem) []string {
	var out []string
	for _, it := range items {
		if it.Active {
			out = append(out, it.Href)
		}
	}
	return out
}

func TestBuildActiveState(t *testing.T) {
	require.Equal(t, []string{"/"}, active(Build("/")))
	require.Equal(t, []string{"/"}, active(Build("")))
	require.Equal(t, []string{"/collectie"}, active(Build("/collectie")))
	require.Equal(t, []string{"/openingsuren"}, active(Build("/openingsuren")))
	require.Empty(t, active(Build("/collectie-oud")))
	require.Empty(t, active(Build("/privacy")))
}

func TestBreadcrumbs(t *testing.T) {
	crumbs := Breadcrumbs("/collectie")
	require.Len(t, crumbs, 2)
	require.Equal(t, "nav.home", crumbs[0].LabelKey)
	require.False(t, crumbs[0].Active)
	require.Equal(t, Crumb{Href: "/collectie", LabelKey: "nav.collection", Label: "Collectie", Active: true}, crumbs[1])

	crumbs = Breadcrumbs("/pagina/algemene-voorwaarden")
	require.Len(t, crumbs, 3)
	require.Equal(t, "", crumbs[1].LabelKey)
	require.Equal(t, "Algemene voorwaarden", crumbs[2].Label)
	require.True(t, crumbs[2].Active)

	require.Len(t, Breadcrumbs("/"), 1)
}
