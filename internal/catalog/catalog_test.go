package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/etalage/web/internal/cms"
)

func sample() cms.Catalogue {
	return cms.Catalogue{
		"juwelen": {
			{Category: "juwelen", Image: "/img/uploads/ring.jpg", Alt: "Ring", New: true},
			{Category: "juwelen", Image: "img/uploads/ketting.jpg", Brand: "Zag", Cadeautip: true},
			{Category: "juwelen", Image: "img/uploads/both.jpg", New: true, Cadeautip: true},
		},
		"accessoires": {
			{Category: "accessoires", Image: "img/uploads/sjaal.jpg", New: true},
		},
		"wonen": {},
	}
}

func TestParseFilter(t *testing.T) {
	require.Equal(t, Filter{New: true, Cadeautip: true}, ParseFilter([]string{"new", "cadeautip"}))
	require.Equal(t, Filter{New: true, Cadeautip: true}, ParseFilter([]string{"NEW,cadeautip"}))
	require.Equal(t, Filter{}, ParseFilter([]string{"sale"}))
}

func TestBuildWithoutFilter(t *testing.T) {
	view := Build(sample(), Filter{})
	require.Equal(t, 4, view.Total)
	require.Len(t, view.Sections, 2, "empty wonen section is hidden")
	require.Equal(t, []Link{
		{Href: "#juwelen", Label: "Juwelen", Key: "juwelen"},
		{Href: "#accessoires", Label: "Accessoires", Key: "accessoires"},
	}, view.Sidebar)
	require.Equal(t, "static/img/uploads/ring.jpg", view.Sections[0].Items[0].Image)
	require.Equal(t, "Zag", view.Sections[0].Items[1].Alt)
}

func TestFiltersCombineWithAnd(t *testing.T) {
	view := Build(sample(), Filter{New: true})
	require.Equal(t, 3, view.Total)

	view = Build(sample(), Filter{New: true, Cadeautip: true})
	require.Equal(t, 1, view.Total)
	require.Len(t, view.Sections, 1)
	require.Len(t, view.Sidebar, 1)
	require.Equal(t, "static/img/uploads/both.jpg", view.Sections[0].Items[0].Image)

	view = Build(cms.Catalogue{"wonen": {{Image: "a.jpg"}}}, Filter{Cadeautip: true})
	require.True(t, view.Empty())
	require.Empty(t, view.Sidebar)
}

func TestToggle(t *testing.T) {
	f := Filter{New: true}
	require.Equal(t, "", f.Toggle(FilterNew))
	require.Equal(t, "filter=new&filter=cadeautip", f.Toggle(FilterCadeautip))
}
