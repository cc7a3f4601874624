package notice

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/etalage/web/internal/cms"
)

func TestHashMatchesBrowserEncoding(t *testing.T) {
	require.Equal(t, "Wm9tZXIlMjBzYWxl", Hash("Zomer sale! 20% korting"))
	require.Equal(t, "SGFsbG8=", Hash("Hallo"))
	require.Equal(t, "Q2FmJUMzJUE5JTIw", Hash("Café open"))
}

func TestBanners(t *testing.T) {
	items := []cms.Announcement{
		{Text: "Zomer sale!\n20% korting", Active: true},
		{Text: "Inactief", Active: false},
		{Text: "  \n ", Active: true},
		{Text: "**Nieuw** binnen", Active: true},
	}

	banners := Banners(items, nil)
	require.Len(t, banners, 2)
	require.Equal(t, "Zomer sale! 20% korting", banners[0].Text)
	require.Equal(t, Hash("Zomer sale! 20% korting"), banners[0].Hash)
	require.Equal(t, "<strong>Nieuw</strong> binnen", string(banners[1].HTML))

	dismissed := map[string]bool{banners[0].Hash: true}
	banners = Banners(items, func(h string) bool { return dismissed[h] })
	require.Len(t, banners, 1)
	require.Equal(t, "**Nieuw** binnen", banners[0].Text)
}

func TestPopup(t *testing.T) {
	p := cms.Popup{Enabled: true, Image: "img/p.jpg", Title: "Nieuw", Text: "Tekst"}
	require.Equal(t, "aW1nJTJGcC5qcGcl", PopupHash(p))

	view := Popup(p, "", "")
	require.NotNil(t, view)
	require.Equal(t, "img/p.jpg", view.Image)
	require.False(t, view.Persistent)

	require.Nil(t, Popup(p, PopupHash(p), ""), "dismissed for this session")
	require.NotNil(t, Popup(p, "", PopupHash(p)), "persistent dismissal ignored without cacheDismissal")

	p.CacheDismissal = true
	require.Nil(t, Popup(p, "", PopupHash(p)))
	require.NotNil(t, Popup(p, PopupHash(p), ""))

	p.Enabled = false
	require.Nil(t, Popup(p, "", ""))
}

func TestPopupChangedContentShowsAgain(t *testing.T) {
	p := cms.Popup{Enabled: true, Title: "Oud"}
	old := PopupHash(p)
	p.Title = "Nieuw"
	require.NotNil(t, Popup(p, old, ""))
}
