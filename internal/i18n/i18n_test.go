package i18n

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func load(t *testing.T) *Bundle {
	t.Helper()
	b, err := Load("../../locales", "nl", []string{"nl", "en"})
	require.NoError(t, err)
	return b
}

func TestResolveHonorsQValues(t *testing.T) {
	b := load(t)
	require.Equal(t, "en", b.Resolve("nl;q=0.8, en-GB;q=0.9"))
	require.Equal(t, "nl", b.Resolve("nl-BE,fr;q=0.5"))
	require.Equal(t, "nl", b.Resolve("fr-FR, de;q=0.7"))
	require.Equal(t, "nl", b.Resolve(""))
	require.Equal(t, "nl", b.Resolve(";;;"))
}

func TestTranslateFallsBack(t *testing.T) {
	b := load(t)
	require.Equal(t, "Open", b.T("en", "hours.status.open"))
	require.Equal(t, "Nu open", b.T("nl", "hours.status.open"))
	require.Equal(t, "Nu open", b.T("fr", "hours.status.open"))
	require.Equal(t, "missing.key", b.T("nl", "missing.key"))
	require.Equal(t, "2 weken vooruit", b.Tf("nl", "hours.week.ahead", 2))
}

func TestLoadRequiresFallback(t *testing.T) {
	_, err := Load(t.TempDir(), "nl", []string{"nl"})
	require.Error(t, err)
}

func TestLocaleFilesShareKeys(t *testing.T) {
	b := load(t)
	for key := range b.dict["nl"] {
		_, ok := b.dict["en"][key]
		require.Truef(t, ok, "en.json is missing %q", key)
	}
	for key := range b.dict["en"] {
		_, ok := b.dict["nl"][key]
		require.Truef(t, ok, "nl.json is missing %q", key)
	}
}
