package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLabel(t *testing.T) {
	require.Equal(t, "Juwelen", Label("juwelen"))
	require.Equal(t, "Oorbellen Zilver", Label("oorbellen-zilver"))
	require.Equal(t, "Ring XL", Label("ring-XL"))
}

func TestInitials(t *testing.T) {
	require.Equal(t, "JD", Initials("jan de Vries"))
	require.Equal(t, "AN", Initials("An  Nys"))
	require.Equal(t, "É", Initials("émile"))
	require.Equal(t, "??", Initials(""))
}

func TestStars(t *testing.T) {
	require.Equal(t, []bool{true, true, true, true, true}, Stars(0))
	require.Equal(t, []bool{true, true, true, false, false}, Stars(3))
	require.Equal(t, []bool{true, true, true, true, true}, Stars(4.5))
}

func TestFmtDate(t *testing.T) {
	d := time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "9 maart 2025", FmtDate(d, "nl"))
	require.Equal(t, "March 9, 2025", FmtDate(d, "en"))
}
