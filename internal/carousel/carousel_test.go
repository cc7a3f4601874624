package carousel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetWidthAddsGapBetweenItemsOnly(t *testing.T) {
	widths := []float64{200, 200, 200}
	require.Equal(t, 696.0, SetWidth(widths, 1280))
	require.Equal(t, 664.0, SetWidth(widths, 767))
	require.Equal(t, 200.0, SetWidth([]float64{200}, 1280))
	require.Zero(t, SetWidth(nil, 1280))
}

func TestDurationHasFloor(t *testing.T) {
	require.Equal(t, 20.0, Duration(0))
	require.Equal(t, 20.0, Duration(1000))
	require.Equal(t, 30.0, Duration(1500))
}

func TestStyle(t *testing.T) {
	widths := make([]float64, 10)
	for i := range widths {
		widths[i] = 160
	}
	// desktop: 1600 + 9*48 = 2032, mobile: 1600 + 9*32 = 1888
	require.Equal(t,
		"--scroll-duration: 40.64s; --scroll-distance: -2032px; --scroll-duration-mobile: 37.76s; --scroll-distance-mobile: -1888px;",
		Style(widths))
}
