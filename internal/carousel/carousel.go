// Package carousel computes the geometry of the infinitely scrolling brand strip.
package carousel

import (
	"fmt"
	"math"
	"strconv"
)

const (
	// Clones is how many times the brand set is rendered back to back.
	Clones = 3
	// MobileBreakpoint is the viewport width below which the compact gap applies.
	MobileBreakpoint = 768
	MobileGap        = 32
	DesktopGap       = 48
	// Speed is the scroll speed in pixels per second.
	Speed = 50
	// MinDuration is the shortest loop in seconds.
	MinDuration = 20

	// Nominal viewports used when rendering on the server.
	DesktopViewport = 1280
	MobileViewport  = 375
)

// Gap returns the space between two items for a viewport width.
func Gap(viewport float64) float64 {
	if viewport < MobileBreakpoint {
		return MobileGap
	}
	return DesktopGap
}

// SetWidth is the width of one copy of the set: the item widths plus a gap
// between consecutive items.
func SetWidth(widths []float64, viewport float64) float64 {
	if len(widths) == 0 {
		return 0
	}
	total := 0.0
	for _, w := range widths {
		total += w
	}
	return total + Gap(viewport)*float64(len(widths)-1)
}

// Duration returns the loop duration in seconds for a set width.
func Duration(setWidth float64) float64 {
	return math.Max(MinDuration, setWidth/Speed)
}

// Animation holds the values handed to the stylesheet.
type Animation struct {
	Duration float64
	Distance float64
}

// Animate computes the animation for the given item widths and viewport.
func Animate(widths []float64, viewport float64) Animation {
	set := SetWidth(widths, viewport)
	return Animation{Duration: Duration(set), Distance: set}
}

// Vars renders the CSS custom properties, suffixed for non-desktop variants.
func (a Animation) Vars(suffix string) string {
	return fmt.Sprintf("--scroll-duration%s: %ss; --scroll-distance%s: -%spx;",
		suffix, number(a.Duration), suffix, number(a.Distance))
}

// Style returns the desktop and mobile custom properties for an inline style
// attribute.
func Style(widths []float64) string {
	return Animate(widths, DesktopViewport).Vars("") + " " + Animate(widths, MobileViewport).Vars("-mobile")
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
