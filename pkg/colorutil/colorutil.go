// Package colorutil provides shared color utilities for the offside checker.
package colorutil

import (
	"fmt"
	"image/color"
)

// Common overlay colors used throughout the application.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Blue    = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Red     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Orange  = color.RGBA{R: 255, G: 140, B: 0, A: 255}
)

// RayPalette is the fixed cyclic palette for offside rays. A new ray's
// color is the palette entry at the current ray count; the palette wraps
// once its length is exhausted.
var RayPalette = []color.RGBA{
	Red,
	Cyan,
	Yellow,
	Magenta,
	Green,
	Orange,
}

// RayColor returns the palette color for a ray created while count rays
// already exist.
func RayColor(count int) color.RGBA {
	return RayPalette[count%len(RayPalette)]
}

// Hex formats a color as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses a #rrggbb string. Malformed input yields White and
// ok=false.
func ParseHex(s string) (color.RGBA, bool) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return White, false
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, true
}
