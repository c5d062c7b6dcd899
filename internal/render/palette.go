package render

import (
	"fmt"
	"image/color"
	"math"
)

// Neon palette.
var (
	ColorTrail    = color.NRGBA{5, 5, 16, 255} // alpha comes from VisualConfig.TrailAlpha
	ColorGrid     = color.NRGBA{0, 255, 255, 13}
	ColorPath     = color.NRGBA{0, 255, 200, 26}
	ColorFood     = parseHexColor("#ff0055")
	ColorHead     = color.NRGBA{255, 255, 255, 255}
	ColorEye      = color.NRGBA{0, 0, 0, 255}
	ColorScanline = color.NRGBA{0, 0, 0, 26}
	ColorHype     = color.NRGBA{255, 0, 85, 102}
	ColorCyan     = parseHexColor("#00d4ff")
	ColorOffline  = parseHexColor("#ff3c3c")
	ColorText     = color.NRGBA{255, 255, 255, 255}
	ColorSubtle   = color.NRGBA{160, 165, 180, 255}
	ColorCard     = color.NRGBA{18, 18, 24, 235}
)

// parseHexColor parses #rrggbb. Anything else yields white.
func parseHexColor(hex string) color.NRGBA {
	if len(hex) != 7 || hex[0] != '#' {
		return color.NRGBA{255, 255, 255, 255}
	}

	var r, g, b uint8
	if _, err := fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.NRGBA{255, 255, 255, 255}
	}
	return color.NRGBA{r, g, b, 255}
}

// HSL converts hue (degrees, any range), saturation and lightness in [0,1].
func HSL(h, s, l float64) color.NRGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}

	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return color.NRGBA{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
		A: 255,
	}
}

// SegmentHue returns the hue of body segment i of n.
// Static mode runs cyan to violet head to tail; rainbow mode cycles with time.
func SegmentHue(i, n int, rainbow bool, ms, speed, step float64) float64 {
	if rainbow {
		return math.Mod(ms*speed+float64(i)*step, 360)
	}
	if n <= 0 {
		return 180
	}
	return 180 + 90*float64(i)/float64(n)
}

func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * clamp01(a)))
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
