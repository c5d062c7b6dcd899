package render

import (
	"image"
	"image/color"
	"math"
)

// FastRenderer writes blended primitives straight into an RGBA canvas.
// It bypasses gg.Context for the per-frame full-canvas passes (trail fade,
// grid, scanlines, particles) where path rasterization is pure overhead.
// The canvas is treated as opaque.
type FastRenderer struct {
	img    *image.RGBA
	width  int
	height int
	stride int
}

// NewFastRenderer wraps img. Writes go to img.Pix directly.
func NewFastRenderer(img *image.RGBA) *FastRenderer {
	b := img.Bounds()
	return &FastRenderer{
		img:    img,
		width:  b.Dx(),
		height: b.Dy(),
		stride: img.Stride,
	}
}

// Clear fills the entire canvas with a solid color.
func (r *FastRenderer) Clear(c color.NRGBA) {
	buf := r.img.Pix
	for i := 0; i+3 < len(buf); i += 4 {
		buf[i] = c.R
		buf[i+1] = c.G
		buf[i+2] = c.B
		buf[i+3] = 255
	}
}

// blend mixes c at opacity a (in [0,1]) into the pixel at idx.
func (r *FastRenderer) blend(idx int, c color.NRGBA, a float64) {
	buf := r.img.Pix
	inv := 1.0 - a
	buf[idx] = uint8(float64(c.R)*a + float64(buf[idx])*inv)
	buf[idx+1] = uint8(float64(c.G)*a + float64(buf[idx+1])*inv)
	buf[idx+2] = uint8(float64(c.B)*a + float64(buf[idx+2])*inv)
	buf[idx+3] = 255
}

// FillRectBlend blends a rectangle using c's own alpha.
func (r *FastRenderer) FillRectBlend(x, y, w, h int, c color.NRGBA) {
	if c.A == 0 {
		return
	}
	x1 := max(0, x)
	y1 := max(0, y)
	x2 := min(r.width, x+w)
	y2 := min(r.height, y+h)
	if x1 >= x2 || y1 >= y2 {
		return
	}

	a := float64(c.A) / 255.0
	for py := y1; py < y2; py++ {
		rowStart := py * r.stride
		for px := x1; px < x2; px++ {
			r.blend(rowStart+px*4, c, a)
		}
	}
}

// HorizontalLineBlend blends a 1px row from x1 to x2 inclusive.
func (r *FastRenderer) HorizontalLineBlend(x1, x2, y int, c color.NRGBA) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	r.FillRectBlend(x1, y, x2-x1+1, 1, c)
}

// VerticalLineBlend blends a 1px column from y1 to y2 inclusive.
func (r *FastRenderer) VerticalLineBlend(x, y1, y2 int, c color.NRGBA) {
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	r.FillRectBlend(x, y1, 1, y2-y1+1, c)
}

// FillDisc blends a filled circle at opacity alpha times c's alpha.
// It satisfies effects.DiscSink.
func (r *FastRenderer) FillDisc(cx, cy, radius float64, c color.NRGBA, alpha float64) {
	a := clamp01(alpha) * float64(c.A) / 255.0
	if a <= 0 || radius <= 0 {
		return
	}

	radSq := radius * radius
	y1 := max(0, int(math.Floor(cy-radius)))
	y2 := min(r.height, int(math.Ceil(cy+radius))+1)

	for py := y1; py < y2; py++ {
		dy := float64(py) + 0.5 - cy
		dySq := dy * dy
		if dySq > radSq {
			continue
		}
		xExtent := math.Sqrt(radSq - dySq)
		x1 := max(0, int(math.Floor(cx-xExtent)))
		x2 := min(r.width, int(math.Ceil(cx+xExtent))+1)

		rowStart := py * r.stride
		for px := x1; px < x2; px++ {
			dx := float64(px) + 0.5 - cx
			if dx*dx+dySq <= radSq {
				r.blend(rowStart+px*4, c, a)
			}
		}
	}
}

// InsetGlow paints a glow fading inward from every canvas edge over depth
// pixels, starting at c's alpha on the edge.
func (r *FastRenderer) InsetGlow(depth int, c color.NRGBA) {
	depth = min(depth, r.width/2, r.height/2)
	if depth <= 0 || c.A == 0 {
		return
	}

	for k := 0; k < depth; k++ {
		falloff := 1.0 - float64(k)/float64(depth)
		ring := withAlpha(c, falloff*falloff)
		if ring.A == 0 {
			continue
		}
		r.HorizontalLineBlend(k, r.width-1-k, k, ring)
		r.HorizontalLineBlend(k, r.width-1-k, r.height-1-k, ring)
		r.VerticalLineBlend(k, k+1, r.height-2-k, ring)
		r.VerticalLineBlend(r.width-1-k, k+1, r.height-2-k, ring)
	}
}

// Scanlines darkens every period-th row.
func (r *FastRenderer) Scanlines(period int, c color.NRGBA) {
	if period <= 0 {
		return
	}
	for y := 0; y < r.height; y += period {
		r.HorizontalLineBlend(0, r.width-1, y, c)
	}
}

// offsetSink shifts discs by the current shake offset.
type offsetSink struct {
	r      *FastRenderer
	dx, dy float64
}

func (s offsetSink) FillDisc(x, y, radius float64, c color.NRGBA, alpha float64) {
	s.r.FillDisc(x+s.dx, y+s.dy, radius, c, alpha)
}
