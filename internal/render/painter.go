// Package render paints snake frames onto an RGBA canvas.
package render

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/fogleman/gg"

	"neon-snake/internal/config"
	"neon-snake/internal/effects"
	"neon-snake/internal/game"
	"neon-snake/internal/overlay"
)

const (
	scanlinePeriod  = 3
	foodPulsePeriod = 150.0  // ms divisor inside sin()
	shockwaveCycle  = 1200.0 // ms
	maxHypeGlow     = 100    // px
	boardMargin     = 8
)

// ParticleLayer is the particle pool as seen by the painter.
type ParticleLayer interface {
	Tick()
	Render(effects.DiscSink)
}

// Frame is everything one tick needs to paint.
type Frame struct {
	Snapshot  *game.Snapshot
	Viewport  Viewport
	Now       time.Time
	ShakeX    float64
	ShakeY    float64
	Rainbow   bool
	Particles ParticleLayer
	Overlay   overlay.State
	Labels    Labels
}

// Painter owns the canvas and draws frames onto it. The canvas is never
// cleared between frames: the translucent trail pass fades the last one.
type Painter struct {
	visual config.VisualConfig
	fonts  FontSet
	canvas *image.RGBA
	dc     *gg.Context
	fast   *FastRenderer
}

// NewPainter allocates a width x height canvas.
func NewPainter(width, height int, visual config.VisualConfig, fonts FontSet) *Painter {
	p := &Painter{visual: visual, fonts: fonts}
	p.Resize(width, height)
	return p
}

// Resize reallocates the canvas when the container size changes.
func (p *Painter) Resize(width, height int) {
	width = max(1, width)
	height = max(1, height)
	if p.canvas != nil && p.canvas.Bounds().Dx() == width && p.canvas.Bounds().Dy() == height {
		return
	}
	p.canvas = image.NewRGBA(image.Rect(0, 0, width, height))
	p.dc = gg.NewContextForRGBA(p.canvas)
	p.fast = NewFastRenderer(p.canvas)
	p.fast.Clear(ColorTrail)
}

// Canvas returns the canvas. It is overwritten by the next Paint.
func (p *Painter) Canvas() *image.RGBA {
	return p.canvas
}

// Size returns the canvas dimensions.
func (p *Painter) Size() (int, int) {
	b := p.canvas.Bounds()
	return b.Dx(), b.Dy()
}

// BoardArea is the canvas minus the HUD strip. Tiny canvases get no strip.
func (p *Painter) BoardArea() image.Rectangle {
	w, h := p.Size()
	top := p.visual.HUDHeight
	if top*3 > h {
		top = 0
	}
	area := image.Rect(0, top, w, h)
	inset := area.Inset(boardMargin)
	if inset.Empty() {
		return area
	}
	return inset
}

// Paint draws f in the fixed layer order: trail, grid, path, food, snake,
// particles (all shaken), then scanlines, hype glow, HUD and overlay.
func (p *Painter) Paint(f Frame) {
	snap := f.Snapshot
	vp := f.Viewport
	if snap == nil || !vp.Valid() {
		return
	}
	w, h := p.Size()
	ms := float64(f.Now.UnixMilli())

	// Trail fade replaces a clear.
	p.fast.FillRectBlend(0, 0, w, h, withAlpha(ColorTrail, p.visual.TrailAlpha))

	p.dc.Push()
	p.dc.Translate(f.ShakeX, f.ShakeY)

	p.drawGrid(vp, f.ShakeX, f.ShakeY)
	p.drawPlannedPath(snap, vp)
	p.drawFood(snap, vp, ms, f.ShakeX, f.ShakeY)
	p.drawSnake(snap, vp, f.Rainbow, ms)

	if f.Particles != nil {
		f.Particles.Tick()
		f.Particles.Render(offsetSink{r: p.fast, dx: f.ShakeX, dy: f.ShakeY})
	}

	p.dc.Pop()

	if p.visual.Scanlines {
		p.fast.Scanlines(scanlinePeriod, ColorScanline)
	}
	if glow := int(math.Min(snap.Hype*2, maxHypeGlow)); glow > 0 {
		p.fast.InsetGlow(glow, ColorHype)
	}

	p.drawHUD(f.Labels)
	if f.Overlay.Visible {
		p.drawOverlay(f.Overlay)
	}
}

func (p *Painter) drawGrid(vp Viewport, dx, dy float64) {
	ox := vp.OriginX + int(math.Round(dx))
	oy := vp.OriginY + int(math.Round(dy))
	for x := 0; x <= vp.Grid.W; x++ {
		px := ox + x*vp.CellSize
		p.fast.VerticalLineBlend(px, oy, oy+vp.BoardH, ColorGrid)
	}
	for y := 0; y <= vp.Grid.H; y++ {
		py := oy + y*vp.CellSize
		p.fast.HorizontalLineBlend(ox, ox+vp.BoardW, py, ColorGrid)
	}
}

func (p *Painter) drawPlannedPath(snap *game.Snapshot, vp Viewport) {
	head, ok := snap.Head()
	if !ok || len(snap.PlannedPath) == 0 {
		return
	}

	p.dc.SetColor(ColorPath)
	p.dc.SetLineWidth(1)
	p.dc.MoveTo(vp.CellCenter(float64(head.X), float64(head.Y)))
	for _, c := range snap.PlannedPath {
		p.dc.LineTo(vp.CellCenter(float64(c.X), float64(c.Y)))
	}
	p.dc.Stroke()
}

// FoodRadius is the pulsing orb radius at wall-clock ms.
func FoodRadius(cellSize int, ms float64) float64 {
	base := float64(cellSize)/2 - 2
	return math.Max(0, base+math.Sin(ms/foodPulsePeriod)*2)
}

// Shockwave returns the ring radius and opacity at wall-clock ms.
func Shockwave(cellSize int, ms float64) (radius, alpha float64) {
	base := float64(cellSize)/2 - 2
	wave := math.Mod(ms, shockwaveCycle) / shockwaveCycle
	return math.Max(0, base+wave*float64(cellSize)*0.8), 1 - wave
}

func (p *Painter) drawFood(snap *game.Snapshot, vp Viewport, ms, dx, dy float64) {
	if snap.Food == nil {
		return
	}
	fx, fy := vp.CellCenter(float64(snap.Food.X), float64(snap.Food.Y))
	r := FoodRadius(vp.CellSize, ms)

	// Glow halo, then the orb.
	p.fast.FillDisc(fx+dx, fy+dy, r*2, ColorFood, 0.12)
	p.fast.FillDisc(fx+dx, fy+dy, r*1.4, ColorFood, 0.25)
	p.dc.SetColor(ColorFood)
	p.dc.DrawCircle(fx, fy, r)
	p.dc.Fill()

	ring, alpha := Shockwave(vp.CellSize, ms)
	if alpha > 0 && ring > 0 {
		p.dc.SetColor(withAlpha(ColorFood, alpha))
		p.dc.SetLineWidth(2)
		p.dc.DrawCircle(fx, fy, ring)
		p.dc.Stroke()
	}
}

func (p *Painter) drawSnake(snap *game.Snapshot, vp Viewport, rainbow bool, ms float64) {
	n := len(snap.Snake)
	if n == 0 {
		return
	}

	cs := float64(vp.CellSize)
	pad := math.Max(1, math.Round(cs*0.08))
	size := cs - pad*2
	radius := math.Min(6, size*0.3)
	glow := withAlpha(ColorCyan, 0.18)

	for i, c := range snap.Snake {
		x, y := vp.CellOrigin(c)

		p.dc.SetColor(glow)
		p.dc.DrawRoundedRectangle(x, y, cs, cs, radius+pad)
		p.dc.Fill()

		var fill color.Color = ColorHead
		if i > 0 {
			fill = HSL(SegmentHue(i, n, rainbow, ms, p.visual.RainbowSpeed, p.visual.RainbowStep), 1, 0.5)
		}
		p.dc.SetColor(fill)
		p.dc.DrawRoundedRectangle(x+pad, y+pad, size, size, radius)
		p.dc.Fill()
	}

	if n > 1 {
		p.drawEyes(snap.Snake[0], snap.Snake[1], vp)
	}
}

// EyeOffsets returns the unit offsets of both eyes from the head center,
// facing away from the second segment.
func EyeOffsets(head, next game.Cell) (e1, e2 [2]float64) {
	dx := head.X - next.X
	dy := head.Y - next.Y
	switch {
	case dx == 1:
		return [2]float64{1, -1}, [2]float64{1, 1}
	case dx == -1:
		return [2]float64{-1, -1}, [2]float64{-1, 1}
	case dy == 1:
		return [2]float64{-1, 1}, [2]float64{1, 1}
	default:
		return [2]float64{-1, -1}, [2]float64{1, -1}
	}
}

func (p *Painter) drawEyes(head, next game.Cell, vp Viewport) {
	cx, cy := vp.CellCenter(float64(head.X), float64(head.Y))
	cs := float64(vp.CellSize)
	off := math.Max(2, cs*0.16)
	r := math.Max(1, cs*0.12)

	e1, e2 := EyeOffsets(head, next)
	p.dc.SetColor(ColorEye)
	for _, e := range [][2]float64{e1, e2} {
		p.dc.DrawCircle(cx+e[0]*off, cy+e[1]*off, r)
		p.dc.Fill()
	}
}

func (p *Painter) drawHUD(l Labels) {
	w, h := p.Size()
	top := p.visual.HUDHeight
	if top*3 > h || top <= 0 {
		return
	}

	margin := 16.0
	cardH := float64(top) - margin*2
	cardW := float64(w) - margin*2

	p.dc.SetColor(color.NRGBA{0, 0, 0, 40})
	p.dc.DrawRoundedRectangle(margin+3, margin+3, cardW, cardH, 6)
	p.dc.Fill()
	p.dc.SetColor(ColorCard)
	p.dc.DrawRoundedRectangle(margin, margin, cardW, cardH, 6)
	p.dc.Fill()

	accent := ColorCyan
	if !l.Online {
		accent = ColorOffline
	}
	p.dc.SetColor(accent)
	p.dc.DrawRoundedRectangle(margin, margin, 4, cardH, 2)
	p.dc.Fill()

	row1 := margin + cardH*0.36
	row2 := margin + cardH*0.76
	left := margin + 20
	right := margin + cardW - 20

	p.dc.SetFontFace(p.fonts.Small)
	p.dc.SetColor(ColorText)
	p.dc.DrawStringAnchored(l.Score, left, row1, 0, 0.5)
	p.dc.SetColor(ColorFood)
	p.dc.DrawStringAnchored(l.Hype, right, row1, 1, 0.5)
	p.dc.SetColor(ColorSubtle)
	p.dc.DrawStringAnchored(l.Status, left, row2, 0, 0.5)

	// Connection indicator dot plus label, right-aligned on the second row.
	p.dc.SetColor(accent)
	tw, _ := p.dc.MeasureString(l.Connection)
	p.dc.DrawCircle(right-tw-12, row2, 4)
	p.dc.Fill()
	p.dc.DrawStringAnchored(l.Connection, right, row2, 1, 0.5)
}

func (p *Painter) drawOverlay(st overlay.State) {
	w, h := p.Size()
	p.fast.FillRectBlend(0, 0, w, h, color.NRGBA{0, 0, 0, 150})

	cx, cy := float64(w)/2, float64(h)/2

	p.dc.SetFontFace(p.fonts.Large)
	p.dc.SetColor(withAlpha(st.Color, 0.35))
	p.dc.DrawStringAnchored(st.Title, cx+2, cy+2, 0.5, 0.5)
	p.dc.SetColor(st.Color)
	p.dc.DrawStringAnchored(st.Title, cx, cy, 0.5, 0.5)

	p.dc.SetFontFace(p.fonts.Medium)
	p.dc.SetColor(ColorText)
	p.dc.DrawStringAnchored(st.Subtext(), cx, cy+float64(h)*0.06, 0.5, 0.5)
}
