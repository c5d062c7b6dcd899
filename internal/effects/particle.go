// Package effects holds the cosmetic layer derived from snapshot deltas:
// particle bursts, screen shake and the trigger detector.
package effects

import (
	"image/color"
	"math"
)

// Particle tuning. Speed is in pixels per tick, decay in life per tick.
const (
	MinSpeed  = 2.0
	MaxSpeed  = 5.0
	MinDecay  = 0.02
	MaxDecay  = 0.05
	BaseSize  = 3.0 // disc radius at full life
	GlowScale = 2.2 // glow radius relative to the core disc
	GlowAlpha = 0.35
)

// Particle is a short-lived cosmetic point with no link to game state.
type Particle struct {
	X, Y     float64
	VX, VY   float64
	Color    color.NRGBA
	Life     float64 // 1.0 at spawn, removed once <= 0
	Decay    float64
	Friction float64
}

// DiscSink receives filled discs. alpha in [0,1] multiplies the color's alpha.
type DiscSink interface {
	FillDisc(x, y, r float64, c color.NRGBA, alpha float64)
}

// Advance moves p one tick: position integrates velocity, velocity decays by
// friction and life drops by decay.
func Advance(p *Particle) {
	p.X += p.VX
	p.Y += p.VY
	p.VX *= p.Friction
	p.VY *= p.Friction
	p.Life -= p.Decay
}

// Expired reports whether p must be removed.
func Expired(p Particle) bool {
	return p.Life <= 0
}

// Render projects p onto sink as a soft glow plus a core disc, both shrinking
// and fading with life.
func Render(p Particle, sink DiscSink) {
	if Expired(p) {
		return
	}
	life := math.Min(p.Life, 1)
	r := BaseSize * life
	sink.FillDisc(p.X, p.Y, r*GlowScale, p.Color, life*GlowAlpha)
	sink.FillDisc(p.X, p.Y, r, p.Color, life)
}
