package effects

import (
	"image/color"
	"math"
	"math/rand"
)

// Point is a pixel position.
type Point struct {
	X, Y float64
}

// Particles owns the live particle set. Not safe for concurrent use; the
// presenter goroutine is its only caller.
type Particles struct {
	items []Particle
	rng   *rand.Rand
}

// NewParticles creates an empty pool drawing randomness from rng.
func NewParticles(rng *rand.Rand) *Particles {
	return &Particles{
		items: make([]Particle, 0, 128),
		rng:   rng,
	}
}

// Spawn emits count particles at the pixel centroid of cell (cellX, cellY),
// computed through cellSize and origin. Directions are uniform in [0, 2π).
func (ps *Particles) Spawn(cellX, cellY, cellSize float64, origin Point, c color.NRGBA, count int, friction float64) {
	cx := origin.X + cellX*cellSize + cellSize/2
	cy := origin.Y + cellY*cellSize + cellSize/2

	for i := 0; i < count; i++ {
		angle := ps.rng.Float64() * math.Pi * 2
		speed := MinSpeed + ps.rng.Float64()*(MaxSpeed-MinSpeed)

		ps.items = append(ps.items, Particle{
			X:        cx,
			Y:        cy,
			VX:       math.Cos(angle) * speed,
			VY:       math.Sin(angle) * speed,
			Color:    c,
			Life:     1.0,
			Decay:    MinDecay + ps.rng.Float64()*(MaxDecay-MinDecay),
			Friction: friction,
		})
	}
}

// Tick advances every particle once and drops the expired ones in place.
func (ps *Particles) Tick() {
	n := 0
	for i := range ps.items {
		Advance(&ps.items[i])
		if !Expired(ps.items[i]) {
			ps.items[n] = ps.items[i]
			n++
		}
	}
	ps.items = ps.items[:n]
}

// Render draws every live particle. It does not advance the simulation.
func (ps *Particles) Render(sink DiscSink) {
	for _, p := range ps.items {
		Render(p, sink)
	}
}

// Len returns the number of live particles.
func (ps *Particles) Len() int {
	return len(ps.items)
}

// Snapshot returns a copy of the live particles.
func (ps *Particles) Snapshot() []Particle {
	out := make([]Particle, len(ps.items))
	copy(out, ps.items)
	return out
}

// Clear drops all particles.
func (ps *Particles) Clear() {
	ps.items = ps.items[:0]
}
