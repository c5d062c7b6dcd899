package effects

import "math/rand"

// Shake is a frame-counted camera jitter. Retriggering restarts the count.
type Shake struct {
	Remaining int     // frames left
	Magnitude float64 // peak-to-peak jitter in pixels
}

// Trigger (re)starts the shake for frames frames.
func (s *Shake) Trigger(frames int, magnitude float64) {
	s.Remaining = frames
	s.Magnitude = magnitude
}

// Active reports whether a shake frame is pending.
func (s *Shake) Active() bool {
	return s.Remaining > 0
}

// Offset consumes one frame and returns a random offset in
// [-Magnitude/2, Magnitude/2) on each axis. It returns (0, 0) when idle.
func (s *Shake) Offset(rng *rand.Rand) (dx, dy float64) {
	if s.Remaining <= 0 {
		return 0, 0
	}
	s.Remaining--
	dx = (rng.Float64() - 0.5) * s.Magnitude
	dy = (rng.Float64() - 0.5) * s.Magnitude
	return dx, dy
}
