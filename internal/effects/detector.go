package effects

import (
	"image/color"
	"math/rand"

	"neon-snake/internal/game"
)

// Burst families.
var (
	RewardColor = color.NRGBA{R: 0xff, G: 0x00, B: 0x55, A: 0xff} // #ff0055
	GoldColor   = color.NRGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xff} // #ffd700
)

const (
	RewardCount    = 20
	RewardFriction = 0.92

	GoldCount         = 40
	GoldFriction      = 0.95
	GoldScatterBursts = 5
	GoldScatterCount  = 10
)

// Cue names an audio cue for the stream mixer.
type Cue string

const (
	CueEat      Cue = "eat"
	CueGold     Cue = "gold"
	CueGameOver Cue = "gameover"
	CueVictory  Cue = "victory"
)

// TriggerKind discriminates Trigger.
type TriggerKind int

const (
	TriggerBurst TriggerKind = iota
	TriggerShake
	TriggerCue
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerBurst:
		return "burst"
	case TriggerShake:
		return "shake"
	case TriggerCue:
		return "cue"
	default:
		return "unknown"
	}
}

// Trigger is one transient event derived from a snapshot pair.
// Cell coordinates are fractional so a burst can sit between cells.
type Trigger struct {
	Kind TriggerKind

	// Burst
	CellX, CellY float64
	Color        color.NRGBA
	Count        int
	Friction     float64

	// Shake
	Frames    int
	Magnitude float64

	// Cue
	Cue Cue
}

// Detector turns (previous, current) snapshot pairs into triggers.
type Detector struct {
	ShakeFrames    int
	ShakeMagnitude float64
	rng            *rand.Rand
}

// NewDetector creates a detector. rng picks the gold rain scatter cells.
func NewDetector(shakeFrames int, shakeMagnitude float64, rng *rand.Rand) *Detector {
	return &Detector{
		ShakeFrames:    shakeFrames,
		ShakeMagnitude: shakeMagnitude,
		rng:            rng,
	}
}

// Detect compares prev (may be nil) with cur and returns the resulting triggers.
func (d *Detector) Detect(prev, cur *game.Snapshot) []Trigger {
	if cur == nil {
		return nil
	}
	var out []Trigger

	// Score went up: the food in prev was just eaten.
	if prev != nil && cur.Score > prev.Score {
		if prev.Food != nil {
			out = append(out, Trigger{
				Kind:     TriggerBurst,
				CellX:    float64(prev.Food.X),
				CellY:    float64(prev.Food.Y),
				Color:    RewardColor,
				Count:    RewardCount,
				Friction: RewardFriction,
			})
		}
		if d.ShakeFrames > 0 {
			out = append(out, Trigger{Kind: TriggerShake, Frames: d.ShakeFrames, Magnitude: d.ShakeMagnitude})
		}
		out = append(out, Trigger{Kind: TriggerCue, Cue: CueEat})
	}

	if cur.Effect == game.EffectGoldRain {
		out = append(out, d.goldRain(cur.Grid)...)
	}

	if (prev == nil || !prev.Terminal()) && cur.Terminal() {
		cue := CueGameOver
		if cur.GameWon {
			cue = CueVictory
		}
		out = append(out, Trigger{Kind: TriggerCue, Cue: cue})
	}

	return out
}

func (d *Detector) goldRain(grid game.GridSize) []Trigger {
	out := make([]Trigger, 0, GoldScatterBursts+2)

	// Center of the board: the middle cell's centroid lands on the board center.
	out = append(out, Trigger{
		Kind:     TriggerBurst,
		CellX:    float64(grid.W)/2 - 0.5,
		CellY:    float64(grid.H)/2 - 0.5,
		Color:    GoldColor,
		Count:    GoldCount,
		Friction: GoldFriction,
	})

	for i := 0; i < GoldScatterBursts; i++ {
		out = append(out, Trigger{
			Kind:     TriggerBurst,
			CellX:    float64(d.rng.Intn(grid.W)),
			CellY:    float64(d.rng.Intn(grid.H)),
			Color:    GoldColor,
			Count:    GoldScatterCount,
			Friction: GoldFriction,
		})
	}

	return append(out, Trigger{Kind: TriggerCue, Cue: CueGold})
}

// RainbowMode reports whether the snake should use the cycling hue scheme.
func RainbowMode(cur *game.Snapshot, threshold float64) bool {
	return cur != nil && cur.Hype > threshold
}
