package effects

import (
	"math/rand"
	"testing"

	"neon-snake/internal/game"
)

func newTestDetector() *Detector {
	return NewDetector(7, 10, rand.New(rand.NewSource(42)))
}

func live(score int, food *game.Cell) *game.Snapshot {
	return &game.Snapshot{
		Score: score,
		Snake: []game.Cell{{X: 0, Y: 0}},
		Food:  food,
		Grid:  game.GridSize{W: 20, H: 30},
	}
}

func count(triggers []Trigger, kind TriggerKind) int {
	n := 0
	for _, tr := range triggers {
		if tr.Kind == kind {
			n++
		}
	}
	return n
}

// TestRewardBurstUsesPreviousFood covers a score increase with food moving
func TestRewardBurstUsesPreviousFood(t *testing.T) {
	d := newTestDetector()
	prev := live(0, &game.Cell{X: 7, Y: 2})
	cur := live(1, &game.Cell{X: 3, Y: 4})

	triggers := d.Detect(prev, cur)

	if count(triggers, TriggerBurst) != 1 {
		t.Fatalf("Expected exactly one burst, got %d", count(triggers, TriggerBurst))
	}
	burst := triggers[0]
	if burst.CellX != 7 || burst.CellY != 2 {
		t.Errorf("Burst at (%v,%v), expected previous food (7,2)", burst.CellX, burst.CellY)
	}
	if burst.Color != RewardColor || burst.Count != RewardCount || burst.Friction != RewardFriction {
		t.Errorf("Unexpected burst family %+v", burst)
	}
	if count(triggers, TriggerShake) != 1 {
		t.Error("Expected one shake")
	}
	for _, tr := range triggers {
		if tr.Kind == TriggerShake && tr.Frames != 7 {
			t.Errorf("Expected 7 shake frames, got %d", tr.Frames)
		}
	}
}

// TestNoPreviousSnapshot verifies the first snapshot never bursts
func TestNoPreviousSnapshot(t *testing.T) {
	d := newTestDetector()
	triggers := d.Detect(nil, live(5, &game.Cell{X: 1, Y: 1}))

	if len(triggers) != 0 {
		t.Errorf("Expected no triggers, got %v", triggers)
	}
}

// TestScoreUnchanged verifies no burst without a score increase
func TestScoreUnchanged(t *testing.T) {
	d := newTestDetector()
	tests := []struct {
		name      string
		prevScore int
		curScore  int
	}{
		{"same score", 3, 3},
		{"score reset", 9, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			triggers := d.Detect(live(tt.prevScore, &game.Cell{}), live(tt.curScore, &game.Cell{}))
			if len(triggers) != 0 {
				t.Errorf("Expected no triggers, got %v", triggers)
			}
		})
	}
}

// TestRewardWithoutPreviousFood verifies the burst is skipped but shake still fires
func TestRewardWithoutPreviousFood(t *testing.T) {
	d := newTestDetector()
	triggers := d.Detect(live(0, nil), live(1, nil))

	if count(triggers, TriggerBurst) != 0 {
		t.Error("Expected no burst without previous food")
	}
	if count(triggers, TriggerShake) != 1 {
		t.Error("Expected shake")
	}
}

// TestGoldRain verifies the celebratory burst regardless of score
func TestGoldRain(t *testing.T) {
	d := newTestDetector()
	cur := live(0, nil)
	cur.Effect = game.EffectGoldRain

	triggers := d.Detect(nil, cur)

	if got := count(triggers, TriggerBurst); got != 1+GoldScatterBursts {
		t.Fatalf("Expected %d bursts, got %d", 1+GoldScatterBursts, got)
	}
	center := triggers[0]
	if center.CellX != 9.5 || center.CellY != 14.5 {
		t.Errorf("Expected center (9.5,14.5), got (%v,%v)", center.CellX, center.CellY)
	}
	if center.Count != GoldCount || center.Color != GoldColor {
		t.Errorf("Unexpected center burst %+v", center)
	}
	for _, tr := range triggers[1 : 1+GoldScatterBursts] {
		if !cur.Grid.Contains(game.Cell{X: int(tr.CellX), Y: int(tr.CellY)}) {
			t.Errorf("Scatter burst outside grid: (%v,%v)", tr.CellX, tr.CellY)
		}
	}
	if triggers[len(triggers)-1].Cue != CueGold {
		t.Error("Expected gold cue")
	}
}

// TestUnknownEffectIgnored verifies unrecognized tags do nothing
func TestUnknownEffectIgnored(t *testing.T) {
	d := newTestDetector()
	cur := live(0, nil)
	cur.Effect = "CONFETTI"

	if triggers := d.Detect(nil, cur); len(triggers) != 0 {
		t.Errorf("Expected no triggers, got %v", triggers)
	}
}

// TestTerminalCues verifies a cue fires only on entering a terminal state
func TestTerminalCues(t *testing.T) {
	d := newTestDetector()
	over := &game.Snapshot{Grid: game.GridSize{W: 5, H: 5}, GameOver: true}
	won := &game.Snapshot{Grid: game.GridSize{W: 5, H: 5}, GameWon: true}

	tests := []struct {
		name string
		prev *game.Snapshot
		cur  *game.Snapshot
		want Cue
	}{
		{"live to over", live(0, nil), over, CueGameOver},
		{"live to won", live(0, nil), won, CueVictory},
		{"over to over", over, over, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Cue
			for _, tr := range d.Detect(tt.prev, tt.cur) {
				if tr.Kind == TriggerCue {
					got = tr.Cue
				}
			}
			if got != tt.want {
				t.Errorf("Expected cue %q, got %q", tt.want, got)
			}
		})
	}
}

// TestRainbowMode covers the hype threshold
func TestRainbowMode(t *testing.T) {
	tests := []struct {
		hype float64
		want bool
	}{
		{25, true},
		{5, false},
		{20, false},
	}

	for _, tt := range tests {
		s := live(0, nil)
		s.Hype = tt.hype
		if got := RainbowMode(s, 20); got != tt.want {
			t.Errorf("RainbowMode(hype=%v) = %v, want %v", tt.hype, got, tt.want)
		}
	}
	if RainbowMode(nil, 20) {
		t.Error("RainbowMode(nil) should be false")
	}
}
