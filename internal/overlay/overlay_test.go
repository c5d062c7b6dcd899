package overlay

import (
	"testing"
	"time"

	"neon-snake/internal/game"
)

var (
	liveSnap = &game.Snapshot{Snake: []game.Cell{{X: 0, Y: 0}}, Grid: game.GridSize{W: 5, H: 5}}
	overSnap = &game.Snapshot{Grid: game.GridSize{W: 5, H: 5}, GameOver: true}
	wonSnap  = &game.Snapshot{Grid: game.GridSize{W: 5, H: 5}, GameWon: true}
)

// TestInitialHidden verifies the machine starts hidden
func TestInitialHidden(t *testing.T) {
	m := New()
	now := time.Now()

	if st := m.Update(nil, now); st.Visible {
		t.Error("Expected hidden with no snapshot")
	}
	if st := m.Update(liveSnap, now); st.Visible {
		t.Error("Expected hidden with live snapshot")
	}
}

// TestShowTitles verifies title and color per terminal kind
func TestShowTitles(t *testing.T) {
	tests := []struct {
		name  string
		snap  *game.Snapshot
		title string
	}{
		{"game over", overSnap, TitleFailure},
		{"game won", wonSnap, TitleVictory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			st := m.Update(tt.snap, time.Now())
			if !st.Visible || st.Title != tt.title {
				t.Errorf("Expected visible %q, got %+v", tt.title, st)
			}
			if st.Countdown != CountdownStart {
				t.Errorf("Expected countdown %d, got %d", CountdownStart, st.Countdown)
			}
			if st.Subtext() != "REBOOTING IN 5..." {
				t.Errorf("Unexpected subtext %q", st.Subtext())
			}
		})
	}
}

// TestCountdownOncePerSecond verifies decrements are paced by wall-clock time
func TestCountdownOncePerSecond(t *testing.T) {
	m := New()
	start := time.Unix(1000, 0)
	m.Update(overSnap, start)

	// 60 fps for just under a second: no decrement
	for i := 1; i < 60; i++ {
		if st := m.Update(overSnap, start.Add(time.Duration(i)*16*time.Millisecond)); st.Countdown != 5 {
			t.Fatalf("Countdown moved early at frame %d: %d", i, st.Countdown)
		}
	}

	for sec := 1; sec <= 5; sec++ {
		st := m.Update(overSnap, start.Add(time.Duration(sec)*time.Second))
		if st.Countdown != 5-sec {
			t.Errorf("At %ds expected %d, got %d", sec, 5-sec, st.Countdown)
		}
	}

	if m.TimerArmed() {
		t.Error("Timer should stop at 0")
	}
	st := m.Update(overSnap, start.Add(time.Minute))
	if st.Countdown != 0 || !st.Visible {
		t.Errorf("Expected visible overlay at 0, got %+v", st)
	}
	if st.Subtext() != "REBOOTING..." {
		t.Errorf("Unexpected subtext %q", st.Subtext())
	}
}

// TestStallDecrementsOnce verifies a long frame gap decrements only once per tick
func TestStallDecrementsOnce(t *testing.T) {
	m := New()
	start := time.Unix(1000, 0)
	m.Update(overSnap, start)

	st := m.Update(overSnap, start.Add(3500*time.Millisecond))
	if st.Countdown != 4 {
		t.Errorf("Expected single decrement to 4, got %d", st.Countdown)
	}
}

// TestReentrantGuard verifies repeated terminal snapshots keep the timer
func TestReentrantGuard(t *testing.T) {
	m := New()
	start := time.Unix(1000, 0)
	m.Update(overSnap, start)
	m.Update(overSnap, start.Add(time.Second))
	st := m.Update(wonSnap, start.Add(1500*time.Millisecond))

	if st.Countdown != 4 {
		t.Errorf("Terminal snapshot restarted the countdown: %d", st.Countdown)
	}
	if st.Title != TitleFailure {
		t.Errorf("Title should not change while showing, got %q", st.Title)
	}
}

// TestHideCancelsTimer covers a terminal snapshot followed by a live one
func TestHideCancelsTimer(t *testing.T) {
	m := New()
	start := time.Unix(1000, 0)

	m.Update(overSnap, start)
	st := m.Update(liveSnap, start.Add(16*time.Millisecond))

	if st.Visible {
		t.Error("Expected hidden after live snapshot")
	}
	if m.TimerArmed() {
		t.Error("Timer should be cancelled")
	}
	if st.Countdown != 0 || st.Subtext() != "" {
		t.Errorf("Expected cleared state, got %+v", st)
	}

	// Past the old deadline nothing fires
	if st := m.Update(liveSnap, start.Add(2*time.Second)); st.Visible || st.Countdown != 0 {
		t.Errorf("Cancelled timer fired: %+v", st)
	}

	// A new episode ending starts fresh
	st = m.Update(overSnap, start.Add(3*time.Second))
	if st.Countdown != CountdownStart {
		t.Errorf("Expected fresh countdown, got %d", st.Countdown)
	}
}
