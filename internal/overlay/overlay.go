// Package overlay tracks the terminal-state banner and its reboot countdown.
package overlay

import (
	"fmt"
	"image/color"
	"time"

	"neon-snake/internal/game"
)

const (
	// CountdownStart is the first value shown when the banner appears.
	CountdownStart = 5
	// CountdownStep is the interval between decrements.
	CountdownStep = time.Second
)

// Banner titles and colors.
const (
	TitleFailure = "SYSTEM FAILURE"
	TitleVictory = "SYSTEM TRANSCENDED"
)

var (
	FailureColor = color.NRGBA{R: 0xff, G: 0x00, B: 0x55, A: 0xff}
	VictoryColor = color.NRGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xff}
)

// State is what the painter needs to draw the overlay.
type State struct {
	Visible   bool
	Title     string
	Color     color.NRGBA
	Countdown int
}

// Subtext returns the line under the title.
func (s State) Subtext() string {
	if !s.Visible {
		return ""
	}
	if s.Countdown > 0 {
		return fmt.Sprintf("REBOOTING IN %d...", s.Countdown)
	}
	return "REBOOTING..."
}

// Machine is the Hidden/Showing state machine. The countdown timer is a
// deadline checked on each Update, so cancelling it is just clearing it.
type Machine struct {
	state    State
	deadline time.Time // zero when the timer is not armed
}

// New returns a machine in the Hidden state.
func New() *Machine {
	return &Machine{}
}

// Update advances the machine for one render tick with cur as the current
// snapshot (nil if none yet) and returns the resulting state.
func (m *Machine) Update(cur *game.Snapshot, now time.Time) State {
	if cur == nil {
		return m.state
	}

	switch {
	case !m.state.Visible && cur.Terminal():
		m.show(cur, now)

	case m.state.Visible && !cur.Terminal():
		m.hide()

	case m.state.Visible:
		// Already showing: never restart the timer, only let it run.
		m.tick(now)
	}

	return m.state
}

// State returns the current state without advancing.
func (m *Machine) State() State {
	return m.state
}

// TimerArmed reports whether a countdown decrement is pending.
func (m *Machine) TimerArmed() bool {
	return !m.deadline.IsZero()
}

func (m *Machine) show(cur *game.Snapshot, now time.Time) {
	m.state = State{
		Visible:   true,
		Title:     TitleFailure,
		Color:     FailureColor,
		Countdown: CountdownStart,
	}
	if cur.GameWon {
		m.state.Title = TitleVictory
		m.state.Color = VictoryColor
	}
	m.deadline = now.Add(CountdownStep)
}

func (m *Machine) hide() {
	m.state = State{}
	m.deadline = time.Time{}
}

// tick decrements at most once per call, so a long stall between frames
// never skips numbers.
func (m *Machine) tick(now time.Time) {
	if m.deadline.IsZero() || now.Before(m.deadline) {
		return
	}
	m.state.Countdown--
	if m.state.Countdown <= 0 {
		m.state.Countdown = 0
		m.deadline = time.Time{}
		return
	}
	m.deadline = m.deadline.Add(CountdownStep)
}
