package game

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// EffectGoldRain is the only effect tag the server currently emits.
const EffectGoldRain = "GOLD_RAIN"

// MaxHype is the top of the server's hype meter.
const MaxHype = 100.0

// Validation errors. Callers classify discards with errors.Is.
var (
	ErrMalformed      = errors.New("malformed snapshot")
	ErrDegenerateGrid = errors.New("degenerate grid")
	ErrConflictingEnd = errors.New("snapshot is both game over and game won")
	ErrNegativeScore  = errors.New("negative score")
	ErrOutOfBounds    = errors.New("cell outside grid")
	ErrEmptySnake     = errors.New("live snapshot without snake")
)

// Cell is a grid coordinate in cell units.
type Cell struct {
	X, Y int
}

// UnmarshalJSON accepts both the wire form [x, y] and {"x":..,"y":..}.
func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			X int `json:"x"`
			Y int `json:"y"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		c.X, c.Y = obj.X, obj.Y
		return nil
	}

	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("cell needs 2 coordinates, got %d", len(pair))
	}
	c.X, c.Y = pair[0], pair[1]
	return nil
}

// MarshalJSON writes the wire form [x, y].
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.X, c.Y})
}

// GridSize is the board dimension in cells.
type GridSize struct {
	W, H int
}

// UnmarshalJSON decodes [w, h].
func (g *GridSize) UnmarshalJSON(data []byte) error {
	var c Cell
	if err := c.UnmarshalJSON(data); err != nil {
		return err
	}
	g.W, g.H = c.X, c.Y
	return nil
}

// MarshalJSON writes [w, h].
func (g GridSize) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{g.W, g.H})
}

// Contains reports whether c lies inside [0, W) x [0, H).
func (g GridSize) Contains(c Cell) bool {
	return c.X >= 0 && c.X < g.W && c.Y >= 0 && c.Y < g.H
}

// Snapshot is one complete authoritative game state as sent by the server.
// It is never mutated after DecodeSnapshot returns it.
type Snapshot struct {
	Score       int      `json:"score"`
	Snake       []Cell   `json:"snake"` // head first
	Food        *Cell    `json:"food"`
	Grid        GridSize `json:"grid_size"`
	AIStatus    string   `json:"ai_status"`
	Hype        float64  `json:"hype"`
	GameOver    bool     `json:"game_over"`
	GameWon     bool     `json:"game_won"`
	PlannedPath []Cell   `json:"planned_path,omitempty"`
	Effect      string   `json:"tiktok_effect,omitempty"`
}

// DecodeSnapshot parses and validates one wire message.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks structural invariants and normalizes the non-authoritative
// fields (hype is clamped, off-grid planned path cells are dropped).
func (s *Snapshot) Validate() error {
	if s.Grid.W <= 0 || s.Grid.H <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrDegenerateGrid, s.Grid.W, s.Grid.H)
	}
	if s.GameOver && s.GameWon {
		return ErrConflictingEnd
	}
	if s.Score < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeScore, s.Score)
	}
	for i, c := range s.Snake {
		if !s.Grid.Contains(c) {
			return fmt.Errorf("%w: snake[%d]=(%d,%d)", ErrOutOfBounds, i, c.X, c.Y)
		}
	}
	if s.Food != nil && !s.Grid.Contains(*s.Food) {
		return fmt.Errorf("%w: food=(%d,%d)", ErrOutOfBounds, s.Food.X, s.Food.Y)
	}
	if !s.Terminal() && len(s.Snake) == 0 {
		return ErrEmptySnake
	}

	if s.Hype < 0 {
		s.Hype = 0
	} else if s.Hype > MaxHype {
		s.Hype = MaxHype
	}

	if len(s.PlannedPath) > 0 {
		kept := s.PlannedPath[:0]
		for _, c := range s.PlannedPath {
			if s.Grid.Contains(c) {
				kept = append(kept, c)
			}
		}
		s.PlannedPath = kept
	}
	return nil
}

// Terminal reports whether the round has ended either way.
func (s *Snapshot) Terminal() bool {
	return s.GameOver || s.GameWon
}

// Head returns the head cell and whether the snake is non-empty.
func (s *Snapshot) Head() (Cell, bool) {
	if len(s.Snake) == 0 {
		return Cell{}, false
	}
	return s.Snake[0], true
}

// DiscardReason maps a decode error to a short metric label.
func DiscardReason(err error) string {
	switch {
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrDegenerateGrid):
		return "degenerate_grid"
	case errors.Is(err, ErrConflictingEnd):
		return "conflicting_end"
	case errors.Is(err, ErrNegativeScore):
		return "negative_score"
	case errors.Is(err, ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, ErrEmptySnake):
		return "empty_snake"
	default:
		return "unknown"
	}
}
