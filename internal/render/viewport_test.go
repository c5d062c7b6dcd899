package render

import (
	"image"
	"testing"

	"neon-snake/internal/game"
)

// TestComputeViewport verifies integer cell sizing and centering
func TestComputeViewport(t *testing.T) {
	tests := []struct {
		name    string
		area    image.Rectangle
		grid    game.GridSize
		cell    int
		boardW  int
		boardH  int
		originX int
		originY int
	}{
		{"wide container", image.Rect(0, 0, 1000, 800), game.GridSize{W: 20, H: 10}, 50, 1000, 500, 0, 150},
		{"portrait stream", image.Rect(0, 96, 720, 1280), game.GridSize{W: 20, H: 30}, 36, 720, 1080, 0, 148},
		{"non divisible", image.Rect(0, 0, 505, 505), game.GridSize{W: 20, H: 20}, 25, 500, 500, 2, 2},
		{"tiny container", image.Rect(0, 0, 10, 10), game.GridSize{W: 20, H: 20}, 1, 20, 20, -5, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ComputeViewport(tt.area, tt.grid)
			if v.CellSize != tt.cell {
				t.Errorf("Expected cell %d, got %d", tt.cell, v.CellSize)
			}
			if v.BoardW != tt.boardW || v.BoardH != tt.boardH {
				t.Errorf("Expected board %dx%d, got %dx%d", tt.boardW, tt.boardH, v.BoardW, v.BoardH)
			}
			if v.OriginX != tt.originX || v.OriginY != tt.originY {
				t.Errorf("Expected origin (%d,%d), got (%d,%d)", tt.originX, tt.originY, v.OriginX, v.OriginY)
			}
		})
	}
}

// TestViewportFits verifies the board never exceeds the container and keeps aspect
func TestViewportFits(t *testing.T) {
	tests := []struct {
		name  string
		area  image.Rectangle
		grid  game.GridSize
		valid bool
	}{
		{"wide grid", image.Rect(0, 0, 1000, 800), game.GridSize{W: 20, H: 10}, true},
		{"tall grid", image.Rect(0, 0, 720, 1280), game.GridSize{W: 20, H: 30}, true},
		{"one pixel per cell", image.Rect(0, 0, 20, 30), game.GridSize{W: 20, H: 30}, true},
		{"area smaller than grid", image.Rect(0, 0, 10, 10), game.GridSize{W: 20, H: 30}, false},
		{"too narrow", image.Rect(0, 0, 19, 500), game.GridSize{W: 20, H: 30}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ComputeViewport(tt.area, tt.grid)
			if v.Valid() != tt.valid {
				t.Fatalf("Valid() = %v, want %v (cell %d)", v.Valid(), tt.valid, v.CellSize)
			}
			if !v.Valid() {
				return
			}
			if v.Grid.W*v.CellSize > tt.area.Dx() || v.Grid.H*v.CellSize > tt.area.Dy() {
				t.Errorf("Board %dx%d exceeds %v", v.BoardW, v.BoardH, tt.area)
			}
			if v.OriginX < tt.area.Min.X || v.OriginY < tt.area.Min.Y {
				t.Errorf("Origin (%d,%d) outside %v", v.OriginX, v.OriginY, tt.area)
			}
			if v.BoardW*v.Grid.H != v.BoardH*v.Grid.W {
				t.Errorf("Aspect ratio not preserved: %dx%d", v.BoardW, v.BoardH)
			}
		})
	}
}

// TestDegenerateViewport verifies zero grids produce an invalid viewport
func TestDegenerateViewport(t *testing.T) {
	for _, g := range []game.GridSize{{W: 0, H: 10}, {W: 10, H: 0}, {W: -1, H: -1}} {
		if v := ComputeViewport(image.Rect(0, 0, 100, 100), g); v.Valid() {
			t.Errorf("Grid %v should be invalid", g)
		}
	}
	if v := ComputeViewport(image.Rectangle{}, game.GridSize{W: 5, H: 5}); v.Valid() {
		t.Error("Empty area should be invalid")
	}
}

// TestViewportStale verifies recompute triggers
func TestViewportStale(t *testing.T) {
	area := image.Rect(0, 0, 100, 100)
	grid := game.GridSize{W: 10, H: 10}
	v := ComputeViewport(area, grid)

	if v.Stale(area, grid) {
		t.Error("Fresh viewport should not be stale")
	}
	if !v.Stale(image.Rect(0, 0, 200, 100), grid) {
		t.Error("Resize should make the viewport stale")
	}
	if !v.Stale(area, game.GridSize{W: 20, H: 10}) {
		t.Error("Grid change should make the viewport stale")
	}
	if !(Viewport{}).Stale(area, grid) {
		t.Error("Unsized viewport should be stale")
	}
}

// TestCellCenter verifies cell to pixel conversion
func TestCellCenter(t *testing.T) {
	v := ComputeViewport(image.Rect(0, 0, 1000, 800), game.GridSize{W: 20, H: 10})
	x, y := v.CellCenter(3, 4)

	if x != 175 || y != 150+225 {
		t.Errorf("Expected (175, 375), got (%v, %v)", x, y)
	}
}
