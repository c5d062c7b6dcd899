package render

import (
	"image"

	"neon-snake/internal/game"
)

// Viewport maps grid cells to canvas pixels. Cell size is an integer so every
// cell lands on whole pixels and the board keeps the grid's aspect ratio exactly.
type Viewport struct {
	Area     image.Rectangle // space available to the board
	Grid     game.GridSize
	CellSize int
	BoardW   int
	BoardH   int
	OriginX  int // top-left of the board, centered inside Area
	OriginY  int
}

// ComputeViewport fits grid into area. A degenerate grid, or an area with
// less than one pixel per cell, yields the zero Viewport, which reports !Valid().
func ComputeViewport(area image.Rectangle, grid game.GridSize) Viewport {
	if grid.W <= 0 || grid.H <= 0 || area.Dx() <= 0 || area.Dy() <= 0 {
		return Viewport{}
	}

	cell := min(area.Dx()/grid.W, area.Dy()/grid.H)
	if cell < 1 {
		return Viewport{}
	}

	v := Viewport{
		Area:     area,
		Grid:     grid,
		CellSize: cell,
		BoardW:   grid.W * cell,
		BoardH:   grid.H * cell,
	}
	v.OriginX = area.Min.X + (area.Dx()-v.BoardW)/2
	v.OriginY = area.Min.Y + (area.Dy()-v.BoardH)/2
	return v
}

// Valid reports whether the viewport was computed from a usable grid.
func (v Viewport) Valid() bool {
	return v.CellSize > 0
}

// Stale reports whether v must be recomputed for the given area and grid.
func (v Viewport) Stale(area image.Rectangle, grid game.GridSize) bool {
	return !v.Valid() || v.Area != area || v.Grid != grid
}

// CellCenter returns the pixel centroid of a (possibly fractional) cell.
func (v Viewport) CellCenter(cx, cy float64) (x, y float64) {
	cs := float64(v.CellSize)
	return float64(v.OriginX) + cx*cs + cs/2, float64(v.OriginY) + cy*cs + cs/2
}

// CellOrigin returns the top-left pixel of a cell.
func (v Viewport) CellOrigin(c game.Cell) (x, y float64) {
	return float64(v.OriginX + c.X*v.CellSize), float64(v.OriginY + c.Y*v.CellSize)
}
