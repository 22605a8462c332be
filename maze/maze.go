/*
Package maze provides the grid model and the procedural generator used by the
maze arcade.

A Grid is a rectangle of cells, each one Wall, Open, Start or Goal. Generated
grids always have odd dimensions: passages live on odd coordinates and the
carver moves two cells at a time, opening the wall between.

Generation is randomized recursive backtracking. The random source is passed
in, so a seed fully determines the grid.
*/
package maze

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDimensions = errors.New("invalid maze dimensions")
	ErrOutOfBounds       = errors.New("position is out of the maze")
	ErrInvalidLayout     = errors.New("invalid maze layout")
)

// Grid is a rectangular maze of cell states addressed by (x, y).
type Grid struct {
	width    int
	height   int
	cells    [][]CellState // cells[y][x]
	start    CellPosition
	goal     CellPosition
	hasStart bool
	hasGoal  bool
}

// NewEmptyGrid returns a grid of the given size with every cell set to Wall.
func NewEmptyGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	cells := make([][]CellState, height)
	for y := range cells {
		cells[y] = make([]CellState, width) // zero value is Wall
	}

	return &Grid{
		width:  width,
		height: height,
		cells:  cells,
	}, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Start returns the start cell position.
func (g *Grid) Start() CellPosition { return g.start }

// Goal returns the goal cell position.
func (g *Grid) Goal() CellPosition { return g.goal }

// InBound reports whether (x, y) lies inside the grid.
func (g *Grid) InBound(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// CellAt returns the state of the cell at (x, y).
func (g *Grid) CellAt(x, y int) (CellState, error) {
	if !g.InBound(x, y) {
		return Wall, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, x, y)
	}
	return g.cells[y][x], nil
}

// SetCell changes a single cell. It is meant for building grids only; a grid
// handed to a game must not be changed afterwards.
//
// There is at most one Start and one Goal: marking a new one demotes the
// previous marker cell to Open.
func (g *Grid) SetCell(x, y int, state CellState) error {
	if !g.InBound(x, y) {
		return fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, x, y)
	}

	pos := CellPosition{X: x, Y: y}
	switch {
	case g.hasStart && g.start == pos && state != Start:
		g.hasStart = false
	case g.hasGoal && g.goal == pos && state != Goal:
		g.hasGoal = false
	}

	switch state {
	case Start:
		if g.hasStart && g.start != pos {
			g.cells[g.start.Y][g.start.X] = Open
		}
		g.start, g.hasStart = pos, true
	case Goal:
		if g.hasGoal && g.goal != pos {
			g.cells[g.goal.Y][g.goal.X] = Open
		}
		g.goal, g.hasGoal = pos, true
	}

	g.cells[y][x] = state
	return nil
}

// Rows returns the grid as layout lines, one string per row.
func (g *Grid) Rows() []string {
	rows := make([]string, g.height)
	var b strings.Builder
	for y := 0; y < g.height; y++ {
		b.Reset()
		for x := 0; x < g.width; x++ {
			b.WriteString(g.cells[y][x].String())
		}
		rows[y] = b.String()
	}
	return rows
}

// String provides a textual representation of the maze.
func (g *Grid) String() string {
	return strings.Join(g.Rows(), "\n") + "\n"
}

// Parse builds a grid from a layout in the format produced by String:
// '#' wall, ' ' open, 'S' start and 'G' goal. Blank leading and trailing
// lines are ignored. The layout must be rectangular and hold exactly one
// start and one goal.
func Parse(layout string) (*Grid, error) {
	lines := strings.Split(strings.Trim(layout, "\n"), "\n")
	if len(lines) == 0 || len(lines[0]) == 0 {
		return nil, fmt.Errorf("%w: empty layout", ErrInvalidLayout)
	}

	g, err := NewEmptyGrid(len(lines[0]), len(lines))
	if err != nil {
		return nil, err
	}

	starts, goals := 0, 0
	for y, line := range lines {
		if len(line) != g.width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidLayout, y, len(line), g.width)
		}
		for x, char := range line {
			var state CellState
			switch char {
			case '#':
				state = Wall
			case ' ':
				state = Open
			case 'S':
				state = Start
				starts++
			case 'G':
				state = Goal
				goals++
			default:
				return nil, fmt.Errorf("%w: unexpected %q at (%d,%d)", ErrInvalidLayout, char, x, y)
			}
			_ = g.SetCell(x, y, state)
		}
	}

	if starts != 1 || goals != 1 {
		return nil, fmt.Errorf("%w: found %d start and %d goal cells", ErrInvalidLayout, starts, goals)
	}
	return g, nil
}
