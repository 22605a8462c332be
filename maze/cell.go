package maze

// CellState represents what occupies a single cell of a maze grid.
type CellState uint8

const (
	Wall CellState = iota // Wall blocks movement.
	Open                  // Open is a carved passage.
	Start                 // Start is where the player enters the maze.
	Goal                  // Goal ends the attempt when reached.
)

// IsPassable reports whether a player may stand on a cell in this state.
func (c CellState) IsPassable() bool {
	return c == Open || c == Start || c == Goal
}

// String returns the single-character layout symbol of the state.
func (c CellState) String() string {
	switch c {
	case Open:
		return " "
	case Start:
		return "S"
	case Goal:
		return "G"
	default:
		return "#"
	}
}

// CellPosition represents the position of a cell in the maze grid.
type CellPosition struct {
	X int // Column index of the cell
	Y int // Row index of the cell
}

// Add returns the position offset by dx and dy.
func (p CellPosition) Add(dx, dy int) CellPosition {
	return CellPosition{X: p.X + dx, Y: p.Y + dy}
}
