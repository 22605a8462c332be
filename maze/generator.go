package maze

import (
	"fmt"
	"math/rand"
)

const minDimension = 5 // Smallest odd size that leaves room for a passage.

// Rand is the random source consumed by Generate. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// NewRand returns a deterministic random source for the given seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// directions are the four axis steps in their unshuffled order: down, right, up, left.
var directions = [4]CellPosition{
	{X: 0, Y: 1},
	{X: 1, Y: 0},
	{X: 0, Y: -1},
	{X: -1, Y: 0},
}

// frame is one pending carve: a cell and the directions still to try from it.
type frame struct {
	pos  CellPosition
	dirs [4]CellPosition
	next int
}

// Generate creates a maze of the given odd dimensions using randomized
// recursive backtracking, then marks (1,1) as Start and
// (width-2, height-2) as Goal.
func Generate(width, height int, rng Rand) (*Grid, error) {
	if width < minDimension || height < minDimension || width%2 == 0 || height%2 == 0 {
		return nil, fmt.Errorf("%w: %dx%d, want odd sizes >= %d", ErrInvalidDimensions, width, height, minDimension)
	}

	g, err := NewEmptyGrid(width, height)
	if err != nil {
		return nil, err
	}

	origin := CellPosition{
		X: 1 + 2*rng.Intn((width-1)/2),
		Y: 1 + 2*rng.Intn((height-1)/2),
	}
	g.carve(origin, rng)

	_ = g.SetCell(1, 1, Start)
	_ = g.SetCell(width-2, height-2, Goal)
	return g, nil
}

// carve opens every odd cell reachable from origin. The explicit stack visits
// cells in the same order as the recursive formulation: a cell's directions
// are shuffled when it is entered, and its next direction is only tried once
// everything carved from the previous one is finished.
func (g *Grid) carve(origin CellPosition, rng Rand) {
	stack := []frame{g.enter(origin, rng)}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.dirs) {
			stack = stack[:len(stack)-1]
			continue
		}

		d := top.dirs[top.next]
		top.next++

		neighbor := top.pos.Add(2*d.X, 2*d.Y)
		if !g.InBound(neighbor.X, neighbor.Y) || g.cells[neighbor.Y][neighbor.X] != Wall {
			continue
		}

		between := top.pos.Add(d.X, d.Y)
		g.cells[between.Y][between.X] = Open
		stack = append(stack, g.enter(neighbor, rng))
	}
}

// enter opens pos and returns its frame with freshly shuffled directions.
func (g *Grid) enter(pos CellPosition, rng Rand) frame {
	g.cells[pos.Y][pos.X] = Open

	f := frame{pos: pos, dirs: directions}
	rng.Shuffle(len(f.dirs), func(i, j int) {
		f.dirs[i], f.dirs[j] = f.dirs[j], f.dirs[i]
	})
	return f
}
