package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/beka-birhanu/maze-arcade/maze"
)

// Session-related errors.
var (
	ErrInvalidTransition = errors.New("invalid phase transition")
	ErrNoGrid            = errors.New("session has no grid")
	ErrInvalidDirection  = errors.New("invalid direction")
)

// DefaultDuration is the countdown of one maze attempt.
const DefaultDuration = 30 * time.Second

// Session tracks a single player's traversal of one maze: position,
// countdown and phase. It is not safe for concurrent use; its owner
// serializes access.
type Session struct {
	grid      *maze.Grid        // Maze of the current attempt, nil while Waiting.
	pos       maze.CellPosition // Player position.
	phase     Phase             // Current phase.
	duration  time.Duration     // Countdown length set on every start.
	remaining time.Duration     // Time left on the countdown.
}

// NewSession returns a Waiting session whose attempts last duration.
func NewSession(duration time.Duration) *Session {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Session{
		phase:     Waiting,
		duration:  duration,
		remaining: duration,
	}
}

// Start begins an attempt on grid, placing the player on the start cell and
// restarting the countdown. Only a Waiting session can start.
func (s *Session) Start(grid *maze.Grid) error {
	if !s.phase.CanTransitionTo(Playing) {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.phase)
	}
	if grid == nil {
		return ErrNoGrid
	}

	s.grid = grid
	s.pos = grid.Start()
	s.remaining = s.duration
	s.phase = Playing
	return nil
}

// Tick consumes elapsed time from the countdown. It returns true when this
// tick ran the countdown out and moved the session to Lost.
func (s *Session) Tick(elapsed time.Duration) bool {
	if s.phase != Playing || elapsed <= 0 {
		return false
	}

	s.remaining -= elapsed
	if s.remaining > 0 {
		return false
	}

	s.remaining = 0
	s.phase = Lost
	return true
}

// Move steps the player by (dx, dy). Moves outside Playing, moves that are
// not a single axis step, and moves into walls or off the grid are rejected
// without changing anything. Reaching the goal wins the attempt.
func (s *Session) Move(dx, dy int) bool {
	if s.phase != Playing || !(Direction{DX: dx, DY: dy}).IsUnit() {
		return false
	}

	next := s.pos.Add(dx, dy)
	if !s.grid.InBound(next.X, next.Y) {
		return false
	}
	state, err := s.grid.CellAt(next.X, next.Y)
	if err != nil || !state.IsPassable() {
		return false
	}

	s.pos = next
	if state == maze.Goal {
		s.phase = Won
	}
	return true
}

// Reset returns the session to Waiting from any phase and drops its grid.
func (s *Session) Reset() {
	s.grid = nil
	s.pos = maze.CellPosition{}
	s.remaining = s.duration
	s.phase = Waiting
}

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Position returns the player position.
func (s *Session) Position() maze.CellPosition { return s.pos }

// Grid returns the maze of the current attempt, or nil.
func (s *Session) Grid() *maze.Grid { return s.grid }

// Remaining returns the time left on the countdown.
func (s *Session) Remaining() time.Duration { return s.remaining }

// Elapsed returns how much of the countdown has been used.
func (s *Session) Elapsed() time.Duration { return s.duration - s.remaining }

// Outcome summarizes a finished attempt for settlement.
func (s *Session) Outcome() Outcome {
	return Outcome{
		Won:       s.phase == Won,
		Elapsed:   s.Elapsed(),
		Remaining: s.remaining,
	}
}

// Snapshot creates a read-only view of the session.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Grid:      s.grid,
		Position:  s.pos,
		Phase:     s.phase,
		Remaining: s.remaining,
		Elapsed:   s.Elapsed(),
	}
}
