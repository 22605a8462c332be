package game

import (
	"time"

	"github.com/beka-birhanu/maze-arcade/maze"
	"github.com/google/uuid"
)

// Snapshot is what the render boundary sees after every state change.
type Snapshot struct {
	AttemptID uuid.UUID         // Attempt the snapshot belongs to, uuid.Nil while Waiting.
	Grid      *maze.Grid        // Maze of the attempt; never mutated.
	Position  maze.CellPosition // Player position.
	Phase     Phase             // Current phase.
	Remaining time.Duration     // Time left on the countdown.
	Elapsed   time.Duration     // Time used so far.
	Payout    int64             // Settled reward, zero until paid.
	Notice    string            // User-visible message, e.g. a failed settlement.
}

// RemainingSeconds returns the countdown rounded up to whole seconds.
func (s Snapshot) RemainingSeconds() int {
	return int((s.Remaining + time.Second - 1) / time.Second)
}

// Outcome is reported to the reward settlement once an attempt ends.
type Outcome struct {
	Won       bool
	Elapsed   time.Duration
	Remaining time.Duration
}

// CommandKind identifies an input command.
type CommandKind uint8

const (
	CommandMove  CommandKind = iota + 1 // Move the player one step.
	CommandStart                        // Begin a new attempt.
	CommandReset                        // Abandon the attempt and return to Waiting.
)

// Command is one input event forwarded from the render/input boundary.
type Command struct {
	Kind      CommandKind
	Direction Direction // Set for CommandMove only.
}

// AttemptRecord is the persisted history entry of a finished attempt.
type AttemptRecord struct {
	AttemptID  uuid.UUID     `bson:"_id"`
	PlayerID   uuid.UUID     `bson:"playerId"`
	Won        bool          `bson:"won"`
	Elapsed    time.Duration `bson:"elapsed"`
	Remaining  time.Duration `bson:"remaining"`
	Payout     int64         `bson:"payout"`
	Settled    bool          `bson:"settled"`
	FinishedAt time.Time     `bson:"finishedAt"`
}

// Standing is one leaderboard row.
type Standing struct {
	PlayerID uuid.UUID `bson:"_id" json:"player_id"`
	Username string    `bson:"username" json:"username"`
	Wins     int       `bson:"wins" json:"wins"`
}
