package i

import (
	"context"
	"time"

	"github.com/beka-birhanu/maze-arcade/game"
	"github.com/google/uuid"
)

// Renderer receives a snapshot after every state change of a session.
type Renderer interface {
	Render(game.Snapshot)
}

// Clock delivers countdown ticks.
type Clock interface {
	C() <-chan time.Time
	Stop()
}

// InputSource delivers directional and lifecycle commands.
type InputSource interface {
	Commands() <-chan game.Command
}

// AttemptRecorder persists finished attempts.
type AttemptRecorder interface {
	Record(ctx context.Context, record game.AttemptRecord) error
}

// Metrics counts arcade events.
type Metrics interface {
	AttemptStarted()
	EntryDenied()
	AttemptFinished(phase game.Phase)
	SettlementFinished(ok bool)
}

// ArcadeController is one player's session controller.
type ArcadeController interface {
	BeginAttempt(ctx context.Context) (game.Snapshot, error)
	Move(d game.Direction) game.Snapshot
	Restart() game.Snapshot
	Snapshot() game.Snapshot
}

// ArcadeManager hands out per-player controllers and their snapshot streams.
type ArcadeManager interface {
	// Controller returns the controller of player, creating it on first use.
	Controller(player uuid.UUID) (ArcadeController, error)

	// Send queues an input command for player's controller loop.
	Send(player uuid.UUID, cmd game.Command) error

	// Subscribe streams player's snapshots until cancel is called.
	Subscribe(player uuid.UUID) (<-chan game.Snapshot, func(), error)
}
