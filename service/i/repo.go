package i

import (
	"context"

	"github.com/beka-birhanu/maze-arcade/game"
	"github.com/beka-birhanu/maze-arcade/identity"
	"github.com/google/uuid"
)

// PlayerRepo defines the interface for player persistence operations.
type PlayerRepo interface {
	// Save inserts or updates a player in the repository.
	// If the player already exists, it updates the record. Otherwise, it creates a new one.
	Save(ctx context.Context, player *identity.Player) error

	// ByID retrieves a player by their unique ID.
	ByID(ctx context.Context, id uuid.UUID) (*identity.Player, error)

	// ByUsername retrieves a player by their username.
	ByUsername(ctx context.Context, username string) (*identity.Player, error)
}

// AttemptRepo stores finished attempts and ranks players by them.
type AttemptRepo interface {
	AttemptRecorder

	// ByPlayer returns the most recent attempts of a player, newest first.
	ByPlayer(ctx context.Context, player uuid.UUID, limit int) ([]game.AttemptRecord, error)

	// Leaderboard returns players ordered by number of won attempts.
	Leaderboard(ctx context.Context, limit int) ([]game.Standing, error)
}
