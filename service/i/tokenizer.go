package i

import (
	"time"

	"github.com/google/uuid"
)

// Tokenizer defines methods for generating and decoding player tokens.
type Tokenizer interface {
	// Generate creates a token for the player that expires after expTime.
	Generate(playerID uuid.UUID, username string, expTime time.Duration) (string, error)

	// Decode validates a token and returns the player ID it was issued to.
	Decode(token string) (uuid.UUID, error)
}
