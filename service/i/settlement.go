package i

import (
	"context"

	"github.com/beka-birhanu/maze-arcade/game"
	"github.com/google/uuid"
)

// Entry is the answer of an entry settlement.
type Entry struct {
	Granted bool   // Granted is true when the player may play.
	Reason  string // Reason explains a denial.
}

// Payout is a successful reward settlement.
type Payout struct {
	Amount int64 // Amount credited to the player, zero for a loss.
}

// EntrySettler clears the precondition of an attempt, e.g. an entry fee.
type EntrySettler interface {
	// RequestEntry asks whether player may start attempt.
	// An error means the settlement could not be reached.
	RequestEntry(ctx context.Context, player, attempt uuid.UUID) (Entry, error)
}

// RewardSettler settles the result of a finished attempt.
type RewardSettler interface {
	// ReportOutcome reports the outcome of attempt and returns the payout.
	// An error means the payout failed; the outcome itself stands.
	ReportOutcome(ctx context.Context, player, attempt uuid.UUID, outcome game.Outcome) (Payout, error)
}

// Ledger is a credit store that settles both entries and rewards.
type Ledger interface {
	EntrySettler
	RewardSettler
	Deposit(ctx context.Context, player uuid.UUID, amount int64) (int64, error)
	Balance(ctx context.Context, player uuid.UUID) (int64, error)
}
