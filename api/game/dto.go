// Package gameapi provides the request and response shapes of the arcade API.
package gameapi

import (
	"time"

	"github.com/beka-birhanu/maze-arcade/game"
	"github.com/google/uuid"
)

// MoveRequest asks for one step in a direction.
type MoveRequest struct {
	Direction string `json:"direction" binding:"required"`
}

// PositionResponse is a cell coordinate.
type PositionResponse struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SnapshotResponse is the client view of a session.
type SnapshotResponse struct {
	AttemptID        string           `json:"attempt_id,omitempty"`
	Phase            string           `json:"phase"`
	Maze             []string         `json:"maze,omitempty"`
	Width            int              `json:"width,omitempty"`
	Height           int              `json:"height,omitempty"`
	Position         PositionResponse `json:"position"`
	RemainingSeconds int              `json:"remaining_seconds"`
	ElapsedSeconds   float64          `json:"elapsed_seconds"`
	Payout           int64            `json:"payout"`
	Notice           string           `json:"notice,omitempty"`
}

// NewSnapshotResponse converts a snapshot for the wire.
func NewSnapshotResponse(s game.Snapshot) *SnapshotResponse {
	resp := &SnapshotResponse{
		Phase:            s.Phase.String(),
		Position:         PositionResponse{X: s.Position.X, Y: s.Position.Y},
		RemainingSeconds: s.RemainingSeconds(),
		ElapsedSeconds:   s.Elapsed.Seconds(),
		Payout:           s.Payout,
		Notice:           s.Notice,
	}
	if s.AttemptID != uuid.Nil {
		resp.AttemptID = s.AttemptID.String()
	}
	if s.Grid != nil {
		resp.Maze = s.Grid.Rows()
		resp.Width = s.Grid.Width()
		resp.Height = s.Grid.Height()
	}
	return resp
}

// BalanceResponse holds a player's credits.
type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

// AttemptResponse is one entry of a player's history.
type AttemptResponse struct {
	ID               string    `json:"id"`
	Won              bool      `json:"won"`
	ElapsedSeconds   float64   `json:"elapsed_seconds"`
	RemainingSeconds float64   `json:"remaining_seconds"`
	Payout           int64     `json:"payout"`
	Settled          bool      `json:"settled"`
	FinishedAt       time.Time `json:"finished_at"`
}

// NewAttemptResponse converts a stored attempt for the wire.
func NewAttemptResponse(r game.AttemptRecord) AttemptResponse {
	return AttemptResponse{
		ID:               r.AttemptID.String(),
		Won:              r.Won,
		ElapsedSeconds:   r.Elapsed.Seconds(),
		RemainingSeconds: r.Remaining.Seconds(),
		Payout:           r.Payout,
		Settled:          r.Settled,
		FinishedAt:       r.FinishedAt,
	}
}

// StreamMessage is a command sent by a client over the stream.
type StreamMessage struct {
	Type      string `json:"type"`                // move, start or reset
	Direction string `json:"direction,omitempty"` // For move.
}

// StreamError is written to the stream when a client message is rejected.
type StreamError struct {
	Error string `json:"error"`
}
