package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/beka-birhanu/maze-arcade/game"
	"github.com/beka-birhanu/maze-arcade/maze"
	"github.com/beka-birhanu/maze-arcade/service/i"
	"github.com/google/uuid"
)

// Controller-related errors.
var (
	ErrEntryDenied      = errors.New("entry denied")
	ErrSettlementFailed = errors.New("settlement failed")
	ErrAttemptAbandoned = errors.New("attempt abandoned before it started")
	ErrMissingSettler   = errors.New("entry and reward settlers are required")
	ErrControllerClosed = errors.New("controller closed")
)

const (
	defaultMazeSize          = 21
	defaultTickInterval      = time.Second
	defaultSettlementTimeout = 10 * time.Second
)

// ControllerConfig holds the collaborators and settings of a Controller.
type ControllerConfig struct {
	PlayerID          uuid.UUID
	Width             int           // Maze width, odd.
	Height            int           // Maze height, odd.
	Duration          time.Duration // Countdown of one attempt.
	TickInterval      time.Duration // Countdown consumed per clock tick.
	SettlementTimeout time.Duration // Timeout of one reward settlement.
	Entry             i.EntrySettler
	Reward            i.RewardSettler
	Recorder          i.AttemptRecorder // Optional.
	Renderer          i.Renderer        // Optional.
	Metrics           i.Metrics         // Optional.
	Logger            i.Logger
	MazeFactory       func(width, height int) (*maze.Grid, error) // Builds each attempt's maze; randomly seeded Generate when nil.
}

// Controller runs one player's maze attempts end to end: it clears entry,
// generates the maze, drives the countdown, applies moves, and settles the
// outcome. It is the only writer of its session.
type Controller struct {
	player       uuid.UUID
	width        int
	height       int
	tickInterval time.Duration
	settleTTL    time.Duration
	entry        i.EntrySettler
	reward       i.RewardSettler
	recorder     i.AttemptRecorder
	renderer     i.Renderer
	metrics      i.Metrics
	logger       i.Logger
	mazeFactory  func(int, int) (*maze.Grid, error)

	session   *game.Session
	attemptID uuid.UUID // Current attempt, uuid.Nil while Waiting.
	epoch     uint64    // Bumped on restart to cancel pending entries.
	pending   bool      // An entry request of the current epoch is in flight.
	closed    bool
	payout    int64
	notice    string
	settling  sync.WaitGroup
	sync.Mutex
}

// NewController creates a Controller in the Waiting phase.
func NewController(c ControllerConfig) (*Controller, error) {
	if c.Entry == nil || c.Reward == nil {
		return nil, ErrMissingSettler
	}
	if c.Width == 0 {
		c.Width = defaultMazeSize
	}
	if c.Height == 0 {
		c.Height = defaultMazeSize
	}
	if c.Duration <= 0 {
		c.Duration = game.DefaultDuration
	}
	if c.TickInterval <= 0 {
		c.TickInterval = defaultTickInterval
	}
	if c.SettlementTimeout <= 0 {
		c.SettlementTimeout = defaultSettlementTimeout
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
	if c.MazeFactory == nil {
		// Fail at setup rather than on the first attempt.
		if _, err := maze.Generate(c.Width, c.Height, maze.NewRand(0)); err != nil {
			return nil, err
		}
		c.MazeFactory = randomMaze
	}

	return &Controller{
		player:       c.PlayerID,
		width:        c.Width,
		height:       c.Height,
		tickInterval: c.TickInterval,
		settleTTL:    c.SettlementTimeout,
		entry:        c.Entry,
		reward:       c.Reward,
		recorder:     c.Recorder,
		renderer:     c.Renderer,
		metrics:      c.Metrics,
		logger:       c.Logger,
		mazeFactory:  c.MazeFactory,
		session:      game.NewSession(c.Duration),
	}, nil
}

// BeginAttempt clears entry with the entry settler and, once granted, starts
// a fresh maze. The session stays Waiting if entry is denied.
func (c *Controller) BeginAttempt(ctx context.Context) (game.Snapshot, error) {
	c.Lock()
	if c.closed {
		snap := c.snapshot()
		c.Unlock()
		return snap, ErrControllerClosed
	}
	if c.session.Phase() != game.Waiting || c.pending {
		snap := c.snapshot()
		c.Unlock()
		return snap, fmt.Errorf("%w: begin attempt while %s", game.ErrInvalidTransition, snap.Phase)
	}
	c.pending = true
	epoch := c.epoch
	attemptID := uuid.New()
	c.Unlock()

	entry, err := c.entry.RequestEntry(ctx, c.player, attemptID)

	c.Lock()
	defer c.Unlock()
	if epoch == c.epoch {
		c.pending = false
	}

	if err != nil || !entry.Granted {
		reason := entry.Reason
		if err != nil {
			reason = err.Error()
		}
		c.logger.Warning(fmt.Sprintf("entry denied for player %s: %s", c.player, reason))
		if c.metrics != nil {
			c.metrics.EntryDenied()
		}
		if epoch == c.epoch {
			c.notice = "entry denied: " + reason
			c.render()
		}
		return c.snapshot(), fmt.Errorf("%w: %s", ErrEntryDenied, reason)
	}

	if epoch != c.epoch {
		c.logger.Warning(fmt.Sprintf("attempt %s granted after restart, discarding", attemptID))
		return c.snapshot(), ErrAttemptAbandoned
	}
	if c.closed {
		return c.snapshot(), ErrControllerClosed
	}

	grid, err := c.mazeFactory(c.width, c.height)
	if err != nil {
		c.logger.Error(fmt.Sprintf("generating maze for attempt %s: %s", attemptID, err))
		return c.snapshot(), err
	}
	if err := c.session.Start(grid); err != nil {
		return c.snapshot(), err
	}

	c.attemptID = attemptID
	c.payout = 0
	c.notice = ""
	if c.metrics != nil {
		c.metrics.AttemptStarted()
	}
	c.logger.Info(fmt.Sprintf("attempt %s started for player %s", attemptID, c.player))
	c.render()
	return c.snapshot(), nil
}

// Tick consumes one tick interval from the countdown.
func (c *Controller) Tick() game.Snapshot {
	c.Lock()
	defer c.Unlock()

	if c.closed || c.session.Phase() != game.Playing {
		return c.snapshot()
	}
	if c.session.Tick(c.tickInterval) {
		c.finish()
	}
	c.render()
	return c.snapshot()
}

// Move applies one directional step. Rejected moves leave the state unchanged
// and produce no render.
func (c *Controller) Move(d game.Direction) game.Snapshot {
	c.Lock()
	defer c.Unlock()

	if c.closed || !c.session.Move(d.DX, d.DY) {
		return c.snapshot()
	}
	if c.session.Phase() == game.Won {
		c.finish()
	}
	c.render()
	return c.snapshot()
}

// Restart abandons the current attempt and returns to Waiting, ready for a
// new BeginAttempt. Settlements and entry grants still in flight for the old
// attempt are discarded.
func (c *Controller) Restart() game.Snapshot {
	c.Lock()
	defer c.Unlock()

	if c.closed {
		return c.snapshot()
	}
	c.session.Reset()
	c.epoch++
	c.pending = false
	c.attemptID = uuid.Nil
	c.payout = 0
	c.notice = ""
	c.render()
	return c.snapshot()
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() game.Snapshot {
	c.Lock()
	defer c.Unlock()
	return c.snapshot()
}

// Run drives the controller from clock ticks and input commands until ctx is
// done or the input source closes.
func (c *Controller) Run(ctx context.Context, clock i.Clock, input i.InputSource) {
	defer clock.Stop()
	commands := input.Commands()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-clock.C():
			if !ok {
				return
			}
			c.Tick()
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			c.handleCommand(ctx, cmd)
		}
	}
}

// Wait blocks until every settlement issued so far has been handled.
func (c *Controller) Wait() {
	c.settling.Wait()
}

// Close stops the controller from accepting further mutations and waits for
// in-flight settlements. Reads keep working.
func (c *Controller) Close() {
	c.Lock()
	c.closed = true
	c.Unlock()
	c.settling.Wait()
}

// Idle reports whether nothing depends on the controller staying alive: no
// attempt is being played and no entry request is in flight.
func (c *Controller) Idle() bool {
	c.Lock()
	defer c.Unlock()
	return !c.pending && c.session.Phase() != game.Playing
}

func (c *Controller) handleCommand(ctx context.Context, cmd game.Command) {
	switch cmd.Kind {
	case game.CommandMove:
		c.Move(cmd.Direction)
	case game.CommandStart:
		if _, err := c.BeginAttempt(ctx); err != nil {
			c.logger.Warning(fmt.Sprintf("start command for player %s: %s", c.player, err))
		}
	case game.CommandReset:
		c.Restart()
	}
}

// finish reports a terminal phase. Callers hold the lock.
func (c *Controller) finish() {
	outcome := c.session.Outcome()
	attemptID := c.attemptID
	phase := c.session.Phase()

	if c.metrics != nil {
		c.metrics.AttemptFinished(phase)
	}
	c.logger.Info(fmt.Sprintf("attempt %s %s with %s left", attemptID, phase, outcome.Remaining))

	c.settling.Add(1)
	go c.settle(attemptID, outcome)
}

// settle reports the outcome, records the attempt, and attaches the result to
// the session if the attempt is still current.
func (c *Controller) settle(attemptID uuid.UUID, outcome game.Outcome) {
	defer c.settling.Done()

	ctx, cancel := context.WithTimeout(context.Background(), c.settleTTL)
	payout, err := c.reward.ReportOutcome(ctx, c.player, attemptID, outcome)
	cancel()
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrSettlementFailed, err)
		c.logger.Error(fmt.Sprintf("settling attempt %s: %s", attemptID, err))
		payout = i.Payout{}
	}
	if c.metrics != nil {
		c.metrics.SettlementFinished(err == nil)
	}

	if c.recorder != nil {
		record := game.AttemptRecord{
			AttemptID:  attemptID,
			PlayerID:   c.player,
			Won:        outcome.Won,
			Elapsed:    outcome.Elapsed,
			Remaining:  outcome.Remaining,
			Payout:     payout.Amount,
			Settled:    err == nil,
			FinishedAt: time.Now().UTC(),
		}
		// A timed out settlement must still reach the history.
		recCtx, recCancel := context.WithTimeout(context.Background(), c.settleTTL)
		recErr := c.recorder.Record(recCtx, record)
		recCancel()
		if recErr != nil {
			c.logger.Error(fmt.Sprintf("recording attempt %s: %s", attemptID, recErr))
		}
	}

	c.Lock()
	defer c.Unlock()
	if c.attemptID != attemptID {
		c.logger.Info(fmt.Sprintf("discarding stale settlement of attempt %s", attemptID))
		return
	}

	if err != nil {
		c.notice = "payout failed, your result still counts"
	} else {
		c.payout = payout.Amount
		if outcome.Won {
			c.notice = fmt.Sprintf("you won %d credits", payout.Amount)
		} else {
			c.notice = "time is up"
		}
	}
	c.render()
}

// snapshot builds the current view. Callers hold the lock.
func (c *Controller) snapshot() game.Snapshot {
	snap := c.session.Snapshot()
	snap.AttemptID = c.attemptID
	snap.Payout = c.payout
	snap.Notice = c.notice
	return snap
}

// render hands the current view to the renderer. Callers hold the lock.
func (c *Controller) render() {
	if c.renderer != nil {
		c.renderer.Render(c.snapshot())
	}
}

// randomMaze generates a maze from a fresh clock-seeded source.
func randomMaze(width, height int) (*maze.Grid, error) {
	return maze.Generate(width, height, maze.NewRand(time.Now().UnixNano()))
}

type nopLogger struct{}

func (nopLogger) Info(string)    {}
func (nopLogger) Warning(string) {}
func (nopLogger) Error(string)   {}
