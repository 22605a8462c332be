package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beka-birhanu/maze-arcade/game"
	"github.com/beka-birhanu/maze-arcade/service/i"
	"github.com/google/uuid"
)

const (
	defaultQueueSize      = 32
	defaultSubscriberSize = 8
	defaultIdleTTL        = 10 * time.Minute
)

var (
	ErrManagerStopped = errors.New("arcade manager stopped")
	ErrInputQueueFull = errors.New("input queue full")
	ErrNilPlayer      = errors.New("player id is required")
)

// ArcadeConfig holds the factories used to build player sessions.
type ArcadeConfig struct {
	// NewController builds the controller of player rendering to r.
	NewController func(player uuid.UUID, r i.Renderer) (*Controller, error)
	// NewClock builds the countdown clock of one session loop.
	NewClock  func() i.Clock
	QueueSize int
	// IdleTTL is how long an unwatched session outside of play survives
	// without being touched.
	IdleTTL time.Duration
	Now     func() time.Time // Optional, time.Now by default.
	Logger  i.Logger
}

type arcadeSession struct {
	ctrl   *Controller
	input  commandQueue
	fanout *fanout
	cancel context.CancelFunc
	done   chan struct{}
	seen   atomic.Int64 // Unix nanoseconds of the last lookup.
}

// ArcadeManager keeps one controller per player and drives each of them from
// its own Run loop.
type ArcadeManager struct {
	sessions      map[uuid.UUID]*arcadeSession
	newController func(uuid.UUID, i.Renderer) (*Controller, error)
	newClock      func() i.Clock
	queueSize     int
	idleTTL       time.Duration
	now           func() time.Time
	logger        i.Logger
	stopped       bool
	quit          chan struct{}
	quitOnce      sync.Once
	sync.RWMutex
}

func NewArcadeManager(c *ArcadeConfig) (*ArcadeManager, error) {
	if c == nil || c.NewController == nil || c.NewClock == nil {
		return nil, errors.New("controller and clock factories are required")
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = defaultIdleTTL
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}

	a := &ArcadeManager{
		sessions:      make(map[uuid.UUID]*arcadeSession),
		newController: c.NewController,
		newClock:      c.NewClock,
		queueSize:     c.QueueSize,
		idleTTL:       c.IdleTTL,
		now:           c.Now,
		logger:        c.Logger,
		quit:          make(chan struct{}),
	}
	go a.evictIdle()
	return a, nil
}

// Controller returns the controller of player, creating it on first use.
func (a *ArcadeManager) Controller(player uuid.UUID) (i.ArcadeController, error) {
	s, err := a.session(player)
	if err != nil {
		return nil, err
	}
	return s.ctrl, nil
}

// Send queues cmd for the Run loop of player. It never blocks.
func (a *ArcadeManager) Send(player uuid.UUID, cmd game.Command) error {
	s, err := a.session(player)
	if err != nil {
		return err
	}

	select {
	case s.input <- cmd:
		return nil
	default:
		a.logger.Warning(fmt.Sprintf("input queue full for player %s, dropping command", player))
		return ErrInputQueueFull
	}
}

// Subscribe streams the snapshots of player. The current snapshot is
// delivered first. Slow subscribers miss frames instead of stalling the game.
func (a *ArcadeManager) Subscribe(player uuid.UUID) (<-chan game.Snapshot, func(), error) {
	s, err := a.session(player)
	if err != nil {
		return nil, nil, err
	}

	ch, cancel := s.fanout.subscribe()
	s.fanout.Render(s.ctrl.Snapshot())
	return ch, cancel, nil
}

// Remove stops the session loop of player and closes its subscriptions.
func (a *ArcadeManager) Remove(player uuid.UUID) {
	a.Lock()
	s, ok := a.sessions[player]
	delete(a.sessions, player)
	a.Unlock()

	if ok {
		a.stop(s)
		a.logger.Info(fmt.Sprintf("removed session of player %s", player))
	}
}

// StopAll stops every session loop and rejects new sessions.
func (a *ArcadeManager) StopAll() {
	a.quitOnce.Do(func() { close(a.quit) })

	a.Lock()
	a.stopped = true
	sessions := a.sessions
	a.sessions = make(map[uuid.UUID]*arcadeSession)
	a.Unlock()

	for _, s := range sessions {
		a.stop(s)
	}
	a.logger.Info(fmt.Sprintf("stopped %d arcade sessions", len(sessions)))
}

func (a *ArcadeManager) session(player uuid.UUID) (*arcadeSession, error) {
	if player == uuid.Nil {
		return nil, ErrNilPlayer
	}

	a.RLock()
	s, ok := a.sessions[player]
	a.RUnlock()
	if ok {
		s.touch(a.now())
		return s, nil
	}

	a.Lock()
	defer a.Unlock()
	if a.stopped {
		return nil, ErrManagerStopped
	}
	if s, ok := a.sessions[player]; ok {
		s.touch(a.now())
		return s, nil
	}

	f := newFanout()
	ctrl, err := a.newController(player, f)
	if err != nil {
		a.logger.Error(fmt.Sprintf("creating controller for player %s: %s", player, err))
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s = &arcadeSession{
		ctrl:   ctrl,
		input:  make(commandQueue, a.queueSize),
		fanout: f,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.touch(a.now())
	a.sessions[player] = s

	go func() {
		defer close(s.done)
		ctrl.Run(ctx, a.newClock(), s.input)
	}()
	a.logger.Info(fmt.Sprintf("started session loop for player %s", player))
	return s, nil
}

func (a *ArcadeManager) stop(s *arcadeSession) {
	s.cancel()
	<-s.done
	s.ctrl.Close()
	s.fanout.close()
}

func (a *ArcadeManager) evictIdle() {
	ticker := time.NewTicker(a.idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-a.quit:
			return
		case <-ticker.C:
			a.sweep()
		}
	}
}

// sweep removes the sessions nobody watches or plays that were not looked up
// for longer than the idle TTL.
func (a *ArcadeManager) sweep() int {
	cutoff := a.now().Add(-a.idleTTL)

	a.Lock()
	var idle []*arcadeSession
	for player, s := range a.sessions {
		if s.lastSeen().After(cutoff) || s.fanout.subscribers() > 0 || !s.ctrl.Idle() {
			continue
		}
		delete(a.sessions, player)
		idle = append(idle, s)
	}
	a.Unlock()

	for _, s := range idle {
		a.stop(s)
	}
	if len(idle) > 0 {
		a.logger.Info(fmt.Sprintf("evicted %d idle arcade sessions", len(idle)))
	}
	return len(idle)
}

func (s *arcadeSession) touch(t time.Time) { s.seen.Store(t.UnixNano()) }

func (s *arcadeSession) lastSeen() time.Time { return time.Unix(0, s.seen.Load()) }

type commandQueue chan game.Command

func (q commandQueue) Commands() <-chan game.Command { return q }

// fanout is a Renderer that copies every snapshot to its subscribers.
type fanout struct {
	subs   map[int]chan game.Snapshot
	nextID int
	closed bool
	sync.Mutex
}

func newFanout() *fanout {
	return &fanout{subs: make(map[int]chan game.Snapshot)}
}

func (f *fanout) Render(s game.Snapshot) {
	f.Lock()
	defer f.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

func (f *fanout) subscribe() (<-chan game.Snapshot, func()) {
	f.Lock()
	defer f.Unlock()

	ch := make(chan game.Snapshot, defaultSubscriberSize)
	if f.closed {
		close(ch)
		return ch, func() {}
	}

	id := f.nextID
	f.nextID++
	f.subs[id] = ch

	return ch, func() {
		f.Lock()
		defer f.Unlock()
		if c, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(c)
		}
	}
}

func (f *fanout) subscribers() int {
	f.Lock()
	defer f.Unlock()
	return len(f.subs)
}

func (f *fanout) close() {
	f.Lock()
	defer f.Unlock()
	f.closed = true
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}
