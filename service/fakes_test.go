package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/beka-birhanu/maze-arcade/game"
	"github.com/beka-birhanu/maze-arcade/identity"
	"github.com/beka-birhanu/maze-arcade/maze"
	"github.com/beka-birhanu/maze-arcade/service/i"
	"github.com/google/uuid"
)

type fakeEntry struct {
	mu      sync.Mutex
	entry   i.Entry
	err     error
	calls   int
	release chan struct{} // When set, RequestEntry blocks until it is closed.
}

func (f *fakeEntry) RequestEntry(ctx context.Context, player, attempt uuid.UUID) (i.Entry, error) {
	f.mu.Lock()
	f.calls++
	release := f.release
	f.mu.Unlock()
	if release != nil {
		<-release
	}
	return f.entry, f.err
}

type reported struct {
	attempt uuid.UUID
	outcome game.Outcome
}

type fakeReward struct {
	mu      sync.Mutex
	payout  i.Payout
	err     error
	reports []reported
	release chan struct{}
}

func (f *fakeReward) ReportOutcome(ctx context.Context, player, attempt uuid.UUID, outcome game.Outcome) (i.Payout, error) {
	f.mu.Lock()
	f.reports = append(f.reports, reported{attempt: attempt, outcome: outcome})
	release := f.release
	f.mu.Unlock()
	if release != nil {
		<-release
	}
	return f.payout, f.err
}

func (f *fakeReward) Reports() []reported {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]reported(nil), f.reports...)
}

// stallingReward never answers: every report ends with its context.
type stallingReward struct{}

func (stallingReward) ReportOutcome(ctx context.Context, player, attempt uuid.UUID, outcome game.Outcome) (i.Payout, error) {
	<-ctx.Done()
	return i.Payout{}, ctx.Err()
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []game.AttemptRecord
	err     error
}

func (f *fakeRecorder) Record(ctx context.Context, record game.AttemptRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return f.err
}

func (f *fakeRecorder) Records() []game.AttemptRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]game.AttemptRecord(nil), f.records...)
}

type fakeRenderer struct {
	mu    sync.Mutex
	snaps []game.Snapshot
}

func (f *fakeRenderer) Render(s game.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps = append(f.snaps, s)
}

func (f *fakeRenderer) Last() game.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.snaps) == 0 {
		return game.Snapshot{}
	}
	return f.snaps[len(f.snaps)-1]
}

type fakeMetrics struct {
	mu                                 sync.Mutex
	started, denied, won, lost, ok, ko int
}

func (f *fakeMetrics) AttemptStarted() { f.mu.Lock(); f.started++; f.mu.Unlock() }
func (f *fakeMetrics) EntryDenied()    { f.mu.Lock(); f.denied++; f.mu.Unlock() }
func (f *fakeMetrics) AttemptFinished(p game.Phase) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p == game.Won {
		f.won++
	} else {
		f.lost++
	}
}
func (f *fakeMetrics) SettlementFinished(ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ok {
		f.ok++
	} else {
		f.ko++
	}
}

type fakeClock struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func newFakeClock() *fakeClock {
	return &fakeClock{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (f *fakeClock) C() <-chan time.Time { return f.ch }
func (f *fakeClock) Stop()               { f.once.Do(func() { close(f.stopped) }) }

type fakeInput chan game.Command

func (f fakeInput) Commands() <-chan game.Command { return f }

type fakePlayerRepo struct {
	mu      sync.Mutex
	players map[string]*identity.Player
	err     error
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: map[string]*identity.Player{}}
}

func (f *fakePlayerRepo) Save(ctx context.Context, p *identity.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.players[p.Username] = p
	return nil
}

func (f *fakePlayerRepo) ByID(ctx context.Context, id uuid.UUID) (*identity.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.players {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, errors.New("player not found")
}

func (f *fakePlayerRepo) ByUsername(ctx context.Context, username string) (*identity.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.players[username]; ok {
		return p, nil
	}
	return nil, errors.New("player not found")
}

type fakeTokenizer struct{}

func (fakeTokenizer) Generate(id uuid.UUID, username string, exp time.Duration) (string, error) {
	return "token-" + username, nil
}

func (fakeTokenizer) Decode(token string) (uuid.UUID, error) {
	return uuid.Nil, errors.New("not implemented")
}

type fakeLedger struct {
	fakeEntry
	fakeReward
	mu       sync.Mutex
	deposits map[uuid.UUID]int64
}

func (f *fakeLedger) Deposit(ctx context.Context, player uuid.UUID, amount int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deposits == nil {
		f.deposits = map[uuid.UUID]int64{}
	}
	f.deposits[player] += amount
	return f.deposits[player], nil
}

func (f *fakeLedger) Balance(ctx context.Context, player uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deposits[player], nil
}

// fixedMazes returns a factory that hands out the given layouts in order and
// counts the calls.
func fixedMazes(layouts ...string) (func(int, int) (*maze.Grid, error), *int) {
	calls := 0
	return func(int, int) (*maze.Grid, error) {
		layout := layouts[calls%len(layouts)]
		calls++
		return maze.Parse(layout)
	}, &calls
}
