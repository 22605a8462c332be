package gameapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/beka-birhanu/maze-arcade/api"
	apii "github.com/beka-birhanu/maze-arcade/api/i"
	"github.com/beka-birhanu/maze-arcade/api/identity"
	"github.com/beka-birhanu/maze-arcade/game"
	"github.com/beka-birhanu/maze-arcade/infrastruture/clock"
	"github.com/beka-birhanu/maze-arcade/infrastruture/token"
	"github.com/beka-birhanu/maze-arcade/maze"
	"github.com/beka-birhanu/maze-arcade/service"
	"github.com/beka-birhanu/maze-arcade/service/i"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	entryFee = 10
	winPrize = 100
)

type memLedger struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int64
}

func (m *memLedger) RequestEntry(ctx context.Context, player, attempt uuid.UUID) (i.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[player] < entryFee {
		return i.Entry{Reason: "insufficient credits"}, nil
	}
	m.balances[player] -= entryFee
	return i.Entry{Granted: true}, nil
}

func (m *memLedger) ReportOutcome(ctx context.Context, player, attempt uuid.UUID, o game.Outcome) (i.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !o.Won {
		return i.Payout{}, nil
	}
	m.balances[player] += winPrize
	return i.Payout{Amount: winPrize}, nil
}

func (m *memLedger) Deposit(ctx context.Context, player uuid.UUID, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[player] += amount
	return m.balances[player], nil
}

func (m *memLedger) Balance(ctx context.Context, player uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[player], nil
}

type memAttempts struct {
	mu      sync.Mutex
	records []game.AttemptRecord
	err     error
}

func (m *memAttempts) Record(ctx context.Context, r game.AttemptRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *memAttempts) ByPlayer(ctx context.Context, player uuid.UUID, limit int) ([]game.AttemptRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []game.AttemptRecord
	for _, r := range m.records {
		if r.PlayerID == player {
			out = append(out, r)
		}
	}
	return out, m.err
}

func (m *memAttempts) Leaderboard(ctx context.Context, limit int) ([]game.Standing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wins := map[uuid.UUID]int{}
	for _, r := range m.records {
		if r.Won {
			wins[r.PlayerID]++
		}
	}
	out := make([]game.Standing, 0, len(wins))
	for id, n := range wins {
		out = append(out, game.Standing{PlayerID: id, Username: "player", Wins: n})
	}
	return out, m.err
}

type silentLogger struct{}

func (silentLogger) Info(string)    {}
func (silentLogger) Warning(string) {}
func (silentLogger) Error(string)   {}

type testServer struct {
	handler   http.Handler
	ledger    *memLedger
	attempts  *memAttempts
	manager   *service.ArcadeManager
	tokenizer i.Tokenizer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		ledger:    &memLedger{balances: map[uuid.UUID]int64{}},
		attempts:  &memAttempts{},
		tokenizer: token.NewJwtService("test-secret", "maze-arcade-test"),
	}

	manager, err := service.NewArcadeManager(&service.ArcadeConfig{
		NewController: func(player uuid.UUID, r i.Renderer) (*service.Controller, error) {
			return service.NewController(service.ControllerConfig{
				PlayerID:    player,
				Entry:       ts.ledger,
				Reward:      ts.ledger,
				Recorder:    ts.attempts,
				Renderer:    r,
				MazeFactory: func(int, int) (*maze.Grid, error) { return maze.Parse("####\n#SG#\n####") },
			})
		},
		NewClock: func() i.Clock { return clock.NewTicker(time.Hour) },
	})
	require.NoError(t, err)
	t.Cleanup(manager.StopAll)
	ts.manager = manager

	ctrl, err := NewArcadeController(Config{
		Arcade:   manager,
		Ledger:   ts.ledger,
		Attempts: ts.attempts,
		Logger:   silentLogger{},
	})
	require.NoError(t, err)

	ts.handler = api.NewRouter(api.Config{
		BaseURL:                 "/api",
		Mode:                    gin.TestMode,
		Controllers:             []apii.Controller{ctrl},
		AuthorizationMiddleware: identity.Authoriz(ts.tokenizer),
	}).Handler()
	return ts
}

// player registers a player with credits and returns its id and token.
func (ts *testServer) player(t *testing.T, credits int64) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	if credits > 0 {
		_, err := ts.ledger.Deposit(context.Background(), id, credits)
		require.NoError(t, err)
	}
	tok, err := ts.tokenizer.Generate(id, "maze_runner", time.Hour)
	require.NoError(t, err)
	return id, tok
}

func (ts *testServer) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) SnapshotResponse {
	t.Helper()
	var snap SnapshotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func TestNewArcadeController(t *testing.T) {
	_, err := NewArcadeController(Config{})
	assert.Error(t, err)
}

func TestArcadeRoutes(t *testing.T) {
	ts := newTestServer(t)

	t.Run("protected routes need a token", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/v1/arcade/state", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = ts.do(t, http.MethodGet, "/api/v1/arcade/state", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("fresh session is waiting", func(t *testing.T) {
		_, tok := ts.player(t, 0)
		rec := ts.do(t, http.MethodGet, "/api/v1/arcade/state", tok, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		snap := decodeSnapshot(t, rec)
		assert.Equal(t, "waiting", snap.Phase)
		assert.Empty(t, snap.Maze)
		assert.Empty(t, snap.AttemptID)
	})

	t.Run("token query parameter is accepted", func(t *testing.T) {
		_, tok := ts.player(t, 0)
		rec := ts.do(t, http.MethodGet, "/api/v1/arcade/state?token="+tok, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("full attempt is won and paid", func(t *testing.T) {
		player, tok := ts.player(t, 25)

		rec := ts.do(t, http.MethodPost, "/api/v1/arcade/attempts", tok, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		snap := decodeSnapshot(t, rec)
		assert.Equal(t, "playing", snap.Phase)
		assert.Equal(t, []string{"####", "#SG#", "####"}, snap.Maze)
		assert.Equal(t, PositionResponse{X: 1, Y: 1}, snap.Position)
		assert.Equal(t, 30, snap.RemainingSeconds)
		assert.NotEmpty(t, snap.AttemptID)

		rec = ts.do(t, http.MethodPost, "/api/v1/arcade/attempts", tok, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = ts.do(t, http.MethodPost, "/api/v1/arcade/moves", tok, MoveRequest{Direction: "sideways"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = ts.do(t, http.MethodPost, "/api/v1/arcade/moves", tok, MoveRequest{Direction: "right"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "won", decodeSnapshot(t, rec).Phase)

		assert.Eventually(t, func() bool {
			snap := decodeSnapshot(t, ts.do(t, http.MethodGet, "/api/v1/arcade/state", tok, nil))
			return snap.Payout == winPrize
		}, time.Second, 5*time.Millisecond)

		rec = ts.do(t, http.MethodGet, "/api/v1/arcade/balance", tok, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var balance BalanceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balance))
		assert.Equal(t, int64(25-entryFee+winPrize), balance.Balance)

		assert.Eventually(t, func() bool {
			records, _ := ts.attempts.ByPlayer(context.Background(), player, 0)
			return len(records) == 1
		}, time.Second, 5*time.Millisecond)
		rec = ts.do(t, http.MethodGet, "/api/v1/arcade/attempts?limit=5", tok, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var history []AttemptResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
		require.Len(t, history, 1)
		assert.True(t, history[0].Won)

		rec = ts.do(t, http.MethodPost, "/api/v1/arcade/restart", tok, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "waiting", decodeSnapshot(t, rec).Phase)
	})

	t.Run("entry without credits is payment required", func(t *testing.T) {
		_, tok := ts.player(t, entryFee-1)
		rec := ts.do(t, http.MethodPost, "/api/v1/arcade/attempts", tok, nil)
		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
		assert.Contains(t, rec.Body.String(), "insufficient credits")
	})

	t.Run("leaderboard is public", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/v1/arcade/leaderboard?limit=3", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var standings []game.Standing
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &standings))
		assert.NotEmpty(t, standings)

		rec = ts.do(t, http.MethodGet, "/api/v1/arcade/leaderboard?limit=abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("repository failures are internal errors", func(t *testing.T) {
		ts.attempts.mu.Lock()
		ts.attempts.err = errors.New("mongo down")
		ts.attempts.mu.Unlock()
		defer func() {
			ts.attempts.mu.Lock()
			ts.attempts.err = nil
			ts.attempts.mu.Unlock()
		}()

		rec := ts.do(t, http.MethodGet, "/api/v1/arcade/leaderboard", "", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

type streamFrame struct {
	SnapshotResponse
	Error string `json:"error"`
}

func readFrame(t *testing.T, conn *websocket.Conn, match func(streamFrame) bool) streamFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f streamFrame
		require.NoError(t, conn.ReadJSON(&f))
		if match(f) {
			return f
		}
	}
}

func TestStream(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	defer server.Close()

	_, tok := ts.player(t, 50)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/arcade/stream?token=" + tok

	t.Run("rejects missing token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(strings.Split(url, "?")[0], nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readFrame(t, conn, func(streamFrame) bool { return true })
	assert.Equal(t, "waiting", first.Phase)

	require.NoError(t, conn.WriteJSON(StreamMessage{Type: "start"}))
	playing := readFrame(t, conn, func(f streamFrame) bool { return f.Phase == "playing" })
	assert.Len(t, playing.Maze, 3)

	require.NoError(t, conn.WriteJSON(StreamMessage{Type: "jump"}))
	rejected := readFrame(t, conn, func(f streamFrame) bool { return f.Error != "" })
	assert.Contains(t, rejected.Error, "jump")

	require.NoError(t, conn.WriteJSON(StreamMessage{Type: "move", Direction: "east"}))
	won := readFrame(t, conn, func(f streamFrame) bool { return f.Phase == "won" })
	assert.Equal(t, PositionResponse{X: 2, Y: 1}, won.Position)

	paid := readFrame(t, conn, func(f streamFrame) bool { return f.Payout > 0 })
	assert.Equal(t, int64(winPrize), paid.Payout)
	assert.Contains(t, paid.Notice, "100")

	t.Run("stopping the arcade closes the stream", func(t *testing.T) {
		ts.manager.StopAll()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		for {
			var f streamFrame
			if err := conn.ReadJSON(&f); err != nil {
				assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "%v", err)
				return
			}
		}
	})
}

func TestParseStreamMessage(t *testing.T) {
	cmd, err := ParseStreamMessage(StreamMessage{Type: "move", Direction: "up"})
	require.NoError(t, err)
	assert.Equal(t, game.Command{Kind: game.CommandMove, Direction: game.Up}, cmd)

	cmd, err = ParseStreamMessage(StreamMessage{Type: " Start "})
	require.NoError(t, err)
	assert.Equal(t, game.CommandStart, cmd.Kind)

	cmd, err = ParseStreamMessage(StreamMessage{Type: "reset"})
	require.NoError(t, err)
	assert.Equal(t, game.CommandReset, cmd.Kind)

	_, err = ParseStreamMessage(StreamMessage{Type: "move", Direction: "diagonal"})
	assert.ErrorIs(t, err, game.ErrInvalidDirection)

	_, err = ParseStreamMessage(StreamMessage{Type: "fly"})
	assert.Error(t, err)
}
