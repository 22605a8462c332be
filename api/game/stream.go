package gameapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/beka-birhanu/maze-arcade/api/identity"
	"github.com/beka-birhanu/maze-arcade/game"
	"github.com/beka-birhanu/maze-arcade/service/i"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// stream upgrades to a websocket that pushes every snapshot of the player's
// session and accepts move, start and reset commands.
func (ac *ArcadeController) stream(ctx *gin.Context) {
	playerID, ok := identity.PlayerID(ctx)
	if !ok {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	snaps, unsubscribe, err := ac.arcade.Subscribe(playerID)
	if err != nil {
		ac.logger.Error(fmt.Sprintf("subscribing player %s: %s", playerID, err))
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "arcade unavailable"})
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		unsubscribe()
		ac.logger.Warning(fmt.Sprintf("upgrading stream of player %s: %s", playerID, err))
		return
	}
	ac.logger.Info(fmt.Sprintf("stream opened for player %s", playerID))

	s := &streamConn{
		player:  playerID,
		conn:    conn,
		arcade:  ac.arcade,
		logger:  ac.logger,
		rejects: make(chan string, 8),
		done:    make(chan struct{}),
	}
	go s.readPump()
	s.writePump(snaps, unsubscribe)
	ac.logger.Info(fmt.Sprintf("stream closed for player %s", playerID))
}

type streamConn struct {
	player  uuid.UUID
	conn    *websocket.Conn
	arcade  i.ArcadeManager
	logger  i.Logger
	rejects chan string
	done    chan struct{}
}

func (s *streamConn) readPump() {
	defer close(s.done)

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg StreamMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warning(fmt.Sprintf("reading stream of player %s: %s", s.player, err))
			}
			return
		}

		cmd, err := ParseStreamMessage(msg)
		if err == nil {
			err = s.arcade.Send(s.player, cmd)
		}
		if err != nil {
			select {
			case s.rejects <- err.Error():
			default:
			}
		}
	}
}

func (s *streamConn) writePump(snaps <-chan game.Snapshot, unsubscribe func()) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		unsubscribe()
		_ = s.conn.Close()
	}()

	for {
		select {
		case snap, ok := <-snaps:
			if !ok {
				_ = s.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "arcade stopped"))
				return
			}
			if err := s.writeJSON(NewSnapshotResponse(snap)); err != nil {
				return
			}
		case reason := <-s.rejects:
			if err := s.writeJSON(&StreamError{Error: reason}); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *streamConn) writeJSON(v any) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

func (s *streamConn) write(messageType int, data []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// ParseStreamMessage converts a client message into a session command.
func ParseStreamMessage(msg StreamMessage) (game.Command, error) {
	switch strings.ToLower(strings.TrimSpace(msg.Type)) {
	case "move":
		d, err := game.ParseDirection(msg.Direction)
		if err != nil {
			return game.Command{}, err
		}
		return game.Command{Kind: game.CommandMove, Direction: d}, nil
	case "start":
		return game.Command{Kind: game.CommandStart}, nil
	case "reset", "restart":
		return game.Command{Kind: game.CommandReset}, nil
	default:
		return game.Command{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
}
