package gameapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/beka-birhanu/maze-arcade/api/identity"
	"github.com/beka-birhanu/maze-arcade/game"
	"github.com/beka-birhanu/maze-arcade/service"
	"github.com/beka-birhanu/maze-arcade/service/i"
	"github.com/gin-gonic/gin"
)

// ArcadeController exposes the maze sessions of authenticated players.
type ArcadeController struct {
	arcade   i.ArcadeManager
	ledger   i.Ledger
	attempts i.AttemptRepo
	logger   i.Logger
}

// Config holds the dependencies of an ArcadeController.
type Config struct {
	Arcade   i.ArcadeManager
	Ledger   i.Ledger
	Attempts i.AttemptRepo
	Logger   i.Logger
}

// NewArcadeController initializes an ArcadeController.
func NewArcadeController(c Config) (*ArcadeController, error) {
	if c.Arcade == nil || c.Ledger == nil || c.Attempts == nil || c.Logger == nil {
		return nil, errors.New("arcade, ledger, attempts and logger are required")
	}
	return &ArcadeController{
		arcade:   c.Arcade,
		ledger:   c.Ledger,
		attempts: c.Attempts,
		logger:   c.Logger,
	}, nil
}

// RegisterPublic registers public routes.
func (ac *ArcadeController) RegisterPublic(route *gin.RouterGroup) {
	route.GET("/arcade/leaderboard", ac.leaderboard)
}

// RegisterProtected registers protected routes.
func (ac *ArcadeController) RegisterProtected(route *gin.RouterGroup) {
	arcade := route.Group("/arcade")
	{
		arcade.POST("/attempts", ac.beginAttempt)
		arcade.GET("/attempts", ac.history)
		arcade.POST("/moves", ac.move)
		arcade.POST("/restart", ac.restart)
		arcade.GET("/state", ac.state)
		arcade.GET("/balance", ac.balance)
		arcade.GET("/stream", ac.stream)
	}
}

func (ac *ArcadeController) beginAttempt(ctx *gin.Context) {
	ctrl, ok := ac.controller(ctx)
	if !ok {
		return
	}

	snap, err := ctrl.BeginAttempt(ctx.Request.Context())
	if err != nil {
		ctx.JSON(attemptStatus(err), gin.H{"error": err.Error(), "state": NewSnapshotResponse(snap)})
		return
	}
	ctx.JSON(http.StatusCreated, NewSnapshotResponse(snap))
}

func (ac *ArcadeController) move(ctx *gin.Context) {
	var request MoveRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	direction, err := game.ParseDirection(request.Direction)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctrl, ok := ac.controller(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, NewSnapshotResponse(ctrl.Move(direction)))
}

func (ac *ArcadeController) restart(ctx *gin.Context) {
	ctrl, ok := ac.controller(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, NewSnapshotResponse(ctrl.Restart()))
}

func (ac *ArcadeController) state(ctx *gin.Context) {
	ctrl, ok := ac.controller(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, NewSnapshotResponse(ctrl.Snapshot()))
}

func (ac *ArcadeController) balance(ctx *gin.Context) {
	playerID, ok := identity.PlayerID(ctx)
	if !ok {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	balance, err := ac.ledger.Balance(ctx.Request.Context(), playerID)
	if err != nil {
		ac.logger.Error("reading balance of player " + playerID.String() + ": " + err.Error())
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error while reading balance"})
		return
	}
	ctx.JSON(http.StatusOK, &BalanceResponse{Balance: balance})
}

func (ac *ArcadeController) history(ctx *gin.Context) {
	playerID, ok := identity.PlayerID(ctx)
	if !ok {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	limit, ok := queryLimit(ctx)
	if !ok {
		return
	}

	records, err := ac.attempts.ByPlayer(ctx.Request.Context(), playerID, limit)
	if err != nil {
		ac.logger.Error("reading attempts of player " + playerID.String() + ": " + err.Error())
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error while reading attempts"})
		return
	}

	response := make([]AttemptResponse, 0, len(records))
	for _, r := range records {
		response = append(response, NewAttemptResponse(r))
	}
	ctx.JSON(http.StatusOK, response)
}

func (ac *ArcadeController) leaderboard(ctx *gin.Context) {
	limit, ok := queryLimit(ctx)
	if !ok {
		return
	}

	standings, err := ac.attempts.Leaderboard(ctx.Request.Context(), limit)
	if err != nil {
		ac.logger.Error("reading leaderboard: " + err.Error())
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error while reading leaderboard"})
		return
	}
	ctx.JSON(http.StatusOK, standings)
}

// controller resolves the session of the authenticated player. It writes the
// error response itself and reports false on failure.
func (ac *ArcadeController) controller(ctx *gin.Context) (i.ArcadeController, bool) {
	playerID, ok := identity.PlayerID(ctx)
	if !ok {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return nil, false
	}

	ctrl, err := ac.arcade.Controller(playerID)
	if err != nil {
		ac.logger.Error("resolving session of player " + playerID.String() + ": " + err.Error())
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "arcade unavailable"})
		return nil, false
	}
	return ctrl, true
}

func queryLimit(ctx *gin.Context) (int, bool) {
	raw := ctx.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return 0, false
	}
	return limit, true
}

func attemptStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrEntryDenied):
		return http.StatusPaymentRequired
	case errors.Is(err, game.ErrInvalidTransition), errors.Is(err, service.ErrAttemptAbandoned):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
