package identity

import (
	"errors"
	"net/http"

	dmn "github.com/beka-birhanu/maze-arcade/identity"
	"github.com/beka-birhanu/maze-arcade/service"
	"github.com/beka-birhanu/maze-arcade/service/i"
	"github.com/gin-gonic/gin"
)

// IdentityServer handles HTTP requests related to authentication.
type IdentityServer struct {
	authService i.Authenticator
}

// NewIdentityServer creates a new IdentityServer.
func NewIdentityServer(a i.Authenticator) *IdentityServer {
	return &IdentityServer{
		authService: a,
	}
}

// RegisterPublic registers public routes.
func (c *IdentityServer) RegisterPublic(route *gin.RouterGroup) {
	auth := route.Group("/auth")
	{
		auth.POST("/register", c.registerPlayer)
		auth.POST("/login", c.login)
	}
}

// RegisterProtected registers privileged routes.
func (c *IdentityServer) RegisterProtected(route *gin.RouterGroup) {
}

// registerPlayer handles player registration.
func (c *IdentityServer) registerPlayer(ctx *gin.Context) {
	var request AuthRequest

	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, err := c.authService.Register(ctx.Request.Context(), request.Username, request.Password)
	if err != nil {
		ctx.JSON(registerStatus(err), gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, &RegisterResponse{
		ID:       player.ID.String(),
		Username: player.Username,
		Message:  "Player registered successfully",
	})
}

// login handles player login.
func (c *IdentityServer) login(ctx *gin.Context) {
	var request AuthRequest

	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, token, err := c.authService.SignIn(ctx.Request.Context(), request.Username, request.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error while signing in"})
		return
	}

	response := &AuthResponse{
		ID:       player.ID.String(),
		Username: player.Username,
		Token:    token,
	}
	ctx.JSON(http.StatusOK, response)
}

func registerStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, dmn.ErrUsernameTooShort),
		errors.Is(err, dmn.ErrUsernameTooLong),
		errors.Is(err, dmn.ErrInvalidUsernameChars),
		errors.Is(err, dmn.ErrWeakPassword):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
