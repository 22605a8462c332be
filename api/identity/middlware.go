package identity

import (
	"net/http"
	"strings"

	"github.com/beka-birhanu/maze-arcade/service/i"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ContextPlayerID is the key used to store the authenticated player ID in the Gin context.
	ContextPlayerID = "playerID"

	// tokenQueryParam carries the token for clients that cannot set headers, e.g. browser websockets.
	tokenQueryParam = "token"
)

func Authoriz(ts i.Tokenizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		playerID, err := ts.Decode(token)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		// Attach the player to the request context for further use.
		c.Set(ContextPlayerID, playerID)
		c.Next()
	}
}

// PlayerID returns the player attached by Authoriz.
func PlayerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextPlayerID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// bearerToken reads the token from the Authorization header, falling back
// to the token query parameter.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		token := c.Query(tokenQueryParam)
		return token, token != ""
	}

	// Split the "Bearer" prefix from the token.
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
