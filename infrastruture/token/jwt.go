package token

import (
	"errors"
	"time"

	"github.com/beka-birhanu/maze-arcade/service/i"
	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidIssuer = errors.New("token issued by another issuer")
)

const (
	playerIDClaim = "playerID"
	usernameClaim = "username"
)

// JwtService handles JWT operations.
// Implements i.Tokenizer.
type JwtService struct {
	secretKey string
	issuer    string
}

// NewJwtService creates a new JWT Service with the provided configuration.
func NewJwtService(secretKey, issuer string) i.Tokenizer {
	return &JwtService{
		secretKey: secretKey,
		issuer:    issuer,
	}
}

// Generate creates a JWT for the player that expires after expTime.
func (s *JwtService) Generate(playerID uuid.UUID, username string, expTime time.Duration) (string, error) {
	jwtClaims := jwt.MapClaims{
		"exp":         time.Now().UTC().Add(expTime).Unix(),
		"iss":         s.issuer,
		playerIDClaim: playerID.String(),
		usernameClaim: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims)
	return token.SignedString([]byte(s.secretKey))
}

// Decode parses and validates a JWT, returning the player ID it was issued to.
func (s *JwtService) Decode(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, s.getSigningKey)
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	if !claims.VerifyIssuer(s.issuer, true) {
		return uuid.Nil, ErrInvalidIssuer
	}

	rawID, ok := claims[playerIDClaim].(string)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	playerID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return playerID, nil
}

// getSigningKey returns the signing key for token validation.
func (s *JwtService) getSigningKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return []byte(s.secretKey), nil
}
