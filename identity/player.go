// Package identity holds the player account model and its validation rules.
package identity

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/nbutton23/zxcvbn-go"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordStrengthScore = 3

	usernamePattern   = `^[a-zA-Z0-9_]+$` // Alphanumeric with underscores
	minUsernameLength = 3
	maxUsernameLength = 20

	bcryptCost = 12
)

var (
	usernameRegex = regexp.MustCompile(usernamePattern)

	ErrUsernameTooShort     = errors.New("username too short")
	ErrUsernameTooLong      = errors.New("username too long")
	ErrInvalidUsernameChars = errors.New("invalid username format")
	ErrWeakPassword         = errors.New("weak password")

	// ErrUsernameTaken is returned by stores and services alike when the
	// username already belongs to another player.
	ErrUsernameTaken = errors.New("username already taken")
)

// Player is an arcade account as stored in the database.
type Player struct {
	ID           uuid.UUID `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"passwordHash"`
	CreatedAt    time.Time `bson:"createdAt"`
}

// PlayerConfig holds the parameters for creating a Player from a plain password.
type PlayerConfig struct {
	ID            uuid.UUID
	Username      string
	PlainPassword string
}

// NewPlayer validates the configuration and creates a Player with a hashed password.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validateUsername(config.Username); err != nil {
		return nil, err
	}

	if err := validatePassword(config.PlainPassword); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(config.PlainPassword), bcryptCost)
	if err != nil {
		return nil, err
	}

	id := config.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	return &Player{
		ID:           id,
		Username:     config.Username,
		PasswordHash: string(passwordHash),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// VerifyPassword verifies if the given password matches the stored hash.
func (p *Player) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) == nil
}

func validateUsername(username string) error {
	if len(username) < minUsernameLength {
		return ErrUsernameTooShort
	}
	if len(username) > maxUsernameLength {
		return ErrUsernameTooLong
	}
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsernameChars
	}
	return nil
}

// validatePassword rejects passwords zxcvbn scores below the minimum.
func validatePassword(password string) error {
	if zxcvbn.PasswordStrength(password, nil).Score < minPasswordStrengthScore {
		return ErrWeakPassword
	}
	return nil
}
