package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beka-birhanu/maze-arcade/identity"
	"github.com/beka-birhanu/maze-arcade/service/i"
	"github.com/google/uuid"
)

const tokenLifetime = 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = identity.ErrUsernameTaken
)

// AuthConfig holds the collaborators of Auth.
type AuthConfig struct {
	PlayerRepo     i.PlayerRepo
	Tokenizer      i.Tokenizer
	Ledger         i.Ledger // Optional; credits StarterCredits on registration.
	StarterCredits int64
	Logger         i.Logger
}

type Auth struct {
	playerRepo     i.PlayerRepo
	tokenizer      i.Tokenizer
	ledger         i.Ledger
	starterCredits int64
	logger         i.Logger
}

func NewAuth(c *AuthConfig) (*Auth, error) {
	if c == nil || c.PlayerRepo == nil || c.Tokenizer == nil {
		return nil, errors.New("player repo and tokenizer are required")
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
	return &Auth{
		playerRepo:     c.PlayerRepo,
		tokenizer:      c.Tokenizer,
		ledger:         c.Ledger,
		starterCredits: c.StarterCredits,
		logger:         c.Logger,
	}, nil
}

func (a *Auth) Register(ctx context.Context, username, password string) (*identity.Player, error) {
	if _, err := a.playerRepo.ByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	}

	player, err := identity.NewPlayer(identity.PlayerConfig{
		ID:            uuid.New(),
		Username:      username,
		PlainPassword: password,
	})
	if err != nil {
		return nil, err
	}

	if err := a.playerRepo.Save(ctx, player); err != nil {
		return nil, err
	}

	if a.ledger != nil && a.starterCredits > 0 {
		// Registration stands even if the starter deposit fails.
		if _, err := a.ledger.Deposit(ctx, player.ID, a.starterCredits); err != nil {
			a.logger.Error(fmt.Sprintf("starter credits for player %s: %s", player.ID, err))
		}
	}

	a.logger.Info(fmt.Sprintf("registered player %s", player.Username))
	return player, nil
}

func (a *Auth) SignIn(ctx context.Context, username, password string) (*identity.Player, string, error) {
	player, err := a.playerRepo.ByUsername(ctx, username)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if !player.VerifyPassword(password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := a.tokenizer.Generate(player.ID, player.Username, tokenLifetime)
	if err != nil {
		return nil, "", err
	}

	return player, token, nil
}
