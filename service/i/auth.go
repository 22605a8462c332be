package i

import (
	"context"

	"github.com/beka-birhanu/maze-arcade/identity"
)

type Authenticator interface {
	Register(ctx context.Context, username, password string) (*identity.Player, error)
	SignIn(ctx context.Context, username, password string) (*identity.Player, string, error)
}
