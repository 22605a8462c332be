package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongPassword = "violet-Orbit-lantern-93"

func TestNewPlayer(t *testing.T) {
	t.Run("valid player", func(t *testing.T) {
		id := uuid.New()
		p, err := NewPlayer(PlayerConfig{ID: id, Username: "maze_runner", PlainPassword: strongPassword})
		require.NoError(t, err)
		assert.Equal(t, id, p.ID)
		assert.Equal(t, "maze_runner", p.Username)
		assert.NotEqual(t, strongPassword, p.PasswordHash)
		assert.True(t, p.VerifyPassword(strongPassword))
		assert.False(t, p.VerifyPassword("wrong"))
	})

	t.Run("missing id is generated", func(t *testing.T) {
		p, err := NewPlayer(PlayerConfig{Username: "runner", PlainPassword: strongPassword})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, p.ID)
	})

	t.Run("invalid usernames", func(t *testing.T) {
		for name, want := range map[string]error{
			"ab":                        ErrUsernameTooShort,
			"a_very_long_username_0001": ErrUsernameTooLong,
			"bad name":                  ErrInvalidUsernameChars,
		} {
			_, err := NewPlayer(PlayerConfig{Username: name, PlainPassword: strongPassword})
			assert.ErrorIs(t, err, want, name)
		}
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := NewPlayer(PlayerConfig{Username: "runner", PlainPassword: "password"})
		assert.ErrorIs(t, err, ErrWeakPassword)
	})
}
