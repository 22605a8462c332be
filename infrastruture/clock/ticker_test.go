package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicker(t *testing.T) {
	tk := NewTicker(5 * time.Millisecond)
	defer tk.Stop()

	select {
	case <-tk.C():
	case <-time.After(time.Second):
		require.FailNow(t, "ticker never fired")
	}

	t.Run("non-positive interval defaults to a second", func(t *testing.T) {
		slow := NewTicker(0)
		defer slow.Stop()
		select {
		case <-slow.C():
			assert.Fail(t, "fired before a second")
		case <-time.After(20 * time.Millisecond):
		}
	})
}
