// Package clock provides the wall-clock tick source of session loops.
package clock

import "time"

// Ticker is an i.Clock backed by time.Ticker.
type Ticker struct {
	ticker *time.Ticker
}

// NewTicker starts a Ticker firing every interval. Non-positive intervals
// default to one second.
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{ticker: time.NewTicker(interval)}
}

func (t *Ticker) C() <-chan time.Time { return t.ticker.C }

func (t *Ticker) Stop() { t.ticker.Stop() }
