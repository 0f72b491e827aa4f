package driver

import (
	"sync/atomic"
	"time"
)

// Ticker delivers mark times to Run.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TimeProvider supplies Run with its start time and mark ticker.
type TimeProvider interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// SystemClock is the wall-clock TimeProvider used outside tests.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// NewTicker starts a wall-clock ticker with period d.
func (SystemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{ticker: time.NewTicker(d)}
}

type systemTicker struct {
	ticker *time.Ticker
}

func (s systemTicker) C() <-chan time.Time {
	return s.ticker.C
}

func (s systemTicker) Stop() {
	s.ticker.Stop()
}

// ChannelTicker replays mark times sent on Marks. The sender owns the channel:
// Stop only records that Run is done with it and never closes it.
type ChannelTicker struct {
	Marks   chan time.Time
	stopped atomic.Bool
}

// NewChannelTicker returns a ticker preloaded with marks. When closed is set
// the channel is closed after the last mark, which ends Run cleanly.
func NewChannelTicker(closed bool, marks ...time.Time) *ChannelTicker {
	ch := make(chan time.Time, len(marks))
	for _, mark := range marks {
		ch <- mark
	}

	if closed {
		close(ch)
	}

	return &ChannelTicker{Marks: ch}
}

// C returns the mark channel.
func (c *ChannelTicker) C() <-chan time.Time {
	return c.Marks
}

// Stop marks the ticker stopped.
func (c *ChannelTicker) Stop() {
	c.stopped.Store(true)
}

// Stopped reports whether Stop was called.
func (c *ChannelTicker) Stopped() bool {
	return c.stopped.Load()
}
