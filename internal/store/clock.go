package store

import (
	"sync/atomic"
	"time"
)

// Clock is a cached millisecond-resolution time source, updated once per
// scheduler tick instead of calling time.Now on every access (§4.1, §9).
// Commands read NowMillis; only the scheduler calls Tick.
type Clock struct {
	millis atomic.Int64
}

// NewClock returns a Clock seeded with the current wall-clock time.
func NewClock() *Clock {
	c := &Clock{}
	c.Tick()
	return c
}

// Tick refreshes the cached time from time.Now.
func (c *Clock) Tick() {
	c.millis.Store(time.Now().UnixMilli())
}

// NowMillis returns the most recently cached time, in unix milliseconds.
func (c *Clock) NowMillis() int64 {
	return c.millis.Load()
}
