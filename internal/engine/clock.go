package engine

import "sync/atomic"

// Clock issues the strictly increasing seq numbers that stamp query
// executions. Ordering is logical, not wall-clock: the persisted
// execution log replays in seq order no matter when entries were
// written. Safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming from a persisted sequence number.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number. Each call returns a unique,
// increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the latest issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
