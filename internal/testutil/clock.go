// Package testutil provides deterministic helpers shared by tests:
// a controllable wall clock for commitment expiry and fixed Ed25519
// keypairs derived from single-byte seeds.
package testutil

import (
	"sync"
	"time"
)

// FakeClock is a controllable time source for tests.
//
// Unlike the system clock, FakeClock only moves when Advance or Set is
// called, so expiry behavior is exact rather than sleep-based.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock fixed at the given instant.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the clock's current instant.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to an absolute instant.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
