// Package vclocktest provides a manually advanced [vclock.Clock]
// so scheduler behavior can be tested without real sleeps.
package vclocktest

import (
	"slices"
	"sync"
	"time"
)

// ManualClock is a [vclock.Clock] whose time only moves
// through explicit calls to [*ManualClock.Advance].
//
// Methods on ManualClock are safe for concurrent use.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*waiter
}

type waiter struct {
	at time.Time
	ch chan time.Time
}

// NewManualClock returns a clock frozen at the given instant.
func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) After(d time.Duration) (<-chan time.Time, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w := &waiter{
		at: c.now.Add(d),
		ch: make(chan time.Time, 1),
	}

	if d <= 0 {
		// Matches real timer behavior: non-positive durations fire immediately.
		w.ch <- c.now
		return w.ch, func() {}
	}

	c.waiters = append(c.waiters, w)

	return w.ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if i := slices.Index(c.waiters, w); i >= 0 {
			c.waiters = slices.Delete(c.waiters, i, i+1)
		}
	}
}

// WaiterCount reports how many timers are currently pending.
// Tests poll it to know a goroutine has parked on the clock
// before calling [*ManualClock.Advance].
func (c *ManualClock) WaiterCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// Advance moves the clock forward by d,
// firing every waiter whose deadline has been reached.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)

	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if w.at.After(c.now) {
			remaining = append(remaining, w)
			continue
		}
		w.ch <- w.at
	}
	c.waiters = remaining
}
