package framework

import (
	"sync"
	"time"
)

// SystemClock measures monotonic time since it was created.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a SystemClock starting from now.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now implements Clock.
func (c *SystemClock) Now() time.Duration {
	return time.Since(c.start)
}

// ManualClock only advances when told to. Used by simulations
// and tests to step the loop deterministically.
type ManualClock struct {
	now  time.Duration
	lock sync.Mutex
}

// Now implements Clock.
func (c *ManualClock) Now() time.Duration {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *ManualClock) Advance(d time.Duration) time.Duration {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now += d
	return c.now
}
