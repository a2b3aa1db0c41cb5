package testutil

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// TestAddress returns a deterministic 32-byte hex address for index i,
// normalized the same way the service normalizes caller input.
func TestAddress(i int) string {
	suffix := fmt.Sprintf("%x", i)
	return "0x" + strings.Repeat("0", 64-len(suffix)) + suffix
}

// Clock is a manually advanced clock for staleness tests. Its Now method is
// injected in place of time.Now so tests can cross fresh/stale/expired
// boundaries without sleeping.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock frozen at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
