// Package clock provides time sources for token buckets.
//
// System reads the wall clock and is what production code uses. Manual is a
// settable clock for deterministic tests: time only moves when the test says so.
//
//	clk := clock.NewManual(time.Unix(0, 0))
//	bucket, _ := tokenbucket.New(ctx, gw, "crawler.maxCrawlCount", 10, 24*time.Hour, clk)
//	bucket.TryConsume(ctx, 10)
//	clk.Advance(24 * time.Hour) // next call refills
package clock

import (
	"fmt"
	"sync"
	"time"
)

// System reads the current time from the operating system.
// The zero value is ready to use and safe for concurrent use.
type System struct{}

// NewSystem returns a wall clock.
func NewSystem() System {
	return System{}
}

// Now returns time.Now().
func (System) Now() time.Time {
	return time.Now()
}

// Manual is a controllable clock for tests. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual creates a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual time.
func (c *Manual) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set jumps to an absolute instant. It may move time backwards.
func (c *Manual) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d. Negative durations are rejected.
func (c *Manual) Advance(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("advance must be >= 0, got: %v", d)
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}
