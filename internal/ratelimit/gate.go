// Package ratelimit throttles repeated actions from hot paths, keeping the
// worker pool's progress logging to one line per interval.
package ratelimit

import (
	"sync/atomic"
	"time"
)

// Gate grants at most one Allow per interval. Safe for concurrent use by
// every pool worker; exactly one contending caller wins each window.
type Gate struct {
	interval time.Duration
	last     atomic.Int64
}

// NewGate returns a gate for the given interval. A zero or negative interval
// always allows.
func NewGate(interval time.Duration) *Gate {
	return &Gate{interval: interval}
}

// Allow reports whether the caller may act now. A grant opens a new window;
// losers of the CAS race are denied along with everyone inside the window.
func (g *Gate) Allow() bool {
	if g == nil {
		return false
	}
	if g.interval <= 0 {
		return true
	}
	now := time.Now().UnixNano()
	last := g.last.Load()
	if now-last < g.interval.Nanoseconds() {
		return false
	}
	return g.last.CompareAndSwap(last, now)
}
