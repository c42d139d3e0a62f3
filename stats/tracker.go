// Package stats tracks run counters for the probing pipeline. The processed
// counter is the same abstraction the checkpoint persists, so concurrent
// worker increments and periodic saves never lose updates.
package stats

import (
	"sync/atomic"
	"time"
)

// Tracker holds the run's counters. All fields are atomics so per-candidate
// increments from the worker pool don't fight over a mutex.
type Tracker struct {
	processed   atomic.Uint64
	valid       atomic.Uint64
	matches     atomic.Uint64
	probeErrors atomic.Uint64
	partial     atomic.Uint64
	start       atomic.Int64
}

// NewTracker creates a tracker with the processed counter rehydrated from a
// checkpoint (zero on a fresh start).
func NewTracker(initialProcessed uint64) *Tracker {
	t := &Tracker{}
	t.processed.Store(initialProcessed)
	t.start.Store(time.Now().UnixNano())
	return t
}

// IncrementProcessed counts one dequeued candidate and returns the new total.
func (t *Tracker) IncrementProcessed() uint64 {
	return t.processed.Add(1)
}

// Processed returns the total candidates processed, including any carried
// over from the loaded checkpoint.
func (t *Tracker) Processed() uint64 {
	return t.processed.Load()
}

// IncrementValid counts a candidate that passed the status check.
func (t *Tracker) IncrementValid() {
	t.valid.Add(1)
}

// Valid returns how many candidates resolved at all.
func (t *Tracker) Valid() uint64 {
	return t.valid.Load()
}

// IncrementMatches counts a confirmed match.
func (t *Tracker) IncrementMatches() {
	t.matches.Add(1)
}

// Matches returns the number of confirmed matches.
func (t *Tracker) Matches() uint64 {
	return t.matches.Load()
}

// IncrementProbeErrors counts a transport failure.
func (t *Tracker) IncrementProbeErrors() {
	t.probeErrors.Add(1)
}

// ProbeErrors returns the number of transport failures.
func (t *Tracker) ProbeErrors() uint64 {
	return t.probeErrors.Load()
}

// IncrementPartial counts a candidate that resolved but missed at least one
// required pattern.
func (t *Tracker) IncrementPartial() {
	t.partial.Add(1)
}

// Partial returns the number of partial matches observed.
func (t *Tracker) Partial() uint64 {
	return t.partial.Load()
}

// Uptime returns how long the tracker has been running.
func (t *Tracker) Uptime() time.Duration {
	return time.Since(time.Unix(0, t.start.Load()))
}
