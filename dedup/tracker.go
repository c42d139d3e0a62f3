// Package dedup implements a shard-locked tracker that guarantees each
// confirmed match is reported at most once per run. Keys are the full
// candidate URLs, hashed with xxh3; the set only grows, bounded by the number
// of matches found rather than candidates probed.
package dedup

import (
	"sync"

	"github.com/zeebo/xxh3"
)

// shardCount must remain a power of two so shard selection is a bit mask.
const shardCount = 16

// Tracker records match keys that have already been persisted/notified.
type Tracker struct {
	shards []trackerShard
}

type trackerShard struct {
	mu         sync.Mutex
	seen       map[uint64]struct{}
	marked     uint64
	suppressed uint64
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	shards := make([]trackerShard, shardCount)
	for i := range shards {
		shards[i].seen = make(map[uint64]struct{})
	}
	return &Tracker{shards: shards}
}

// MarkIfNew atomically tests-and-inserts the key. It returns true the first
// time a key is seen; callers then persist and notify. Every later call with
// the same key returns false and the result must be dropped silently.
func (t *Tracker) MarkIfNew(key string) bool {
	hash := xxh3.HashString(key)
	shard := &t.shards[hash&(shardCount-1)]

	shard.mu.Lock()
	defer shard.mu.Unlock()
	if _, ok := shard.seen[hash]; ok {
		shard.suppressed++
		return false
	}
	shard.seen[hash] = struct{}{}
	shard.marked++
	return true
}

// Seen reports whether the key was already marked, without inserting it.
func (t *Tracker) Seen(key string) bool {
	hash := xxh3.HashString(key)
	shard := &t.shards[hash&(shardCount-1)]
	shard.mu.Lock()
	defer shard.mu.Unlock()
	_, ok := shard.seen[hash]
	return ok
}

// Stats returns how many keys were marked and how many repeats were suppressed.
func (t *Tracker) Stats() (marked, suppressed uint64) {
	for i := range t.shards {
		shard := &t.shards[i]
		shard.mu.Lock()
		marked += shard.marked
		suppressed += shard.suppressed
		shard.mu.Unlock()
	}
	return marked, suppressed
}

// Len returns the number of distinct keys tracked.
func (t *Tracker) Len() int {
	n := 0
	for i := range t.shards {
		shard := &t.shards[i]
		shard.mu.Lock()
		n += len(shard.seen)
		shard.mu.Unlock()
	}
	return n
}
