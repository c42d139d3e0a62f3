package dedup

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestMarkIfNewFirstWins(t *testing.T) {
	tr := NewTracker()
	const key = "https://gpay.app.goo.gl/AbC123"

	if !tr.MarkIfNew(key) {
		t.Fatal("first MarkIfNew must return true")
	}
	if tr.MarkIfNew(key) {
		t.Fatal("second MarkIfNew with the same key must return false")
	}
	if !tr.Seen(key) {
		t.Fatal("Seen must report a marked key")
	}

	marked, suppressed := tr.Stats()
	if marked != 1 || suppressed != 1 {
		t.Fatalf("expected 1 marked / 1 suppressed, got %d / %d", marked, suppressed)
	}
}

func TestMarkIfNewConcurrent(t *testing.T) {
	tr := NewTracker()
	const workers = 20
	const keys = 200

	var wins atomic.Uint64
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for k := 0; k < keys; k++ {
				if tr.MarkIfNew(fmt.Sprintf("https://gpay.app.goo.gl/key-%03d", k)) {
					wins.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	// Exactly one winner per key regardless of interleaving.
	if got := wins.Load(); got != keys {
		t.Fatalf("expected %d unique wins, got %d", keys, got)
	}
	if tr.Len() != keys {
		t.Fatalf("expected %d tracked keys, got %d", keys, tr.Len())
	}
}

func TestTrackerNeverShrinks(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 100; i++ {
		tr.MarkIfNew(fmt.Sprintf("k%d", i))
	}
	before := tr.Len()
	for i := 0; i < 100; i++ {
		tr.MarkIfNew(fmt.Sprintf("k%d", i))
	}
	if tr.Len() != before {
		t.Fatalf("re-marking existing keys changed the set size: %d -> %d", before, tr.Len())
	}
}
