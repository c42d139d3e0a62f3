package sink

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"laddoohunt/dedup"
	"laddoohunt/match"
	"laddoohunt/stats"
)

type captureNotifier struct {
	mu      sync.Mutex
	matches []*match.Match
}

func (c *captureNotifier) NotifyMatch(m *match.Match) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.matches = append(c.matches, m)
}

func (c *captureNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.matches)
}

func newMatch(code string) *match.Match {
	return match.New(code,
		"https://gpay.app.goo.gl/"+code,
		"https://pay.google.com/?c=iplladdoo2025",
		[]string{"iplladdoo2025"}, "Sparky")
}

func TestWriterFlushesOnStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valid.txt")
	notifier := &captureNotifier{}
	tracker := dedup.NewTracker()
	counters := stats.NewTracker(0)

	w := NewWriter(path, 100, time.Hour, tracker, counters, notifier, nil)
	w.Start()
	w.Submit(newMatch("AbC123"))
	w.Submit(newMatch("dEf456"))
	w.Stop()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read match log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines after final flush, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "-> https://pay.google.com/?c=iplladdoo2025 (Laddoo Type: Sparky)") {
		t.Fatalf("unexpected line format: %q", lines[0])
	}
	if notifier.count() != 2 {
		t.Fatalf("expected 2 notifications, got %d", notifier.count())
	}
	if counters.Matches() != 2 {
		t.Fatalf("expected 2 counted matches, got %d", counters.Matches())
	}
}

func TestWriterDropsDuplicateKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valid.txt")
	notifier := &captureNotifier{}
	w := NewWriter(path, 100, time.Hour, dedup.NewTracker(), nil, notifier, nil)
	w.Start()
	for i := 0; i < 5; i++ {
		w.Submit(newMatch("AbC123"))
	}
	w.Stop()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read match log: %v", err)
	}
	if got := strings.Count(string(data), "\n"); got != 1 {
		t.Fatalf("duplicate key persisted %d times", got)
	}
	if notifier.count() != 1 {
		t.Fatalf("duplicate key notified %d times", notifier.count())
	}
}

func TestWriterFlushesOnBatchSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valid.txt")
	w := NewWriter(path, 2, time.Hour, dedup.NewTracker(), nil, nil, nil)
	w.Start()
	t.Cleanup(w.Stop)

	w.Submit(newMatch("AbC123"))
	w.Submit(newMatch("dEf456"))

	// The batch threshold, not the (hour-long) timer, must trigger this flush.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil && strings.Count(string(data), "\n") == 2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("batch-size flush did not happen")
}

func TestWriterAppendsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valid.txt")

	first := NewWriter(path, 10, time.Hour, dedup.NewTracker(), nil, nil, nil)
	first.Start()
	first.Submit(newMatch("AbC123"))
	first.Stop()

	// A new run (fresh tracker) must append, never truncate.
	second := NewWriter(path, 10, time.Hour, dedup.NewTracker(), nil, nil, nil)
	second.Start()
	second.Submit(newMatch("dEf456"))
	second.Stop()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read match log: %v", err)
	}
	if got := strings.Count(string(data), "\n"); got != 2 {
		t.Fatalf("expected both runs' lines, got %d", got)
	}
}
