package archive

import (
	"path/filepath"
	"testing"
	"time"

	"laddoohunt/config"
	"laddoohunt/match"
)

func testConfig(t *testing.T) config.ArchiveConfig {
	t.Helper()
	return config.ArchiveConfig{
		Enabled:         true,
		DBPath:          filepath.Join(t.TempDir(), "matches.db"),
		QueueSize:       10,
		BatchSize:       2,
		BatchIntervalMS: 50,
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	w, err := NewWriter(testConfig(t))
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	w.Start()

	w.Enqueue(match.New("AbC123", "https://gpay.app.goo.gl/AbC123",
		"https://pay.google.com/?c=iplladdoo2025&t=sparky",
		[]string{"iplladdoo2025", "socialTitle=Psst"}, "Sparky"))
	w.Enqueue(match.New("dEf456", "https://gpay.app.goo.gl/dEf456",
		"https://pay.google.com/?c=iplladdoo2025&t=zen",
		[]string{"iplladdoo2025"}, "Zen"))

	var got []*match.Match
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		got, err = w.Recent(10)
		if err != nil {
			t.Fatalf("recent: %v", err)
		}
		if len(got) == 2 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 archived matches, got %d", len(got))
	}

	found := map[string]*match.Match{}
	for _, m := range got {
		found[m.Code] = m
	}
	sparky, ok := found["AbC123"]
	if !ok {
		t.Fatalf("AbC123 missing from archive: %+v", got)
	}
	if sparky.Category != "Sparky" {
		t.Fatalf("unexpected category %q", sparky.Category)
	}
	if len(sparky.Patterns) != 2 || sparky.Patterns[0] != "iplladdoo2025" {
		t.Fatalf("patterns not round-tripped: %v", sparky.Patterns)
	}

	w.Stop()
}

func TestArchiveRecentLimitZero(t *testing.T) {
	w, err := NewWriter(testConfig(t))
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	got, err := w.Recent(0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty slice for limit 0, got %d", len(got))
	}
	w.Stop()
}

func TestArchiveEnqueueDropsWhenFull(t *testing.T) {
	cfg := testConfig(t)
	cfg.QueueSize = 1
	w, err := NewWriter(cfg)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	// Writer not started: the queue can only absorb one entry, the rest must
	// drop without blocking the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			w.Enqueue(match.New("AbC123", "u", "f", nil, "Other"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
	w.Stop()
}
