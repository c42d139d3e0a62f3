// Package sink durably records confirmed matches. A single background writer
// drains a submission queue, batches lines, and appends them to the match
// log; the dedup tracker guarantees a given match key is written and notified
// at most once per run. The log is append-only and never rewritten in place.
package sink

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"laddoohunt/dedup"
	"laddoohunt/match"
	"laddoohunt/stats"
)

// Notifier receives each newly persisted match. Calls are fire-and-forget;
// implementations must swallow their own failures.
type Notifier interface {
	NotifyMatch(m *match.Match)
}

// Archiver receives each newly persisted match for secondary storage.
type Archiver interface {
	Enqueue(m *match.Match)
}

// Writer batches confirmed matches and flushes them to the match log when
// the batch fills or the flush timer fires. Submit is safe from all pool
// workers concurrently; writes are serialized by the single run goroutine.
type Writer struct {
	path          string
	batchSize     int
	flushInterval time.Duration
	tracker       *dedup.Tracker
	counters      *stats.Tracker
	notifier      Notifier
	archiver      Archiver

	queue chan *match.Match
	done  chan struct{}
}

// NewWriter builds a sink writing to path. Either notifier or archiver may
// be nil. Call Start to begin draining and Stop to flush and shut down.
func NewWriter(path string, batchSize int, flushInterval time.Duration, tracker *dedup.Tracker, counters *stats.Tracker, notifier Notifier, archiver Archiver) *Writer {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 2 * time.Second
	}
	return &Writer{
		path:          path,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		tracker:       tracker,
		counters:      counters,
		notifier:      notifier,
		archiver:      archiver,
		queue:         make(chan *match.Match, 1000),
		done:          make(chan struct{}),
	}
}

// Start launches the background writer.
func (w *Writer) Start() {
	go w.run()
}

// Submit hands a confirmed match to the writer. Duplicate keys are dropped
// silently inside the run loop.
func (w *Writer) Submit(m *match.Match) {
	if m == nil {
		return
	}
	w.queue <- m
}

// Stop submits the shutdown sentinel, forcing a final flush, and waits for
// the background writer to exit.
func (w *Writer) Stop() {
	w.queue <- nil
	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)

	batch := make([]*match.Match, 0, w.batchSize)
	timer := time.NewTimer(w.flushInterval)
	defer timer.Stop()

	for {
		select {
		case m := <-w.queue:
			if m == nil {
				// Shutdown sentinel: flush whatever is pending and exit.
				w.flush(batch)
				return
			}
			if !w.tracker.MarkIfNew(m.Key()) {
				continue
			}
			if w.counters != nil {
				w.counters.IncrementMatches()
			}
			batch = append(batch, m)
			if len(batch) >= w.batchSize {
				w.flush(batch)
				batch = batch[:0]
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(w.flushInterval)
			}
		case <-timer.C:
			if len(batch) > 0 {
				w.flush(batch)
				batch = batch[:0]
			}
			timer.Reset(w.flushInterval)
		}
	}
}

// flush appends the batch to the match log and fans each match out to the
// archive and notifier. A write failure costs this batch's durable copy but
// never the run.
func (w *Writer) flush(batch []*match.Match) {
	if len(batch) == 0 {
		return
	}
	if err := w.append(batch); err != nil {
		log.Printf("Sink: match log write failed: %v", err)
	}
	for _, m := range batch {
		if w.archiver != nil {
			w.archiver.Enqueue(m)
		}
		if w.notifier != nil {
			w.notifier.NotifyMatch(m)
		}
	}
}

func (w *Writer) append(batch []*match.Match) error {
	if dir := filepath.Dir(w.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("sink: mkdir: %w", err)
		}
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("sink: open: %w", err)
	}
	defer f.Close()
	for _, m := range batch {
		if _, err := f.WriteString(m.Line() + "\n"); err != nil {
			return fmt.Errorf("sink: write: %w", err)
		}
	}
	return nil
}
