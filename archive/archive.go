// Package archive persists confirmed matches to SQLite asynchronously. The
// text match log stays canonical; this is the queryable copy. It is designed
// to be removable: the sink never blocks on the archive, and backpressure
// drops archive writes rather than stalling the pipeline.
package archive

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"laddoohunt/config"
	"laddoohunt/match"

	_ "modernc.org/sqlite"
)

// Writer batches match inserts into SQLite on a background goroutine.
type Writer struct {
	cfg     config.ArchiveConfig
	db      *sql.DB
	queue   chan *match.Match
	stop    chan struct{}
	done    chan struct{}
	started bool
}

// NewWriter opens (or creates) the database and ensures the schema exists;
// call Start to begin processing.
func NewWriter(cfg config.ArchiveConfig) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("archive: mkdir: %w", err)
	}
	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("archive: open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(`pragma journal_mode=WAL; pragma synchronous=NORMAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: pragmas: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	qsize := cfg.QueueSize
	if qsize <= 0 {
		qsize = 1000
	}
	return &Writer{
		cfg:   cfg,
		db:    db,
		queue: make(chan *match.Match, qsize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}, nil
}

// Start launches the insert loop.
func (w *Writer) Start() {
	w.started = true
	go w.insertLoop()
}

// Stop drains the queue, flushes the pending batch, closes the database, and
// waits for the insert loop to exit.
func (w *Writer) Stop() {
	close(w.stop)
	if !w.started {
		_ = w.db.Close()
		return
	}
	<-w.done
}

// Enqueue queues a match for archival without blocking; drops on full queue.
func (w *Writer) Enqueue(m *match.Match) {
	if w == nil || m == nil {
		return
	}
	select {
	case w.queue <- m:
	default:
		log.Printf("Archive: queue full, dropping match %s", m.Code)
	}
}

func (w *Writer) insertLoop() {
	defer close(w.done)
	interval := time.Duration(w.cfg.BatchIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 2 * time.Second
	}
	batch := make([]*match.Match, 0, w.cfg.BatchSize)
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-w.stop:
			for {
				select {
				case m := <-w.queue:
					batch = append(batch, m)
					continue
				default:
				}
				break
			}
			w.flush(batch)
			_ = w.db.Close()
			return
		case m := <-w.queue:
			batch = append(batch, m)
			if len(batch) >= w.cfg.BatchSize {
				w.flush(batch)
				batch = batch[:0]
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(interval)
			}
		case <-timer.C:
			if len(batch) > 0 {
				w.flush(batch)
				batch = batch[:0]
			}
			timer.Reset(interval)
		}
	}
}

func (w *Writer) flush(batch []*match.Match) {
	if len(batch) == 0 {
		return
	}
	tx, err := w.db.Begin()
	if err != nil {
		log.Printf("Archive: begin tx: %v", err)
		return
	}
	stmt, err := tx.Prepare(`insert into matches(code, url, final_url, patterns, category, found_at) values(?,?,?,?,?,?)`)
	if err != nil {
		log.Printf("Archive: prepare: %v", err)
		_ = tx.Rollback()
		return
	}
	for _, m := range batch {
		if m == nil {
			continue
		}
		if _, err := stmt.Exec(
			m.Code,
			m.URL,
			m.FinalURL,
			strings.Join(m.Patterns, ","),
			m.Category,
			m.FoundAt.UTC().Unix(),
		); err != nil {
			log.Printf("Archive: insert failed: %v", err)
		}
	}
	_ = stmt.Close()
	if err := tx.Commit(); err != nil {
		log.Printf("Archive: commit: %v", err)
	}
}

// Recent returns the most recent N archived matches, newest first.
func (w *Writer) Recent(limit int) ([]*match.Match, error) {
	if w == nil || w.db == nil {
		return nil, fmt.Errorf("archive: writer is nil")
	}
	if limit <= 0 {
		return []*match.Match{}, nil
	}
	rows, err := w.db.Query(`select code, url, final_url, patterns, category, found_at from matches order by found_at desc, id desc limit ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: query recent: %w", err)
	}
	defer rows.Close()

	results := make([]*match.Match, 0, limit)
	for rows.Next() {
		var (
			code     string
			url      string
			finalURL string
			patterns string
			category string
			foundAt  int64
		)
		if err := rows.Scan(&code, &url, &finalURL, &patterns, &category, &foundAt); err != nil {
			return nil, fmt.Errorf("archive: scan recent: %w", err)
		}
		m := &match.Match{
			Code:     code,
			URL:      url,
			FinalURL: finalURL,
			Category: category,
			FoundAt:  time.Unix(foundAt, 0).UTC(),
		}
		if patterns != "" {
			m.Patterns = strings.Split(patterns, ",")
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: iterate recent: %w", err)
	}
	return results, nil
}

func ensureSchema(db *sql.DB) error {
	const schema = `
	create table if not exists matches (
		id integer primary key autoincrement,
		code text,
		url text,
		final_url text,
		patterns text,
		category text,
		found_at integer
	);
	create index if not exists idx_matches_found_at on matches(found_at);
	create index if not exists idx_matches_category on matches(category);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("archive: schema: %w", err)
	}
	return nil
}
