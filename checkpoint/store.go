// Package checkpoint persists generator progress (the seen-code set and the
// processed counter) so an interrupted run resumes without re-testing known
// codes. The on-disk record is a single JSON document replaced wholesale on
// every save; matches are not part of the checkpoint.
package checkpoint

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// record is the wire format. The secondary field names accept checkpoints
// written by older builds of the hunter.
type record struct {
	Codes     []string `json:"codes"`
	Counter   uint64   `json:"counter"`
	Timestamp float64  `json:"timestamp"`

	LegacyCodes   []string `json:"processed_codes,omitempty"`
	LegacyCounter uint64   `json:"processed_count,omitempty"`
}

// Store reads and writes the checkpoint file at a fixed path. Saves are
// serialized by an internal mutex: the timer-driven saves and the shutdown
// save never interleave writes.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a store for the given checkpoint path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the canonical checkpoint file location.
func (s *Store) Path() string {
	return s.path
}

// Save atomically replaces the checkpoint file with the given seen-set and
// counter. The record is first written to a temp file in the same directory
// and then renamed over the canonical path, so a crash mid-save leaves either
// the old record or the new one, never a truncated file.
func (s *Store) Save(codes map[string]struct{}, counter uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]string, 0, len(codes))
	for code := range codes {
		list = append(list, code)
	}
	sort.Strings(list)

	data, err := json.Marshal(record{
		Codes:     list,
		Counter:   counter,
		Timestamp: float64(time.Now().UTC().UnixNano()) / float64(time.Second),
	})
	if err != nil {
		return fmt.Errorf("checkpoint: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("checkpoint: mkdir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("checkpoint: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("checkpoint: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("checkpoint: finalize temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("checkpoint: replace file: %w", err)
	}
	return nil
}

// Load reads the checkpoint. A missing file is a fresh start (empty set, zero
// counter, nil error). A corrupt or partial file is logged and likewise
// treated as empty: losing a checkpoint only costs re-tested codes, never the
// run.
func (s *Store) Load() (map[string]struct{}, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]struct{}), 0, nil
		}
		log.Printf("Checkpoint: read %s failed, starting fresh: %v", s.path, err)
		return make(map[string]struct{}), 0, nil
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("Checkpoint: %s is corrupt, starting fresh: %v", s.path, err)
		return make(map[string]struct{}), 0, nil
	}

	list := rec.Codes
	if len(list) == 0 {
		list = rec.LegacyCodes
	}
	counter := rec.Counter
	if counter == 0 {
		counter = rec.LegacyCounter
	}

	codes := make(map[string]struct{}, len(list))
	for _, code := range list {
		codes[code] = struct{}{}
	}
	return codes, counter, nil
}
