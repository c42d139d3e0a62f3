// Package match defines the canonical confirmed-match record shared by the
// worker pool, result sink, archive, and notifier.
package match

import (
	"fmt"
	"time"
)

// Match is one confirmed reward link. Immutable once built: it is persisted
// to the match log and handed to the notifier exactly once, keyed by URL.
type Match struct {
	Code     string    // the probed candidate
	URL      string    // the short link that was probed
	FinalURL string    // resolved location after redirects
	Patterns []string  // required patterns found, in pattern-list order
	Category string    // reward type label, or "Other"
	FoundAt  time.Time // when classification succeeded
}

// New builds a match stamped with the current time.
func New(code, url, finalURL string, patterns []string, category string) *Match {
	return &Match{
		Code:     code,
		URL:      url,
		FinalURL: finalURL,
		Patterns: patterns,
		Category: category,
		FoundAt:  time.Now().UTC(),
	}
}

// Key is the dedup key: the full short URL, so dedup is per confirmed match
// rather than per probed candidate.
func (m *Match) Key() string {
	return m.URL
}

// Line renders the append-only match log format.
func (m *Match) Line() string {
	return fmt.Sprintf("%s -> %s (Laddoo Type: %s)", m.URL, m.FinalURL, m.Category)
}
