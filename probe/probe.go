// Package probe performs the network round trips that decide whether a
// candidate code resolves anywhere. A probe is two phases: a cheap status
// check without following redirects, then (only for live codes) a full
// redirect-following request to capture the final location.
//
// Two interchangeable backends exist: an in-process HTTP client and an
// external curl invocation. Both honor the same timeout and classify the same
// way; the backend is chosen once per run.
package probe

import (
	"context"
	"fmt"
)

// Result is the outcome of probing one candidate. A transport failure is a
// value here, never an error that escapes into the worker: the candidate is
// simply not a match.
type Result struct {
	Code       string
	Valid      bool   // status in [200,400) and a final URL was obtained
	FinalURL   string // resolved location after redirects; empty when invalid
	StatusCode int    // first-phase status; 0 on transport error
	Err        error  // transport error, recorded for diagnostics only
}

// Prober checks one candidate code. Implementations must be safe for
// concurrent use by all pool workers.
type Prober interface {
	Probe(ctx context.Context, code string) Result
	Name() string
}

// URL templates a candidate code into the probe target.
func URL(base, code string) string {
	return base + code
}

// validStatus reports whether a first-phase status keeps the candidate alive.
// 2XX and 3XX both count; dead codes answer 4XX and skip the second phase.
func validStatus(status int) bool {
	return status >= 200 && status < 400
}

func transportFailure(code string, err error) Result {
	return Result{Code: code, Err: fmt.Errorf("probe: %w", err)}
}
