package probe

import (
	"context"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CurlProber shells out to the curl binary. Some deployments prefer it over
// the in-process client; observable behavior (timeout, redirect handling,
// validity rule) is identical to HTTPProber.
type CurlProber struct {
	base    string
	timeout time.Duration
	binary  string
}

// NewCurlProber builds the curl-backed prober.
func NewCurlProber(base string, timeout time.Duration) *CurlProber {
	return &CurlProber{base: base, timeout: timeout, binary: "curl"}
}

// Name identifies the backend in logs and the startup summary.
func (p *CurlProber) Name() string { return "curl" }

// Available reports whether the curl binary can be found. Callers fall back
// to the HTTP backend when it cannot.
func (p *CurlProber) Available() bool {
	_, err := exec.LookPath(p.binary)
	return err == nil
}

// Probe runs the two-phase check for one code via curl.
func (p *CurlProber) Probe(ctx context.Context, code string) Result {
	target := URL(p.base, code)

	out, err := p.run(ctx, "-o", "/dev/null", "-s", "-w", "%{http_code}", target)
	if err != nil {
		log.Printf("Probe: curl status check for %s failed: %v", target, err)
		return transportFailure(code, err)
	}
	status, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		log.Printf("Probe: curl returned unparsable status %q for %s", out, target)
		return transportFailure(code, err)
	}
	if !validStatus(status) {
		return Result{Code: code, StatusCode: status}
	}

	out, err = p.run(ctx, "-Ls", "-o", "/dev/null", "-w", "%{url_effective}", target)
	if err != nil {
		log.Printf("Probe: curl resolve for %s failed: %v", target, err)
		return transportFailure(code, err)
	}
	finalURL := strings.TrimSpace(out)
	if finalURL == "" {
		return Result{Code: code, StatusCode: status}
	}
	return Result{Code: code, Valid: true, FinalURL: finalURL, StatusCode: status}
}

func (p *CurlProber) run(ctx context.Context, args ...string) (string, error) {
	runCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	out, err := exec.CommandContext(runCtx, p.binary, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
