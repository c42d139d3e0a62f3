package probe

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"
)

// HTTPProber probes with the in-process HTTP client. Two clients share one
// transport: the head client never follows redirects (first phase), the get
// client follows them to the final location (second phase).
type HTTPProber struct {
	base    string
	timeout time.Duration
	head    *http.Client
	get     *http.Client
}

// NewHTTPProber builds the library-backed prober. The timeout bounds each
// request individually, matching the curl backend's --max-time semantics.
func NewHTTPProber(base string, timeout time.Duration) *HTTPProber {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &HTTPProber{
		base:    base,
		timeout: timeout,
		head: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		get: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// Name identifies the backend in logs and the startup summary.
func (p *HTTPProber) Name() string { return "http" }

// Probe runs the two-phase check for one code.
func (p *HTTPProber) Probe(ctx context.Context, code string) Result {
	target := URL(p.base, code)

	status, err := p.statusCheck(ctx, target)
	if err != nil {
		log.Printf("Probe: status check for %s failed: %v", target, err)
		return transportFailure(code, err)
	}
	if !validStatus(status) {
		return Result{Code: code, StatusCode: status}
	}

	finalURL, err := p.resolve(ctx, target)
	if err != nil {
		log.Printf("Probe: resolve for %s failed: %v", target, err)
		return transportFailure(code, err)
	}
	return Result{Code: code, Valid: true, FinalURL: finalURL, StatusCode: status}
}

// statusCheck issues a HEAD request without following redirects and returns
// the raw status code.
func (p *HTTPProber) statusCheck(ctx context.Context, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := p.head.Do(req)
	if err != nil {
		return 0, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode, nil
}

// resolve follows redirects and returns the final URL the request landed on.
func (p *HTTPProber) resolve(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.get.Do(req)
	if err != nil {
		return "", err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.Request.URL.String(), nil
}
