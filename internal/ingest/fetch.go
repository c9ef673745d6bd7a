// Package ingest downloads the published sponsor register and imports
// it into the store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sponsorcheck/sponsorcheck-server/internal/ratelimit"
)

const (
	// Rate limit: 1 request per second per host, burst of 2.
	// The register host is a shared government service.
	defaultRPS   = 1.0
	defaultBurst = 2

	defaultTimeout = 5 * time.Minute
)

// Fetcher is a rate-limited HTTP client for register downloads.
type Fetcher struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// NewFetcher creates a fetcher. A zero timeout uses the default.
func NewFetcher(logger *slog.Logger, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		http: &http.Client{
			Timeout: timeout,
		},
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		logger:  logger,
	}
}

// Close releases resources held by the fetcher.
func (f *Fetcher) Close() {
	f.limiter.Stop()
}

// Get executes a rate-limited GET. The caller owns the response body.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", rawURL, err)
	}

	// Rate limit per host
	if err := f.limiter.Wait(ctx, u.Host); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "sponsorcheck/1.0")

	if f.logger != nil {
		f.logger.Debug("register fetch", "url", rawURL)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	return resp, nil
}
