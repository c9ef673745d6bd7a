// Package client is the HTTP client side of the sponsor service: it
// calls the search, upsert, and telemetry RPCs with bounded retries.
package client

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sponsorcheck/sponsorcheck-server/internal/domain"
	"github.com/sponsorcheck/sponsorcheck-server/internal/errors"
)

// retryDelays is the backoff schedule between attempts. A call is
// retried only on transport errors and 5xx responses; any 4xx is a
// definitive answer and returned immediately.
var retryDelays = []time.Duration{
	300 * time.Millisecond,
	900 * time.Millisecond,
	1800 * time.Millisecond,
}

const defaultTimeout = 30 * time.Second

// Client calls the sponsor service RPCs.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a client against baseURL (no trailing slash required).
func New(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// SearchRequest is the search RPC payload.
type SearchRequest struct {
	Query               string  `json:"query"`
	ClientKey           string  `json:"client_key"`
	LimitCount          int     `json:"limit_count,omitempty"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`
	LimitPerHour        int     `json:"limit_per_hour,omitempty"`
}

// SearchSponsors calls the scored search RPC.
func (c *Client) SearchSponsors(ctx context.Context, req SearchRequest) ([]domain.SponsorMatch, error) {
	body, err := c.postRetry(ctx, "/rest/v1/rpc/search_sponsors_limited", nil, req)
	if err != nil {
		return nil, err
	}

	var matches []domain.SponsorMatch
	if err := json.Unmarshal(body, &matches); err != nil {
		return nil, errors.Upstream("malformed search response").WithCause(err)
	}
	return matches, nil
}

// TelemetryRequest is the telemetry RPC payload.
type TelemetryRequest struct {
	ClientKey string `json:"client_key"`
	EventType string `json:"event_type"`
	Status    string `json:"status,omitempty"`
}

// RecordTelemetry posts one usage event. Callers treat failures as
// ignorable; this method does a single attempt, no retries.
func (c *Client) RecordTelemetry(ctx context.Context, req TelemetryRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}
	resp, err := c.post(ctx, "/rest/v1/telemetry_events", nil, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return errors.Upstreamf("telemetry returned status %d", resp.StatusCode)
	}
	return nil
}

// postRetry posts payload with the retry schedule and returns the
// response body on success.
func (c *Client) postRetry(ctx context.Context, path string, headers map[string]string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		body, retryable, err := c.attempt(ctx, path, headers, data)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !retryable || attempt >= len(retryDelays) {
			return nil, lastErr
		}

		if c.logger != nil {
			c.logger.Warn("rpc attempt failed, retrying",
				"path", path,
				"attempt", attempt+1,
				"delay", retryDelays[attempt],
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelays[attempt]):
		}
	}
}

// attempt runs one POST. retryable reports whether a failure is worth
// another attempt: transport errors and 5xx yes, 4xx no.
func (c *Client) attempt(ctx context.Context, path string, headers map[string]string, data []byte) (body []byte, retryable bool, err error) {
	resp, err := c.post(ctx, path, headers, data)
	if err != nil {
		return nil, true, errors.Upstream("request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, true, errors.Upstreamf("store returned status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, false, errors.Upstreamf("store returned status %d", resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, errors.Upstream("read response").WithCause(err)
	}
	return body, false, nil
}

func (c *Client) post(ctx context.Context, path string, headers map[string]string, data []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.http.Do(req)
}
