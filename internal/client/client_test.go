package client

import (
	"context"
	"encoding/json/v2"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	stderrors "errors"

	"github.com/sponsorcheck/sponsorcheck-server/internal/domain"
	"github.com/sponsorcheck/sponsorcheck-server/internal/errors"
)

func TestSearchSponsors_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/rpc/search_sponsors_limited" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req SearchRequest
		if err := json.UnmarshalRead(r.Body, &req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "acme ltd" || req.ClientKey != "client-1" {
			t.Errorf("unexpected request %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name_original":"Acme Ltd","score":1,"match_type":"exact","allowed":true}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	matches, err := c.SearchSponsors(context.Background(), SearchRequest{
		Query:     "acme ltd",
		ClientKey: "client-1",
	})
	if err != nil {
		t.Fatalf("SearchSponsors: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].NameOriginal != "Acme Ltd" || matches[0].MatchType != domain.MatchExact {
		t.Errorf("unexpected match %+v", matches[0])
	}
}

func TestSearchSponsors_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	start := time.Now()
	matches, err := c.SearchSponsors(context.Background(), SearchRequest{Query: "x", ClientKey: "k"})
	if err != nil {
		t.Fatalf("SearchSponsors: %v", err)
	}
	if matches != nil && len(matches) != 0 {
		t.Errorf("got %d matches, want 0", len(matches))
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("got %d calls, want 4", got)
	}
	// Full backoff schedule is 300+900+1800ms.
	if elapsed := time.Since(start); elapsed < 3*time.Second {
		t.Errorf("retries completed in %v, want at least 3s of backoff", elapsed)
	}
}

func TestSearchSponsors_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.SearchSponsors(context.Background(), SearchRequest{Query: "x", ClientKey: "k"})
	if !stderrors.Is(err, errors.ErrUpstream) {
		t.Fatalf("got %v, want ErrUpstream", err)
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("got %d calls, want 4 (1 attempt + 3 retries)", got)
	}
}

func TestSearchSponsors_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.SearchSponsors(context.Background(), SearchRequest{Query: "x", ClientKey: "k"})
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("got %d calls, want 1", got)
	}
}

func TestSearchSponsors_ContextCancelStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	c := New(srv.URL, nil)
	start := time.Now()
	_, err := c.SearchSponsors(ctx, SearchRequest{Query: "x", ClientKey: "k"})
	if err == nil {
		t.Fatal("expected error after context cancellation")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation took %v, want well under the backoff schedule", elapsed)
	}
}

func TestRecordTelemetry(t *testing.T) {
	var got TelemetryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/telemetry_events" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.UnmarshalRead(r.Body, &got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	err := c.RecordTelemetry(context.Background(), TelemetryRequest{
		ClientKey: "client-1",
		EventType: "lookup",
		Status:    "likely",
	})
	if err != nil {
		t.Fatalf("RecordTelemetry: %v", err)
	}
	if got.ClientKey != "client-1" || got.EventType != "lookup" {
		t.Errorf("unexpected payload %+v", got)
	}
}
