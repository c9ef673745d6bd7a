package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sponsorcheck/sponsorcheck-server/internal/ingest"
	"github.com/sponsorcheck/sponsorcheck-server/internal/quota"
	"github.com/sponsorcheck/sponsorcheck-server/internal/search"
	"github.com/sponsorcheck/sponsorcheck-server/internal/service"
	"github.com/sponsorcheck/sponsorcheck-server/internal/store"
)

const testSyncToken = "test-sync-token"

type testServer struct {
	*Server
	api humatest.TestAPI
}

// setupTestServer wires a full server against temp-dir storage. The
// register publication page serves registerCSV.
func setupTestServer(t *testing.T, registerCSV string) *testServer {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<a href="/register.csv">Download</a>`))
	})
	mux.HandleFunc("/register.csv", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(registerCSV))
	})
	registerSrv := httptest.NewServer(mux)
	t.Cleanup(registerSrv.Close)

	fetcher := ingest.NewFetcher(logger, 10*time.Second)
	t.Cleanup(fetcher.Close)

	searcher := service.NewSponsorSearchService(st, index, quota.New(), 60, logger)
	importer := ingest.NewImporter(fetcher, st, logger)
	syncer := service.NewRegisterSyncService(importer, st, searcher, registerSrv.URL+"/page", logger)
	telemetry := service.NewTelemetryService(st, logger)

	srv := NewServer(searcher, syncer, telemetry, testSyncToken, []string{"*"}, logger)

	return &testServer{
		Server: srv,
		api:    humatest.Wrap(t, srv.api),
	}
}

const sampleCSV = "Organisation Name,Town/City,County,Type & Rating,Route\n" +
	"Acme Ltd,London,Greater London,Worker,Skilled Worker\n" +
	"Borealis Care Limited,Leeds,West Yorkshire,Worker,Skilled Worker\n"

// doRequest runs one request through the full middleware stack.
func (ts *testServer) doRequest(method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t, sampleCSV)

	rec := ts.doRequest(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestSync_Unauthorized(t *testing.T) {
	ts := setupTestServer(t, sampleCSV)

	tests := []struct {
		name    string
		headers map[string]string
		path    string
	}{
		{"no token", nil, "/sync"},
		{"wrong header token", map[string]string{"X-Sync-Token": "wrong"}, "/sync"},
		{"wrong query token", nil, "/sync?token=wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.doRequest(http.MethodPost, tt.path, tt.headers)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			body, _ := io.ReadAll(rec.Body)
			assert.Equal(t, "Unauthorized", string(body))
		})
	}
}

func TestSync_TriggersImport(t *testing.T) {
	ts := setupTestServer(t, sampleCSV)

	rec := ts.doRequest(http.MethodPost, "/sync", map[string]string{"X-Sync-Token": testSyncToken})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sync complete. Rows processed: 2", rec.Body.String())
}

func TestSync_TokenVariants(t *testing.T) {
	ts := setupTestServer(t, sampleCSV)

	rec := ts.doRequest(http.MethodPost, "/sync", map[string]string{"X-Function-Token": testSyncToken})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.doRequest(http.MethodGet, "/sync?token="+testSyncToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchRPC(t *testing.T) {
	ts := setupTestServer(t, sampleCSV)

	rec := ts.doRequest(http.MethodPost, "/sync", map[string]string{"X-Sync-Token": testSyncToken})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := ts.api.Post("/rest/v1/rpc/search_sponsors_limited", map[string]any{
		"query":      "Acme Limited",
		"client_key": "client-1",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	body := resp.Body.String()
	assert.Contains(t, body, `"name_original":"Acme Ltd"`)
	assert.Contains(t, body, `"match_type":"exact"`)
	assert.Contains(t, body, `"allowed":true`)
	// Bare array, not an envelope
	assert.Equal(t, byte('['), body[0])
}

func TestSearchRPC_QuotaRow(t *testing.T) {
	ts := setupTestServer(t, sampleCSV)

	payload := map[string]any{
		"query":          "Acme",
		"client_key":     "client-1",
		"limit_per_hour": 1,
	}
	resp := ts.api.Post("/rest/v1/rpc/search_sponsors_limited", payload)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/rest/v1/rpc/search_sponsors_limited", payload)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"allowed":false`)
	assert.Contains(t, resp.Body.String(), `"reset_at"`)
}

func TestSearchRPC_ValidationError(t *testing.T) {
	ts := setupTestServer(t, sampleCSV)

	resp := ts.api.Post("/rest/v1/rpc/search_sponsors_limited", map[string]any{
		"query": "Acme",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestBulkUpsertRPC(t *testing.T) {
	ts := setupTestServer(t, "")

	resp := ts.api.Post("/rest/v1/rpc/bulk_upsert_sponsors",
		"X-Sync-Token: "+testSyncToken,
		map[string]any{
			"payload": []map[string]any{
				{"name": "Acme Ltd", "town_city": "London", "route": "Skilled Worker"},
				{"name": "...", "town_city": "Leeds"}, // unusable name, skipped
			},
		})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"upserted":1`)

	// The upserted name is searchable without a full sync
	search := ts.api.Post("/rest/v1/rpc/search_sponsors_limited", map[string]any{
		"query":      "Acme",
		"client_key": "client-1",
	})
	require.Equal(t, http.StatusOK, search.Code)
	assert.Contains(t, search.Body.String(), `"name_original":"Acme Ltd"`)
}

func TestBulkUpsertRPC_Unauthorized(t *testing.T) {
	ts := setupTestServer(t, "")

	resp := ts.api.Post("/rest/v1/rpc/bulk_upsert_sponsors", map[string]any{
		"payload": []map[string]any{{"name": "Acme Ltd"}},
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestTelemetryRPC(t *testing.T) {
	ts := setupTestServer(t, "")

	resp := ts.api.Post("/rest/v1/telemetry_events", map[string]any{
		"client_key": "client-1",
		"event_type": "lookup",
		"status":     "likely",
	})
	assert.Equal(t, http.StatusNoContent, resp.Code)
}
