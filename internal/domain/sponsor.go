// Package domain contains the core types shared across the sponsor register service.
package domain

import "time"

// SponsorRecord is one entry from the published register of licensed sponsors.
// Records are created in bulk during a sync and superseded wholesale by the
// next sync of the same register; they are never edited or deleted one at a time.
type SponsorRecord struct {
	NameOriginal   string `json:"name_original"`
	NameNormalized string `json:"name_normalized"`
	TownCity       string `json:"town_city,omitempty"`
	County         string `json:"county,omitempty"`
	SponsorType    string `json:"sponsor_type,omitempty"`
	Route          string `json:"route,omitempty"`
	RegisterURL    string `json:"register_url"`
	LastUpdated    string `json:"last_updated"` // ingestion date, YYYY-MM-DD
}

// MatchType describes how a search result matched the query.
type MatchType string

// Match types returned by the search RPC.
const (
	MatchExact   MatchType = "exact"
	MatchSimilar MatchType = "similar"
)

// SponsorMatch is one row of the search RPC response.
// When the caller's hourly quota is exhausted the store returns a single row
// with Allowed=false and ResetAt set; no match payload accompanies it.
type SponsorMatch struct {
	NameOriginal string    `json:"name_original,omitempty"`
	Score        float64   `json:"score"`
	MatchType    MatchType `json:"match_type,omitempty"`
	Allowed      bool      `json:"allowed"`
	TownCity     string    `json:"town_city,omitempty"`
	County       string    `json:"county,omitempty"`
	SponsorType  string    `json:"sponsor_type,omitempty"`
	Route        string    `json:"route,omitempty"`
	LastUpdated  string    `json:"last_updated,omitempty"`
	ResetAt      time.Time `json:"reset_at,omitzero"`
}

// LookupStatus classifies a resolver result.
type LookupStatus string

// Lookup statuses, the closed set every consumer must handle exhaustively.
const (
	StatusLikely      LookupStatus = "likely"
	StatusUnclear     LookupStatus = "unclear"
	StatusNotFound    LookupStatus = "not_found"
	StatusRateLimited LookupStatus = "rate_limited"
)

// LookupResult is the resolver's output for one candidate name.
// Matches are ordered by descending score and are empty unless the status is
// likely or unclear. Immutable once returned; safe to cache.
type LookupResult struct {
	Status  LookupStatus   `json:"status"`
	Matches []SponsorMatch `json:"matches"`
}

// TelemetryEvent is an anonymous usage event. ClientKey identifies an
// installation, never a person.
type TelemetryEvent struct {
	ID        string       `json:"id"`
	ClientKey string       `json:"client_key"`
	EventType string       `json:"event_type"`
	Status    LookupStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// SyncRun records the outcome of one register synchronization.
type SyncRun struct {
	ID            string    `json:"id"`
	RegisterURL   string    `json:"register_url"`
	RowsProcessed int       `json:"rows_processed"`
	CompletedAt   time.Time `json:"completed_at"`
}
