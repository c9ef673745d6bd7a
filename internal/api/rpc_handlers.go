package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sponsorcheck/sponsorcheck-server/internal/domain"
	"github.com/sponsorcheck/sponsorcheck-server/internal/normalize"
	"github.com/sponsorcheck/sponsorcheck-server/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search-sponsors-limited",
		Method:      http.MethodPost,
		Path:        "/rest/v1/rpc/search_sponsors_limited",
		Summary:     "Search sponsors",
		Description: "Scored search over the register with per-client quota enforcement",
		Tags:        []string{"Sponsors"},
	}, s.handleSearchSponsors)
}

func (s *Server) registerUpsertRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "bulk-upsert-sponsors",
		Method:      http.MethodPost,
		Path:        "/rest/v1/rpc/bulk_upsert_sponsors",
		Summary:     "Bulk upsert sponsors",
		Description: "Ingests register rows; idempotent per natural key",
		Tags:        []string{"Sponsors"},
	}, s.handleBulkUpsert)
}

func (s *Server) registerTelemetryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "record-telemetry-event",
		Method:        http.MethodPost,
		Path:          "/rest/v1/telemetry_events",
		Summary:       "Record telemetry event",
		Description:   "Best-effort anonymous usage event",
		Tags:          []string{"Telemetry"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleTelemetryEvent)
}

// === DTOs ===

// SearchSponsorsInput is the search RPC request.
type SearchSponsorsInput struct {
	Body struct {
		Query               string  `json:"query" minLength:"1" maxLength:"200" doc:"Raw company name to search"`
		ClientKey           string  `json:"client_key" minLength:"1" maxLength:"64" doc:"Anonymous installation key"`
		LimitCount          int     `json:"limit_count,omitempty" minimum:"0" maximum:"50" doc:"Max rows returned (default 10)"`
		SimilarityThreshold float64 `json:"similarity_threshold,omitempty" minimum:"0" maximum:"1" doc:"Inclusion floor for similar matches (default 0.3)"`
		LimitPerHour        int     `json:"limit_per_hour,omitempty" minimum:"0" maximum:"1000" doc:"Hourly quota override (default server-side)"`
	}
}

// SearchSponsorsOutput is a bare JSON array, best match first.
type SearchSponsorsOutput struct {
	Body []domain.SponsorMatch
}

func (s *Server) handleSearchSponsors(ctx context.Context, input *SearchSponsorsInput) (*SearchSponsorsOutput, error) {
	matches, err := s.searchService.Search(ctx, service.SearchParams{
		Query:               input.Body.Query,
		ClientKey:           input.Body.ClientKey,
		LimitCount:          input.Body.LimitCount,
		SimilarityThreshold: input.Body.SimilarityThreshold,
		LimitPerHour:        input.Body.LimitPerHour,
	})
	if err != nil {
		s.logger.Error("sponsor search failed", "error", err)
		return nil, huma.Error500InternalServerError("search failed", err)
	}
	return &SearchSponsorsOutput{Body: matches}, nil
}

// SponsorRow is one register row in the bulk upsert payload.
type SponsorRow struct {
	Name        string `json:"name" minLength:"1" doc:"Organisation name as published"`
	TownCity    string `json:"town_city,omitempty"`
	County      string `json:"county,omitempty"`
	SponsorType string `json:"sponsor_type,omitempty"`
	Route       string `json:"route,omitempty"`
	RegisterURL string `json:"register_url,omitempty"`
	LastUpdated string `json:"last_updated,omitempty" doc:"Ingestion date, YYYY-MM-DD"`
}

// BulkUpsertInput is the bulk upsert RPC request.
type BulkUpsertInput struct {
	SyncToken string `header:"X-Sync-Token" doc:"Shared ingestion secret"`
	Body      struct {
		Payload []SponsorRow `json:"payload" doc:"Register rows to upsert"`
	}
}

// BulkUpsertOutput reports how many rows were accepted.
type BulkUpsertOutput struct {
	Body struct {
		Upserted int `json:"upserted"`
	}
}

func (s *Server) handleBulkUpsert(ctx context.Context, input *BulkUpsertInput) (*BulkUpsertOutput, error) {
	if !s.tokenMatches(input.SyncToken) {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	records := make([]*domain.SponsorRecord, 0, len(input.Body.Payload))
	for _, row := range input.Body.Payload {
		name := strings.TrimSpace(row.Name)
		norm := normalize.Name(name)
		if norm == "" {
			continue
		}
		records = append(records, &domain.SponsorRecord{
			NameOriginal:   name,
			NameNormalized: norm,
			TownCity:       strings.TrimSpace(row.TownCity),
			County:         strings.TrimSpace(row.County),
			SponsorType:    strings.TrimSpace(row.SponsorType),
			Route:          strings.TrimSpace(row.Route),
			RegisterURL:    row.RegisterURL,
			LastUpdated:    row.LastUpdated,
		})
	}

	if err := s.searchService.Upsert(ctx, records); err != nil {
		s.logger.Error("bulk upsert failed", "error", err)
		return nil, huma.Error500InternalServerError("upsert failed", err)
	}

	out := &BulkUpsertOutput{}
	out.Body.Upserted = len(records)
	return out, nil
}

// TelemetryEventInput is the telemetry RPC request.
type TelemetryEventInput struct {
	Body struct {
		ClientKey string `json:"client_key" minLength:"1" maxLength:"64"`
		EventType string `json:"event_type" minLength:"1" maxLength:"64"`
		Status    string `json:"status,omitempty" maxLength:"32"`
	}
}

// TelemetryEventOutput is empty; the route returns 204.
type TelemetryEventOutput struct{}

func (s *Server) handleTelemetryEvent(_ context.Context, input *TelemetryEventInput) (*TelemetryEventOutput, error) {
	// Best-effort by contract: a storage failure is logged inside the
	// service and still acknowledged here.
	_ = s.telemetryService.Record(input.Body.ClientKey, input.Body.EventType, domain.LookupStatus(input.Body.Status))
	return &TelemetryEventOutput{}, nil
}
