// Package resolver turns a raw candidate name into a lookup status by
// querying the sponsor store and classifying the top-ranked match.
package resolver

import (
	"context"
	"log/slog"
	"time"

	"github.com/sponsorcheck/sponsorcheck-server/internal/cache"
	"github.com/sponsorcheck/sponsorcheck-server/internal/client"
	"github.com/sponsorcheck/sponsorcheck-server/internal/domain"
	"github.com/sponsorcheck/sponsorcheck-server/internal/errors"
	"github.com/sponsorcheck/sponsorcheck-server/internal/normalize"
)

// Classification and query parameters. The top match classifies the
// whole result; all matches are passed through except when rate limited.
const (
	likelyThreshold  = 0.82
	unclearThreshold = 0.72

	resultCap        = 5
	hourlyLimit      = 120
	telemetryTimeout = 5 * time.Second
)

// Searcher is the store-side search RPC.
type Searcher interface {
	SearchSponsors(ctx context.Context, req client.SearchRequest) ([]domain.SponsorMatch, error)
	RecordTelemetry(ctx context.Context, req client.TelemetryRequest) error
}

// Resolver answers "is this employer a licensed sponsor" for one
// installation, caching answers by normalized name.
type Resolver struct {
	searcher  Searcher
	cache     *cache.Cache
	clientKey string
	logger    *slog.Logger
}

// New creates a resolver. clientKey is the persisted installation key.
func New(searcher Searcher, lookupCache *cache.Cache, clientKey string, logger *slog.Logger) *Resolver {
	return &Resolver{
		searcher:  searcher,
		cache:     lookupCache,
		clientKey: clientKey,
		logger:    logger,
	}
}

// Lookup resolves candidateName. A cached result short-circuits the
// network call and telemetry entirely.
func (r *Resolver) Lookup(ctx context.Context, candidateName string) (*domain.LookupResult, error) {
	norm := normalize.Name(candidateName)
	if norm == "" {
		return nil, errors.InvalidInput("candidate name is empty after normalization")
	}

	if cached, err := r.cache.Get(ctx, norm); err != nil {
		r.logger.Warn("cache read failed", "error", err)
	} else if cached != nil {
		return cached, nil
	}

	matches, err := r.searcher.SearchSponsors(ctx, client.SearchRequest{
		Query:               norm,
		ClientKey:           r.clientKey,
		LimitCount:          resultCap,
		SimilarityThreshold: likelyThreshold,
		LimitPerHour:        hourlyLimit,
	})
	if err != nil {
		return nil, err
	}

	result, resetAt := classify(matches)

	if err := r.cache.Put(ctx, norm, result, resetAt); err != nil {
		r.logger.Warn("cache write failed", "error", err)
	}

	r.recordTelemetry(result.Status)

	return &result, nil
}

// classify applies the status policy to the top-ranked match. resetAt
// is non-zero only when the store reported quota exhaustion.
func classify(matches []domain.SponsorMatch) (domain.LookupResult, time.Time) {
	if len(matches) == 0 {
		return domain.LookupResult{Status: domain.StatusNotFound}, time.Time{}
	}

	top := matches[0]
	if !top.Allowed {
		return domain.LookupResult{Status: domain.StatusRateLimited}, top.ResetAt
	}

	status := domain.StatusNotFound
	switch {
	case top.MatchType == domain.MatchExact || top.Score >= likelyThreshold:
		status = domain.StatusLikely
	case top.Score >= unclearThreshold:
		status = domain.StatusUnclear
	}

	return domain.LookupResult{Status: status, Matches: matches}, time.Time{}
}

// recordTelemetry emits a usage event without blocking or failing the
// lookup.
func (r *Resolver) recordTelemetry(status domain.LookupStatus) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryTimeout)
		defer cancel()
		err := r.searcher.RecordTelemetry(ctx, client.TelemetryRequest{
			ClientKey: r.clientKey,
			EventType: "lookup",
			Status:    string(status),
		})
		if err != nil {
			r.logger.Debug("telemetry record failed", "error", err)
		}
	}()
}
