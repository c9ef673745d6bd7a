package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/sponsorcheck/sponsorcheck-server/internal/domain"
	"github.com/sponsorcheck/sponsorcheck-server/internal/normalize"
	"github.com/sponsorcheck/sponsorcheck-server/internal/quota"
	"github.com/sponsorcheck/sponsorcheck-server/internal/search"
	"github.com/sponsorcheck/sponsorcheck-server/internal/similarity"
	"github.com/sponsorcheck/sponsorcheck-server/internal/store"
)

const (
	// minSimilarity is the floor below which a candidate is noise
	// rather than a potential match.
	minSimilarity = 0.3

	// defaultResultCap bounds the rows returned from one search.
	defaultResultCap = 10

	// candidateLimit is how many index candidates are re-ranked.
	candidateLimit = 25
)

// SponsorSearchService answers scored name searches against the
// register, enforcing the per-client hourly quota.
type SponsorSearchService struct {
	store       *store.Store
	index       *search.SearchIndex
	quota       *quota.Tracker
	hourlyLimit int
	logger      *slog.Logger
}

// NewSponsorSearchService creates a new search service.
func NewSponsorSearchService(st *store.Store, index *search.SearchIndex, tracker *quota.Tracker, hourlyLimit int, logger *slog.Logger) *SponsorSearchService {
	return &SponsorSearchService{
		store:       st,
		index:       index,
		quota:       tracker,
		hourlyLimit: hourlyLimit,
		logger:      logger,
	}
}

// SearchParams configures one search call. Zero values fall back to
// server defaults, so callers only set what they need.
type SearchParams struct {
	Query               string
	ClientKey           string
	LimitCount          int     // max rows returned
	SimilarityThreshold float64 // inclusion floor for similar matches
	LimitPerHour        int     // quota override for this client
}

// Search returns scored register matches for one name, best first.
// When the client's hourly quota is spent it returns a single row with
// Allowed=false and the window reset time; the denied request consumes
// no quota. Scores are raw similarity; classifying them against
// thresholds is the caller's concern.
func (s *SponsorSearchService) Search(ctx context.Context, params SearchParams) ([]domain.SponsorMatch, error) {
	limitPerHour := params.LimitPerHour
	if limitPerHour <= 0 {
		limitPerHour = s.hourlyLimit
	}
	resultCap := params.LimitCount
	if resultCap <= 0 {
		resultCap = defaultResultCap
	}
	threshold := params.SimilarityThreshold
	if threshold <= 0 {
		threshold = minSimilarity
	}

	allowed, resetAt := s.quota.Take(params.ClientKey, limitPerHour)
	if !allowed {
		return []domain.SponsorMatch{{
			Allowed: false,
			ResetAt: resetAt,
		}}, nil
	}

	norm := normalize.Name(params.Query)
	if norm == "" {
		return []domain.SponsorMatch{}, nil
	}

	var matches []domain.SponsorMatch

	// Exact registrations first
	exact, err := s.store.GetSponsorsByNormalizedName(norm)
	if err != nil {
		return nil, fmt.Errorf("exact lookup: %w", err)
	}
	for _, rec := range exact {
		matches = append(matches, recordToMatch(rec, 1.0, domain.MatchExact))
	}

	// Then index candidates re-ranked on trigram similarity
	candidates, err := s.index.Candidates(ctx, norm, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("candidate search: %w", err)
	}
	for _, cand := range candidates {
		if cand.Name == norm {
			continue // already covered by the exact pass
		}
		score := similarity.Score(norm, cand.Name)
		if score < threshold {
			continue
		}
		records, err := s.store.GetSponsorsByNormalizedName(cand.Name)
		if err != nil {
			return nil, fmt.Errorf("candidate lookup: %w", err)
		}
		for _, rec := range records {
			matches = append(matches, recordToMatch(rec, score, domain.MatchSimilar))
		}
	}

	// Best first; stable so registrations of one name keep store order
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > resultCap {
		matches = matches[:resultCap]
	}

	if s.logger != nil {
		s.logger.Debug("sponsor search",
			"normalized", norm,
			"results", len(matches),
		)
	}

	if matches == nil {
		matches = []domain.SponsorMatch{}
	}
	return matches, nil
}

// recordToMatch builds a response row from one stored registration.
func recordToMatch(rec *domain.SponsorRecord, score float64, matchType domain.MatchType) domain.SponsorMatch {
	return domain.SponsorMatch{
		NameOriginal: rec.NameOriginal,
		Score:        score,
		MatchType:    matchType,
		Allowed:      true,
		TownCity:     rec.TownCity,
		County:       rec.County,
		SponsorType:  rec.SponsorType,
		Route:        rec.Route,
		LastUpdated:  rec.LastUpdated,
	}
}

// Upsert writes records to the store and adds their names to the
// candidate index incrementally.
func (s *SponsorSearchService) Upsert(ctx context.Context, records []*domain.SponsorRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.store.UpsertSponsors(ctx, records); err != nil {
		return fmt.Errorf("upsert sponsors: %w", err)
	}
	return s.IndexRecords(records)
}

// IndexRecords adds the distinct normalized names of records to the
// candidate index without a rebuild. Used for incremental upserts.
func (s *SponsorSearchService) IndexRecords(records []*domain.SponsorRecord) error {
	byName := make(map[string]*search.SponsorDocument, len(records))
	for _, rec := range records {
		if _, ok := byName[rec.NameNormalized]; !ok {
			byName[rec.NameNormalized] = &search.SponsorDocument{
				ID:           rec.NameNormalized,
				Name:         rec.NameNormalized,
				NameOriginal: rec.NameOriginal,
			}
		}
	}
	docs := make([]*search.SponsorDocument, 0, len(byName))
	for _, doc := range byName {
		docs = append(docs, doc)
	}
	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("index sponsors: %w", err)
	}
	return nil
}

// Reindex rebuilds the candidate index from the store. One document is
// indexed per distinct normalized name.
func (s *SponsorSearchService) Reindex(ctx context.Context) error {
	if err := s.index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	byName := make(map[string]*search.SponsorDocument)
	err := s.store.ForEachSponsor(ctx, func(rec *domain.SponsorRecord) error {
		if _, ok := byName[rec.NameNormalized]; !ok {
			byName[rec.NameNormalized] = &search.SponsorDocument{
				ID:           rec.NameNormalized,
				Name:         rec.NameNormalized,
				NameOriginal: rec.NameOriginal,
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan sponsors: %w", err)
	}

	docs := make([]*search.SponsorDocument, 0, len(byName))
	for _, doc := range byName {
		docs = append(docs, doc)
	}
	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("index sponsors: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("search index rebuilt", "names", len(docs))
	}
	return nil
}
