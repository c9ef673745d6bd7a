package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Candidate is one plausible name returned from the index.
type Candidate struct {
	Name         string  `json:"name"` // normalized form
	NameOriginal string  `json:"name_original"`
	Score        float64 `json:"score"` // bleve relevance, not similarity
}

// Candidates finds names plausibly matching the normalized query.
// It combines word matching, fuzzy matching for typos, and prefix
// matching so that partial names surface. Bleve scores only order the
// candidates; callers re-rank on proper similarity before thresholding.
func (s *SearchIndex) Candidates(ctx context.Context, normalized string, limit int) ([]Candidate, error) {
	if normalized == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 25
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildCandidateQuery(normalized)
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, limit, 0, false)
	searchRequest.Fields = []string{"name", "name_original"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute candidate search: %w", err)
	}

	candidates := make([]Candidate, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		c := Candidate{Score: hit.Score}
		if n, ok := hit.Fields["name"].(string); ok {
			c.Name = n
		}
		if n, ok := hit.Fields["name_original"].(string); ok {
			c.NameOriginal = n
		}
		if c.Name != "" {
			candidates = append(candidates, c)
		}
	}

	return candidates, nil
}

// buildCandidateQuery constructs the Bleve query for one normalized name.
func buildCandidateQuery(normalized string) query.Query {
	textQueries := []query.Query{}

	// Word match with highest boost
	nameMatch := bleve.NewMatchQuery(normalized)
	nameMatch.SetField("name")
	nameMatch.SetBoost(3.0)
	textQueries = append(textQueries, nameMatch)

	// Fuzzy matching for typo tolerance per word
	for _, word := range strings.Fields(normalized) {
		if len(word) < 4 {
			// Single-edit fuzziness on very short words matches
			// nearly everything.
			continue
		}
		fuzzyQuery := bleve.NewFuzzyQuery(word)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("name")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)
	}

	// Prefix query so partial names surface (minimum 2 chars)
	if len(normalized) >= 2 {
		prefixQuery := bleve.NewPrefixQuery(normalized)
		prefixQuery.SetField("name")
		prefixQuery.SetBoost(0.5)
		textQueries = append(textQueries, prefixQuery)
	}

	return bleve.NewDisjunctionQuery(textQueries...)
}
