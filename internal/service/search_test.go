package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sponsorcheck/sponsorcheck-server/internal/domain"
	"github.com/sponsorcheck/sponsorcheck-server/internal/quota"
	"github.com/sponsorcheck/sponsorcheck-server/internal/search"
	"github.com/sponsorcheck/sponsorcheck-server/internal/store"
)

func setupSearchService(t *testing.T, hourlyLimit int) *SponsorSearchService {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return NewSponsorSearchService(st, index, quota.New(), hourlyLimit, nil)
}

func seedSponsors(t *testing.T, svc *SponsorSearchService, records []*domain.SponsorRecord) {
	t.Helper()
	require.NoError(t, svc.store.UpsertSponsors(context.Background(), records))
	require.NoError(t, svc.Reindex(context.Background()))
}

func record(original, norm, town string) *domain.SponsorRecord {
	return &domain.SponsorRecord{
		NameOriginal:   original,
		NameNormalized: norm,
		TownCity:       town,
		SponsorType:    "Worker",
		Route:          "Skilled Worker",
		RegisterURL:    "https://example.gov.uk/register.csv",
		LastUpdated:    "2026-08-01",
	}
}

func TestSearch_ExactMatch(t *testing.T) {
	svc := setupSearchService(t, 60)
	seedSponsors(t, svc, []*domain.SponsorRecord{
		record("Acme Ltd", "acme", "London"),
	})

	matches, err := svc.Search(context.Background(), SearchParams{ClientKey: "client-1", Query: "ACME LIMITED"})
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	top := matches[0]
	assert.Equal(t, "Acme Ltd", top.NameOriginal)
	assert.Equal(t, 1.0, top.Score)
	assert.Equal(t, domain.MatchExact, top.MatchType)
	assert.True(t, top.Allowed)
	assert.True(t, top.ResetAt.IsZero())
}

func TestSearch_ExactBeforeSimilar(t *testing.T) {
	svc := setupSearchService(t, 60)
	seedSponsors(t, svc, []*domain.SponsorRecord{
		record("Borealis Care Limited", "borealis care", "Leeds"),
		record("Borealis Care Services Ltd", "borealis care services", "Leeds"),
	})

	matches, err := svc.Search(context.Background(), SearchParams{ClientKey: "client-1", Query: "Borealis Care"})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(matches), 2)

	assert.Equal(t, domain.MatchExact, matches[0].MatchType)
	assert.Equal(t, "Borealis Care Limited", matches[0].NameOriginal)
	assert.Equal(t, domain.MatchSimilar, matches[1].MatchType)
	assert.Less(t, matches[1].Score, matches[0].Score)
}

func TestSearch_NoMatch(t *testing.T) {
	svc := setupSearchService(t, 60)
	seedSponsors(t, svc, []*domain.SponsorRecord{
		record("Acme Ltd", "acme", "London"),
	})

	matches, err := svc.Search(context.Background(), SearchParams{ClientKey: "client-1", Query: "Zephyr Quarry"})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearch_EmptyAfterNormalization(t *testing.T) {
	svc := setupSearchService(t, 60)

	matches, err := svc.Search(context.Background(), SearchParams{ClientKey: "client-1", Query: "Ltd."})
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.NotNil(t, matches)
}

func TestSearch_QuotaExhausted(t *testing.T) {
	svc := setupSearchService(t, 1)
	seedSponsors(t, svc, []*domain.SponsorRecord{
		record("Acme Ltd", "acme", "London"),
	})

	_, err := svc.Search(context.Background(), SearchParams{ClientKey: "client-1", Query: "Acme"})
	require.NoError(t, err)

	matches, err := svc.Search(context.Background(), SearchParams{ClientKey: "client-1", Query: "Acme"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.False(t, matches[0].Allowed)
	assert.False(t, matches[0].ResetAt.IsZero())
	assert.Empty(t, matches[0].NameOriginal)

	// Quota is per client key
	other, err := svc.Search(context.Background(), SearchParams{ClientKey: "client-2", Query: "Acme"})
	require.NoError(t, err)
	require.NotEmpty(t, other)
	assert.True(t, other[0].Allowed)
}

func TestSearch_ResultCap(t *testing.T) {
	svc := setupSearchService(t, 60)

	records := make([]*domain.SponsorRecord, 0, 15)
	towns := []string{
		"London", "Leeds", "York", "Bath", "Derby",
		"Truro", "Ely", "Wells", "Ripon", "Hull",
		"Exeter", "Durham", "Lincoln", "Chester", "Lancaster",
	}
	for _, town := range towns {
		records = append(records, record("Acme Ltd", "acme", town))
	}
	seedSponsors(t, svc, records)

	matches, err := svc.Search(context.Background(), SearchParams{ClientKey: "client-1", Query: "Acme"})
	require.NoError(t, err)
	assert.Len(t, matches, defaultResultCap)

	// Explicit limit_count wins over the default cap
	matches, err = svc.Search(context.Background(), SearchParams{ClientKey: "client-1", Query: "Acme", LimitCount: 3})
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestSearch_LimitPerHourOverride(t *testing.T) {
	svc := setupSearchService(t, 60)
	seedSponsors(t, svc, []*domain.SponsorRecord{
		record("Acme Ltd", "acme", "London"),
	})

	params := SearchParams{ClientKey: "client-1", Query: "Acme", LimitPerHour: 1}
	_, err := svc.Search(context.Background(), params)
	require.NoError(t, err)

	matches, err := svc.Search(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.False(t, matches[0].Allowed)
}
