package ingest

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sponsorcheck/sponsorcheck-server/internal/domain"
	"github.com/sponsorcheck/sponsorcheck-server/internal/errors"
	"github.com/sponsorcheck/sponsorcheck-server/internal/normalize"
)

// batchSize is the number of parsed rows accumulated before an upsert.
const batchSize = 2000

// Upserter receives parsed register records in batches.
type Upserter interface {
	UpsertSponsors(ctx context.Context, records []*domain.SponsorRecord) error
}

// Importer streams the published register CSV into an Upserter.
type Importer struct {
	fetcher  *Fetcher
	upserter Upserter
	logger   *slog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewImporter creates an importer writing through to upserter.
func NewImporter(fetcher *Fetcher, upserter Upserter, logger *slog.Logger) *Importer {
	return &Importer{
		fetcher:  fetcher,
		upserter: upserter,
		logger:   logger,
		now:      time.Now,
	}
}

// Run resolves the current CSV from the register page, streams it, and
// upserts rows in batches. It returns the number of rows processed.
// An upsert failure aborts the run; batches already committed stay
// committed, and the next successful run supersedes them.
func (imp *Importer) Run(ctx context.Context, pageURL string) (int, error) {
	csvURL, err := imp.fetcher.ResolveCSVURL(ctx, pageURL)
	if err != nil {
		return 0, err
	}

	if imp.logger != nil {
		imp.logger.Info("register sync starting", "csv_url", csvURL)
	}

	resp, err := imp.fetcher.Get(ctx, csvURL)
	if err != nil {
		return 0, errors.FetchFailed("failed to fetch register csv").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, errors.FetchFailedf("register csv returned status %d", resp.StatusCode)
	}

	processed, err := imp.ImportReader(ctx, resp.Body, csvURL)
	if err != nil {
		return 0, err
	}

	if imp.logger != nil {
		imp.logger.Info("register sync finished", "rows_processed", processed)
	}
	return processed, nil
}

// ImportReader streams register CSV rows from r, recording source as
// their provenance. Used by Run and by offline seeding from a local
// file.
func (imp *Importer) ImportReader(ctx context.Context, r io.Reader, source string) (int, error) {
	today := imp.now().UTC().Format("2006-01-02")
	header := true
	processed := 0
	batch := make([]*domain.SponsorRecord, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := imp.upserter.UpsertSponsors(ctx, dedupe(batch)); err != nil {
			return errors.Upstream("sponsor upsert failed").WithCause(err)
		}
		batch = batch[:0]
		return nil
	}

	err := ParseRows(r, func(fields []string) error {
		if header {
			// First logical record is the column header row.
			header = false
			return nil
		}
		rec := recordFromRow(fields, source, today)
		if rec == nil {
			return nil
		}
		processed++
		batch = append(batch, rec)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := flush(); err != nil {
		return 0, err
	}
	return processed, nil
}

// recordFromRow maps positional CSV columns to a record. Returns nil
// for rows that cannot be used: fewer than two columns, or a name that
// normalizes to nothing.
func recordFromRow(fields []string, registerURL, today string) *domain.SponsorRecord {
	if len(fields) < 2 {
		return nil
	}

	name := strings.TrimSpace(fields[0])
	norm := normalize.Name(name)
	if norm == "" {
		return nil
	}

	return &domain.SponsorRecord{
		NameOriginal:   name,
		NameNormalized: norm,
		TownCity:       column(fields, 1),
		County:         column(fields, 2),
		SponsorType:    column(fields, 3),
		Route:          column(fields, 4),
		RegisterURL:    registerURL,
		LastUpdated:    today,
	}
}

// column returns the trimmed field at i, or "" when the row is short.
func column(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

// dedupe drops exact duplicate rows within one batch, keeping the
// first occurrence. The published register repeats a row per visa
// subcategory and those duplicates would just churn the store.
func dedupe(batch []*domain.SponsorRecord) []*domain.SponsorRecord {
	seen := make(map[string]struct{}, len(batch))
	out := make([]*domain.SponsorRecord, 0, len(batch))

	for _, rec := range batch {
		key := strings.Join([]string{
			rec.NameOriginal, rec.SponsorType, rec.Route, rec.TownCity, rec.County,
		}, "\x1f")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}
