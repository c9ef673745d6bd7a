package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sponsorcheck/sponsorcheck-server/internal/domain"
	"github.com/sponsorcheck/sponsorcheck-server/internal/errors"
	"github.com/sponsorcheck/sponsorcheck-server/internal/id"
	"github.com/sponsorcheck/sponsorcheck-server/internal/ingest"
	"github.com/sponsorcheck/sponsorcheck-server/internal/store"
)

// RegisterSyncService runs full register imports. At most one sync
// runs at a time; a trigger while one is in flight is rejected rather
// than queued, since back-to-back imports of the same register are
// pointless.
type RegisterSyncService struct {
	importer *ingest.Importer
	store    *store.Store
	searcher *SponsorSearchService
	pageURL  string
	logger   *slog.Logger

	running sync.Mutex
}

// NewRegisterSyncService creates a new sync service.
func NewRegisterSyncService(importer *ingest.Importer, st *store.Store, searcher *SponsorSearchService, pageURL string, logger *slog.Logger) *RegisterSyncService {
	return &RegisterSyncService{
		importer: importer,
		store:    st,
		searcher: searcher,
		pageURL:  pageURL,
		logger:   logger,
	}
}

// Run imports the current register and rebuilds the candidate index.
// It returns a human-readable completion message.
func (s *RegisterSyncService) Run(ctx context.Context) (string, error) {
	if !s.running.TryLock() {
		return "", errors.Conflict("sync already in progress")
	}
	defer s.running.Unlock()

	started := time.Now()
	processed, err := s.importer.Run(ctx, s.pageURL)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("register sync failed", "error", err)
		}
		return "", err
	}

	if err := s.searcher.Reindex(ctx); err != nil {
		return "", fmt.Errorf("reindex after sync: %w", err)
	}

	run := &domain.SyncRun{
		ID:            id.MustGenerate("sync"),
		RegisterURL:   s.pageURL,
		RowsProcessed: processed,
		CompletedAt:   time.Now().UTC(),
	}
	if err := s.store.SetLastSyncRun(run); err != nil {
		return "", err
	}

	if s.logger != nil {
		s.logger.Info("register sync complete",
			"rows_processed", processed,
			"duration", time.Since(started).Round(time.Millisecond),
		)
	}
	return fmt.Sprintf("Sync complete. Rows processed: %d", processed), nil
}

// LastRun returns the most recent completed sync, or nil when none.
func (s *RegisterSyncService) LastRun() (*domain.SyncRun, error) {
	return s.store.GetLastSyncRun()
}
