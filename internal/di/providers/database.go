package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/sponsorcheck/sponsorcheck-server/internal/config"
	"github.com/sponsorcheck/sponsorcheck-server/internal/logger"
	"github.com/sponsorcheck/sponsorcheck-server/internal/quota"
	"github.com/sponsorcheck/sponsorcheck-server/internal/search"
	"github.com/sponsorcheck/sponsorcheck-server/internal/service"
	"github.com/sponsorcheck/sponsorcheck-server/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the sponsor database.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "db")
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve name index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Search index ready", "path", cfg.Data.BasePath)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ProvideQuotaTracker provides the hourly lookup quota tracker.
func ProvideQuotaTracker(i do.Injector) (*quota.Tracker, error) {
	return quota.New(), nil
}

// EnsureSearchIndex rebuilds the name index from the store when the
// index is empty but the store is not, e.g. after a mapping change
// wiped the index on startup.
func EnsureSearchIndex(i do.Injector) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SponsorSearchService](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	indexed, err := indexHandle.DocumentCount()
	if err != nil {
		log.Warn("Could not read index document count", "error", err)
		return
	}
	stored, err := storeHandle.CountSponsors()
	if err != nil {
		log.Warn("Could not count stored sponsors", "error", err)
		return
	}

	if indexed > 0 || stored == 0 {
		return
	}

	log.Info("Rebuilding search index from store", "sponsors", stored)
	go func() {
		if err := searchService.Reindex(context.Background()); err != nil {
			log.Error("Search index rebuild failed", "error", err)
		}
	}()
}
