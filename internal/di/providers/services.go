package providers

import (
	"github.com/samber/do/v2"

	"github.com/sponsorcheck/sponsorcheck-server/internal/config"
	"github.com/sponsorcheck/sponsorcheck-server/internal/ingest"
	"github.com/sponsorcheck/sponsorcheck-server/internal/logger"
	"github.com/sponsorcheck/sponsorcheck-server/internal/quota"
	"github.com/sponsorcheck/sponsorcheck-server/internal/service"
)

// FetcherHandle wraps the register fetcher with shutdown capability.
type FetcherHandle struct {
	*ingest.Fetcher
}

// Shutdown implements do.Shutdownable.
func (h *FetcherHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideFetcher provides the rate-limited register page fetcher.
func ProvideFetcher(i do.Injector) (*FetcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return &FetcherHandle{Fetcher: ingest.NewFetcher(log.Logger, cfg.Register.FetchTimeout)}, nil
}

// ProvideImporter provides the CSV ingestion pipeline.
func ProvideImporter(i do.Injector) (*ingest.Importer, error) {
	log := do.MustInvoke[*logger.Logger](i)
	fetcherHandle := do.MustInvoke[*FetcherHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return ingest.NewImporter(fetcherHandle.Fetcher, storeHandle.Store, log.Logger), nil
}

// ProvideSearchService provides the scored sponsor search.
func ProvideSearchService(i do.Injector) (*service.SponsorSearchService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	tracker := do.MustInvoke[*quota.Tracker](i)

	return service.NewSponsorSearchService(storeHandle.Store, indexHandle.SearchIndex, tracker, cfg.Quota.HourlyLimit, log.Logger), nil
}

// ProvideSyncService provides the register synchronization service.
func ProvideSyncService(i do.Injector) (*service.RegisterSyncService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	importer := do.MustInvoke[*ingest.Importer](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SponsorSearchService](i)

	return service.NewRegisterSyncService(importer, storeHandle.Store, searchService, cfg.Register.PageURL, log.Logger), nil
}

// ProvideTelemetryService provides anonymous usage event recording.
func ProvideTelemetryService(i do.Injector) (*service.TelemetryService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return service.NewTelemetryService(storeHandle.Store, log.Logger), nil
}
