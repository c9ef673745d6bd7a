// Package di provides dependency injection configuration for the SponsorCheck server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/sponsorcheck/sponsorcheck-server/internal/config"
	"github.com/sponsorcheck/sponsorcheck-server/internal/di/providers"
	"github.com/sponsorcheck/sponsorcheck-server/internal/logger"
	"github.com/sponsorcheck/sponsorcheck-server/internal/quota"
	"github.com/sponsorcheck/sponsorcheck-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideQuotaTracker)

	// Ingestion layer
	do.Provide(injector, providers.ProvideFetcher)
	do.Provide(injector, providers.ProvideImporter)

	// Business services
	do.Provide(injector, providers.ProvideSearchService)
	do.Provide(injector, providers.ProvideSyncService)
	do.Provide(injector, providers.ProvideTelemetryService)

	// Workers
	do.Provide(injector, providers.ProvideScheduledSyncJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the server is
// running. This triggers lazy initialization of every provider.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*quota.Tracker](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.SponsorSearchService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.RegisterSyncService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.TelemetryService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.ScheduledSyncJob](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	providers.EnsureSearchIndex(injector)

	return nil
}
