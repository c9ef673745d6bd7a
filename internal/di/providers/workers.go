package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/sponsorcheck/sponsorcheck-server/internal/config"
	"github.com/sponsorcheck/sponsorcheck-server/internal/logger"
	"github.com/sponsorcheck/sponsorcheck-server/internal/service"
)

// ScheduledSyncJob runs the register sync on a fixed interval.
type ScheduledSyncJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *ScheduledSyncJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideScheduledSyncJob provides the periodic register sync. An
// interval of 0 disables scheduling; syncs then only run via the HTTP
// trigger.
func ProvideScheduledSyncJob(i do.Injector) (*ScheduledSyncJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	syncService := do.MustInvoke[*service.RegisterSyncService](i)

	ctx, cancel := context.WithCancel(context.Background())

	if cfg.Register.SyncInterval <= 0 {
		log.Info("Scheduled register sync disabled")
		return &ScheduledSyncJob{cancel: cancel}, nil
	}

	go func() {
		ticker := time.NewTicker(cfg.Register.SyncInterval)
		defer ticker.Stop()

		// Sync on startup only when the store has never been populated.
		if lastRun, err := syncService.LastRun(); err != nil {
			log.Warn("Could not read last sync run", "error", err)
		} else if lastRun == nil {
			runScheduledSync(ctx, syncService, log)
		}

		for {
			select {
			case <-ticker.C:
				runScheduledSync(ctx, syncService, log)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Scheduled register sync started", "interval", cfg.Register.SyncInterval)

	return &ScheduledSyncJob{cancel: cancel}, nil
}

func runScheduledSync(ctx context.Context, syncService *service.RegisterSyncService, log *logger.Logger) {
	message, err := syncService.Run(ctx)
	if err != nil {
		log.Error("Scheduled register sync failed", "error", err)
		return
	}
	log.Info("Scheduled register sync finished", "result", message)
}
