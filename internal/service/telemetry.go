package service

import (
	"log/slog"
	"time"

	"github.com/sponsorcheck/sponsorcheck-server/internal/domain"
	"github.com/sponsorcheck/sponsorcheck-server/internal/id"
	"github.com/sponsorcheck/sponsorcheck-server/internal/store"
)

// TelemetryService records anonymous usage events.
type TelemetryService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewTelemetryService creates a new telemetry service.
func NewTelemetryService(st *store.Store, logger *slog.Logger) *TelemetryService {
	return &TelemetryService{store: st, logger: logger}
}

// Record stores one event. The client key identifies an installation,
// never a person; no name or query text is accepted here.
func (s *TelemetryService) Record(clientKey, eventType string, status domain.LookupStatus) error {
	event := &domain.TelemetryEvent{
		ID:        id.MustGenerate("evt"),
		ClientKey: clientKey,
		EventType: eventType,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.RecordTelemetryEvent(event); err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to record telemetry event", "error", err)
		}
		return err
	}
	return nil
}
