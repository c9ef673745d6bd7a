package store

import (
	"encoding/json/v2"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/sponsorcheck/sponsorcheck-server/internal/domain"
)

// RecordTelemetryEvent appends one anonymous usage event.
func (s *Store) RecordTelemetryEvent(event *domain.TelemetryEvent) error {
	key := []byte(telemetryPrefix + event.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000000") + ":" + event.ID)
	if err := s.set(key, event); err != nil {
		return fmt.Errorf("record telemetry event: %w", err)
	}
	return nil
}

// ListTelemetryEvents returns up to limit events in insertion order.
// A limit of 0 means no cap.
func (s *Store) ListTelemetryEvents(limit int) ([]*domain.TelemetryEvent, error) {
	prefix := []byte(telemetryPrefix)
	var events []*domain.TelemetryEvent

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(events) >= limit {
				return nil
			}
			var event domain.TelemetryEvent
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			})
			if err != nil {
				return err
			}
			events = append(events, &event)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list telemetry events: %w", err)
	}
	return events, nil
}
