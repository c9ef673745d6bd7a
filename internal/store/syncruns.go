package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/sponsorcheck/sponsorcheck-server/internal/domain"
)

// SetLastSyncRun records the most recent completed register sync.
func (s *Store) SetLastSyncRun(run *domain.SyncRun) error {
	if err := s.set([]byte(syncRunKey), run); err != nil {
		return fmt.Errorf("set last sync run: %w", err)
	}
	return nil
}

// GetLastSyncRun returns the most recent completed register sync, or
// (nil, nil) when no sync has completed yet.
func (s *Store) GetLastSyncRun() (*domain.SyncRun, error) {
	var run domain.SyncRun
	err := s.get([]byte(syncRunKey), &run)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last sync run: %w", err)
	}
	return &run, nil
}
