package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json/v2"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/sponsorcheck/sponsorcheck-server/internal/domain"
)

// sponsorKey builds the database key for a record. The normalized name
// comes first so that all registrations sharing a name form one key
// range; the fingerprint distinguishes distinct registrations (same
// organisation licensed in several towns or on several routes).
func sponsorKey(rec *domain.SponsorRecord) []byte {
	return []byte(sponsorPrefix + rec.NameNormalized + ":" + fingerprint(rec))
}

// fingerprint derives a stable identity for one registration from the
// natural key of a register row: published name, sponsor type, route,
// town, and county, compared exactly. Rows that differ in any of these
// coexist; re-importing the same row always lands on the same key, so
// imports are idempotent.
func fingerprint(rec *domain.SponsorRecord) string {
	h := sha256.New()
	for _, part := range []string{rec.NameOriginal, rec.SponsorType, rec.Route, rec.TownCity, rec.County} {
		h.Write([]byte(part))
		h.Write([]byte{0x1f})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// UpsertSponsors writes a batch of records using Badger's WriteBatch.
// Existing registrations with the same identity are overwritten.
func (s *Store) UpsertSponsors(ctx context.Context, records []*domain.SponsorRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal sponsor: %w", err)
		}
		if err := wb.Set(sponsorKey(rec), data); err != nil {
			return fmt.Errorf("batch set sponsor: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush sponsor batch: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "sponsor batch flushed",
			slog.Int("count", len(records)),
		)
	}
	return nil
}

// GetSponsorsByNormalizedName returns every registration stored under
// one normalized name.
func (s *Store) GetSponsorsByNormalizedName(normalized string) ([]*domain.SponsorRecord, error) {
	prefix := []byte(sponsorPrefix + normalized + ":")
	var records []*domain.SponsorRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec domain.SponsorRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			records = append(records, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate sponsors for %q: %w", normalized, err)
	}
	return records, nil
}

// ForEachSponsor streams every stored record to fn. Used to rebuild the
// search index on startup. Iteration stops on the first error from fn.
func (s *Store) ForEachSponsor(ctx context.Context, fn func(*domain.SponsorRecord) error) error {
	prefix := []byte(sponsorPrefix)

	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec domain.SponsorRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			if err := fn(&rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// CountSponsors returns the number of stored registrations.
func (s *Store) CountSponsors() (int, error) {
	prefix := []byte(sponsorPrefix)
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
