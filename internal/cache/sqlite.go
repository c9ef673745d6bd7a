package cache

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sponsorcheck/sponsorcheck-server/internal/domain"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS lookup_cache (
	key        TEXT PRIMARY KEY,
	result     TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lookup_cache_expires ON lookup_cache (expires_at);
`

// SQLiteBackend persists cache entries in a local sqlite file so the
// CLI keeps its cache across runs.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (and if needed creates) the cache database at
// path.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	// The cache is single-user; one connection avoids sqlite write locks.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (s *SQLiteBackend) Get(ctx context.Context, key string) (*Entry, error) {
	var (
		payload   string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT result, expires_at FROM lookup_cache WHERE key = ?`, key,
	).Scan(&payload, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache entry: %w", err)
	}

	var result domain.LookupResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return &Entry{Result: result, ExpiresAt: time.Unix(expiresAt, 0)}, nil
}

func (s *SQLiteBackend) Put(ctx context.Context, key string, entry Entry) error {
	payload, err := json.Marshal(entry.Result)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lookup_cache (key, result, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET result = excluded.result, expires_at = excluded.expires_at`,
		key, string(payload), entry.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteBackend) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM lookup_cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// Prune removes every expired entry.
func (s *SQLiteBackend) Prune(ctx context.Context, now time.Time) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM lookup_cache WHERE expires_at <= ?`, now.Unix()); err != nil {
		return fmt.Errorf("prune cache: %w", err)
	}
	return nil
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
