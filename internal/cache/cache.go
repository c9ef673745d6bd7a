// Package cache stores lookup results for a bounded time so repeated
// checks of the same name do not hit the sponsor service.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sponsorcheck/sponsorcheck-server/internal/domain"
)

// DefaultTTL applies when a result carries no quota reset time.
const DefaultTTL = 24 * time.Hour

// Entry is one cached lookup result with its expiry.
type Entry struct {
	Result    domain.LookupResult `json:"result"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// Backend persists cache entries. Get returns (nil, nil) on a miss;
// expiry is the Cache's concern, backends store entries verbatim.
type Backend interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Cache applies TTL semantics over a Backend.
type Cache struct {
	backend Backend
	now     func() time.Time
}

// New creates a cache over backend.
func New(backend Backend) *Cache {
	return &Cache{backend: backend, now: time.Now}
}

// Get returns the cached result for key, or (nil, nil) when absent or
// expired. Expired entries are deleted on read.
func (c *Cache) Get(ctx context.Context, key string) (*domain.LookupResult, error) {
	entry, err := c.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	if !entry.ExpiresAt.After(c.now()) {
		_ = c.backend.Delete(ctx, key)
		return nil, nil
	}
	result := entry.Result
	return &result, nil
}

// Put caches result under key. When resetAt is set and in the future it
// bounds the entry's life; otherwise the default TTL applies. A resetAt
// in the past caches nothing.
func (c *Cache) Put(ctx context.Context, key string, result domain.LookupResult, resetAt time.Time) error {
	now := c.now()
	expiresAt := now.Add(DefaultTTL)
	if !resetAt.IsZero() {
		if !resetAt.After(now) {
			return nil
		}
		expiresAt = resetAt
	}
	return c.backend.Put(ctx, key, Entry{Result: result, ExpiresAt: expiresAt})
}

// Close releases the backend.
func (c *Cache) Close() error {
	return c.backend.Close()
}

// MemoryBackend keeps entries in process memory. Suitable for the
// server-side resolver; CLI runs use the sqlite backend instead.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]Entry)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (m *MemoryBackend) Put(_ context.Context, key string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemoryBackend) Close() error {
	return nil
}
