// Package quota tracks per-client lookup allowances over fixed hourly
// windows. Unlike a token bucket it reports when the current window
// resets, which callers surface to clients so they can back off until
// a known time.
package quota

import (
	"sync"
	"time"
)

// window counts requests inside one fixed hour.
type window struct {
	start time.Time
	count int
}

// Tracker counts requests per key over fixed hourly windows.
type Tracker struct {
	mu      sync.RWMutex
	windows map[string]*window

	// now is replaceable in tests.
	now func() time.Time
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Take records one request for key against limit. It returns whether
// the request is allowed and when the current window resets. A request
// that is denied does not consume quota.
func (t *Tracker) Take(key string, limit int) (allowed bool, resetAt time.Time) {
	now := t.now()
	start := now.Truncate(time.Hour)

	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows[key]
	if !ok || w.start.Before(start) {
		w = &window{start: start}
		t.windows[key] = w
	}

	resetAt = w.start.Add(time.Hour)
	if w.count >= limit {
		return false, resetAt
	}

	w.count++
	return true, resetAt
}

// Remaining reports the unused quota for key under limit without
// consuming any.
func (t *Tracker) Remaining(key string, limit int) int {
	start := t.now().Truncate(time.Hour)

	t.mu.RLock()
	defer t.mu.RUnlock()

	w, ok := t.windows[key]
	if !ok || w.start.Before(start) {
		return limit
	}
	if w.count >= limit {
		return 0
	}
	return limit - w.count
}

// Prune drops windows that ended before now. Call it periodically so
// one-off client keys do not accumulate.
func (t *Tracker) Prune() {
	start := t.now().Truncate(time.Hour)

	t.mu.Lock()
	defer t.mu.Unlock()

	for key, w := range t.windows {
		if w.start.Before(start) {
			delete(t.windows, key)
		}
	}
}

// Len reports the number of tracked keys.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.windows)
}
