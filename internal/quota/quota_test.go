package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTake_WithinLimit(t *testing.T) {
	tr := New()
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	tr.now = fixedClock(now)

	for i := 0; i < 3; i++ {
		allowed, resetAt := tr.Take("client-a", 3)
		assert.True(t, allowed, "request %d should be allowed", i)
		assert.Equal(t, time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC), resetAt)
	}
}

func TestTake_OverLimit(t *testing.T) {
	tr := New()
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	tr.now = fixedClock(now)

	tr.Take("client-a", 1)
	allowed, resetAt := tr.Take("client-a", 1)

	assert.False(t, allowed)
	assert.Equal(t, now.Truncate(time.Hour).Add(time.Hour), resetAt)
}

func TestTake_DeniedDoesNotConsume(t *testing.T) {
	tr := New()
	tr.now = fixedClock(time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC))

	tr.Take("client-a", 1)
	tr.Take("client-a", 1)
	tr.Take("client-a", 1)

	// The window holds exactly the one allowed request, so a raised
	// limit admits the next request immediately.
	allowed, _ := tr.Take("client-a", 2)
	assert.True(t, allowed)
}

func TestTake_NewWindowResets(t *testing.T) {
	tr := New()
	first := time.Date(2026, 3, 14, 10, 59, 0, 0, time.UTC)
	tr.now = fixedClock(first)

	allowed, _ := tr.Take("client-a", 1)
	assert.True(t, allowed)
	allowed, _ = tr.Take("client-a", 1)
	assert.False(t, allowed)

	// Next hour starts a fresh window.
	tr.now = fixedClock(first.Add(2 * time.Minute))
	allowed, resetAt := tr.Take("client-a", 1)
	assert.True(t, allowed)
	assert.Equal(t, time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), resetAt)
}

func TestTake_IndependentKeys(t *testing.T) {
	tr := New()
	tr.now = fixedClock(time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC))

	tr.Take("client-a", 1)
	allowed, _ := tr.Take("client-b", 1)
	assert.True(t, allowed)
}

func TestRemaining(t *testing.T) {
	tr := New()
	tr.now = fixedClock(time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC))

	assert.Equal(t, 2, tr.Remaining("client-a", 2))
	tr.Take("client-a", 2)
	assert.Equal(t, 1, tr.Remaining("client-a", 2))
	tr.Take("client-a", 2)
	assert.Equal(t, 0, tr.Remaining("client-a", 2))
}

func TestPrune(t *testing.T) {
	tr := New()
	first := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	tr.now = fixedClock(first)

	tr.Take("client-a", 1)
	tr.Take("client-b", 1)
	assert.Equal(t, 2, tr.Len())

	tr.now = fixedClock(first.Add(time.Hour))
	tr.Take("client-b", 1)
	tr.Prune()

	assert.Equal(t, 1, tr.Len())
}
