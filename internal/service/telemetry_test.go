package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sponsorcheck/sponsorcheck-server/internal/domain"
	"github.com/sponsorcheck/sponsorcheck-server/internal/store"
)

func TestTelemetryRecord(t *testing.T) {
	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	svc := NewTelemetryService(st, nil)
	require.NoError(t, svc.Record("client-1", "lookup", domain.StatusLikely))
	require.NoError(t, svc.Record("client-1", "lookup", domain.StatusNotFound))

	events, err := st.ListTelemetryEvents(0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "client-1", events[0].ClientKey)
	assert.Equal(t, "lookup", events[0].EventType)
	assert.NotEmpty(t, events[0].ID)
}
