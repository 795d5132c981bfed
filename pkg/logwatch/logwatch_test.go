package logwatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/qmaint/pkg/client"
)

func TestProcessCapturesRemovals(t *testing.T) {
	w, err := New("main")
	require.NoError(t, err)

	events := w.Process([]client.LogEntry{
		{ID: 1, Timestamp: 1700000000, Message: "'Some.Release.2160p' was removed from transfer list."},
		{ID: 2, Timestamp: 1700000001, Message: "Torrent added: other"},
		{ID: 3, Timestamp: 1700000002, Message: "Torrent 'Another Release' was removed"},
	})

	require.Len(t, events, 2)
	assert.Equal(t, "Some.Release.2160p", events[0].Torrent)
	assert.Equal(t, "Another Release", events[1].Torrent)
	assert.Equal(t, "main", events[0].Instance)
	assert.Equal(t, int64(3), w.LastID())
}

func TestProcessAdvancesCursor(t *testing.T) {
	w, err := New("main")
	require.NoError(t, err)

	assert.Equal(t, int64(-1), w.LastID())

	first := w.Process([]client.LogEntry{
		{ID: 5, Message: "'One' was removed from transfer list."},
	})
	require.Len(t, first, 1)
	assert.Equal(t, int64(5), w.LastID())

	// a re-delivered batch at or below the cursor yields nothing
	second := w.Process([]client.LogEntry{
		{ID: 5, Message: "'One' was removed from transfer list."},
	})
	assert.Empty(t, second)
	assert.Equal(t, int64(5), w.LastID())
}

func TestProcessIgnoresUnrelatedLines(t *testing.T) {
	w, err := New("main")
	require.NoError(t, err)

	events := w.Process([]client.LogEntry{
		{ID: 1, Message: "qBittorrent v5.0 started"},
		{ID: 2, Message: "Torrent 'X' resumed"},
	})

	assert.Empty(t, events)
	assert.Equal(t, int64(2), w.LastID(), "cursor advances past unmatched lines too")
}
