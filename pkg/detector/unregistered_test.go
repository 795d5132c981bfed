package detector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/qmaint/pkg/action"
	"github.com/autobrr/qmaint/pkg/torrent"
)

func defaultClassifier() *torrent.StatusClassifier {
	return torrent.NewStatusClassifier(nil, nil)
}

func withMessage(hash, msg string, tags ...string) *torrent.Torrent {
	return &torrent.Torrent{
		Hash: hash,
		Name: "x",
		Tags: tags,
		Trackers: []torrent.Tracker{
			{Host: "example.org", Url: "https://tracker.example.org/announce", Message: msg},
		},
	}
}

func TestUnregisteredTagsKnownPhrase(t *testing.T) {
	d := NewUnregistered(defaultClassifier(), false)

	tests := []struct {
		name string
		msg  string
		want int
	}{
		{"NotRegistered", "This torrent is not registered with this tracker", 1},
		{"Unregistered", "Unregistered torrent", 1},
		{"Deleted", "Torrent has been deleted", 1},
		{"UnknownMessage", "unknown error", 0},
		{"Working", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proposals := d.Detect(context.Background(),
				[]*torrent.Torrent{withMessage("a", tt.msg)})
			assert.Len(t, proposals, tt.want)

			if tt.want == 1 {
				assert.Equal(t, action.KindAddTag, proposals[0].Kind)
				assert.Equal(t, TagUnregistered, proposals[0].Tag)
			}
		})
	}
}

func TestUnregisteredFailsClosedOnTrackerTrouble(t *testing.T) {
	d := NewUnregistered(defaultClassifier(), false)

	// outage messages must neither add nor remove the tag
	for _, msg := range []string{"tracker is down", "connection timed out", "service unavailable"} {
		proposals := d.Detect(context.Background(), []*torrent.Torrent{
			withMessage("a", msg),
			withMessage("b", msg, TagUnregistered),
		})
		assert.Empty(t, proposals, "message %q must produce no action", msg)
	}
}

func TestUnregisteredRemovesTagOnceHealthy(t *testing.T) {
	d := NewUnregistered(defaultClassifier(), false)

	proposals := d.Detect(context.Background(), []*torrent.Torrent{
		withMessage("a", "announce ok", TagUnregistered),
	})

	require.Len(t, proposals, 1)
	assert.Equal(t, action.KindRemoveTag, proposals[0].Kind)
	assert.Equal(t, TagUnregistered, proposals[0].Tag)
}

func TestUnregisteredNoAnnounceDataKeepsTag(t *testing.T) {
	d := NewUnregistered(defaultClassifier(), false)

	// empty message means no verdict either way
	proposals := d.Detect(context.Background(), []*torrent.Torrent{
		withMessage("a", "", TagUnregistered),
	})

	assert.Empty(t, proposals)
}

func TestUnregisteredAlreadyTaggedIsNoOp(t *testing.T) {
	d := NewUnregistered(defaultClassifier(), false)

	proposals := d.Detect(context.Background(), []*torrent.Torrent{
		withMessage("a", "torrent not found", TagUnregistered),
	})

	assert.Empty(t, proposals)
}

func TestUnregisteredSkipsTrackerlessTorrents(t *testing.T) {
	d := NewUnregistered(defaultClassifier(), false)

	proposals := d.Detect(context.Background(), []*torrent.Torrent{
		{Hash: "a", Name: "dht only"},
	})

	assert.Empty(t, proposals)
}

func TestUnregisteredPerTrackerOverride(t *testing.T) {
	classifier := torrent.NewStatusClassifier(nil, map[string][]string{
		"example.org": {"gone for good"},
	})
	d := NewUnregistered(classifier, false)

	// override replaces the default list for that host
	proposals := d.Detect(context.Background(), []*torrent.Torrent{
		withMessage("a", "gone for good"),
		withMessage("b", "torrent not found"),
	})

	require.Len(t, proposals, 1)
	assert.Equal(t, "a", proposals[0].Hash)
}
