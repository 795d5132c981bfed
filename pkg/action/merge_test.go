package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeKeepsIndependentActions(t *testing.T) {
	proposals := []Proposed{
		{Hash: "a", Kind: KindAddTag, Tag: "noHL", Source: "hardlink"},
		{Hash: "a", Kind: KindPause, Source: "crossseed"},
		{Hash: "b", Kind: KindAddTag, Tag: "noHL", Source: "hardlink"},
	}

	merged, skipped := Merge(proposals)
	assert.Len(t, merged, 3)
	assert.Empty(t, skipped)
}

func TestMergeDifferentTagsDoNotConflict(t *testing.T) {
	proposals := []Proposed{
		{Hash: "a", Kind: KindAddTag, Tag: "noHL", Source: "hardlink"},
		{Hash: "a", Kind: KindRemoveTag, Tag: "unregistered", Source: "unregistered"},
	}

	merged, skipped := Merge(proposals)
	assert.Len(t, merged, 2)
	assert.Empty(t, skipped)
}

func TestMergeSupersedesByPriority(t *testing.T) {
	proposals := []Proposed{
		{Hash: "a", Kind: KindSetUploadLimit, UploadKb: ptr(int64(512)), Source: "low", Priority: 1},
		{Hash: "a", Kind: KindSetUploadLimit, UploadKb: ptr(int64(4096)), Source: "high", Priority: 9},
	}

	merged, skipped := Merge(proposals)
	require.Len(t, merged, 1)
	assert.Equal(t, "high", merged[0].Source)

	require.Len(t, skipped, 1)
	assert.Equal(t, "low", skipped[0].Action.Source)
	assert.Contains(t, skipped[0].Reason, "superseded by high")
}

func TestMergePriorityTieGoesToLowerSeq(t *testing.T) {
	// order of arrival must not matter, only Seq
	proposals := []Proposed{
		{Hash: "a", Kind: KindPause, Source: "later", Priority: 5, Seq: 3},
		{Hash: "a", Kind: KindPause, Source: "earlier", Priority: 5, Seq: 1},
	}

	merged, skipped := Merge(proposals)
	require.Len(t, merged, 1)
	assert.Equal(t, "earlier", merged[0].Source)
	require.Len(t, skipped, 1)
	assert.Equal(t, "later", skipped[0].Action.Source)
}

func TestMergeWinningNoOpSettlesKey(t *testing.T) {
	// the high-priority value is already on the torrent; the low-priority
	// value must not take over, and nothing is emitted for the key
	proposals := []Proposed{
		{Hash: "a", Kind: KindSetUploadLimit, UploadKb: ptr(int64(512)), Source: "low", Priority: 1},
		{Hash: "a", Kind: KindSetUploadLimit, UploadKb: ptr(int64(4096)), Source: "high", Priority: 9, NoOp: true},
	}

	merged, skipped := Merge(proposals)
	assert.Empty(t, merged)
	assert.Empty(t, skipped)
}

func TestMergeLosingNoOpDoesNotBlockWinner(t *testing.T) {
	proposals := []Proposed{
		{Hash: "a", Kind: KindSetUploadLimit, UploadKb: ptr(int64(512)), Source: "low", Priority: 1, NoOp: true},
		{Hash: "a", Kind: KindSetUploadLimit, UploadKb: ptr(int64(4096)), Source: "high", Priority: 9},
	}

	merged, skipped := Merge(proposals)
	require.Len(t, merged, 1)
	assert.Equal(t, "high", merged[0].Source)
	assert.Len(t, skipped, 1)
}

func TestMergeOpposingTagActionsCancelOut(t *testing.T) {
	proposals := []Proposed{
		{Hash: "a", Kind: KindAddTag, Tag: "noHL", Source: "ruleA", Priority: 9},
		{Hash: "a", Kind: KindRemoveTag, Tag: "noHL", Source: "ruleB", Priority: 1},
	}

	merged, skipped := Merge(proposals)
	assert.Empty(t, merged, "neither side of a tag conflict may be applied")

	require.Len(t, skipped, 2)
	for _, o := range skipped {
		assert.Equal(t, ResultSkipped, o.Result)
		assert.Equal(t, "conflicting tag actions", o.Reason)
	}
}

func TestMergeConflictedKeyStaysDead(t *testing.T) {
	proposals := []Proposed{
		{Hash: "a", Kind: KindAddTag, Tag: "noHL", Source: "one"},
		{Hash: "a", Kind: KindRemoveTag, Tag: "noHL", Source: "two"},
		{Hash: "a", Kind: KindAddTag, Tag: "noHL", Source: "three", Priority: 100},
	}

	merged, skipped := Merge(proposals)
	assert.Empty(t, merged)
	assert.Len(t, skipped, 3)
}

func TestMergeOutputOrderIsDeterministic(t *testing.T) {
	proposals := []Proposed{
		{Hash: "b", Kind: KindPause},
		{Hash: "a", Kind: KindRemoveTag, Tag: "zz"},
		{Hash: "a", Kind: KindAddTag, Tag: "aa"},
		{Hash: "a", Kind: KindPause},
	}

	first, _ := Merge(proposals)
	require.Len(t, first, 4)

	assert.Equal(t, "a", first[0].Hash)
	assert.Equal(t, "b", first[3].Hash)

	for range 5 {
		again, _ := Merge(proposals)
		assert.Equal(t, first, again)
	}
}

func TestKeyShapes(t *testing.T) {
	add := Proposed{Hash: "h", Kind: KindAddTag, Tag: "x"}
	remove := Proposed{Hash: "h", Kind: KindRemoveTag, Tag: "x"}
	pause := Proposed{Hash: "h", Kind: KindPause}

	assert.Equal(t, add.Key(), remove.Key(), "opposing tag actions must share a key")
	assert.NotEqual(t, add.Key(), pause.Key())

	elsewhere := Proposed{Instance: "other", Hash: "h", Kind: KindPause}
	assert.NotEqual(t, pause.Key(), elsewhere.Key(), "same hash on another instance is a different torrent")
}

func ptr[T any](v T) *T { return &v }
