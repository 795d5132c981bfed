package torrentfilemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/qmaint/pkg/torrent"
)

func mapOf(torrents ...*torrent.Torrent) map[string]*torrent.Torrent {
	m := make(map[string]*torrent.Torrent, len(torrents))
	for _, t := range torrents {
		m[t.Hash] = t
	}
	return m
}

func TestLengthCountsUniqueFiles(t *testing.T) {
	a := &torrent.Torrent{Hash: "a", Files: []string{"/dl/one.mkv"}}
	b := &torrent.Torrent{Hash: "b", Files: []string{"/dl/one.mkv", "/dl/two.mkv"}}

	tfm := New(mapOf(a, b))
	assert.Equal(t, 2, tfm.Length())
}

func TestGroupsDirectAndTransitive(t *testing.T) {
	a := &torrent.Torrent{Hash: "a", Files: []string{"/dl/one.mkv"}}
	b := &torrent.Torrent{Hash: "b", Files: []string{"/dl/one.mkv", "/dl/two.mkv"}}
	c := &torrent.Torrent{Hash: "c", Files: []string{"/dl/two.mkv"}}
	d := &torrent.Torrent{Hash: "d", Files: []string{"/dl/four.mkv"}}

	all := mapOf(a, b, c, d)
	tfm := New(all)

	groups := tfm.Groups(all)
	require.Len(t, groups, 1, "singletons are not groups")

	hashes := make([]string, 0, 3)
	for _, m := range groups[0] {
		hashes = append(hashes, m.Hash)
	}
	assert.Equal(t, []string{"a", "b", "c"}, hashes, "members come back hash-ordered")
}

func TestGroupsDeterministic(t *testing.T) {
	a := &torrent.Torrent{Hash: "a", Files: []string{"/dl/one.mkv"}}
	b := &torrent.Torrent{Hash: "b", Files: []string{"/dl/one.mkv"}}
	c := &torrent.Torrent{Hash: "c", Files: []string{"/dl/two.mkv"}}
	d := &torrent.Torrent{Hash: "d", Files: []string{"/dl/two.mkv"}}

	all := mapOf(a, b, c, d)
	tfm := New(all)

	first := tfm.Groups(all)
	for range 10 {
		assert.Equal(t, first, tfm.Groups(all))
	}
}

func TestHasPath(t *testing.T) {
	a := &torrent.Torrent{Hash: "a", Files: []string{"/downloads/release/file.mkv"}}
	tfm := New(mapOf(a))

	assert.True(t, tfm.HasPath("/downloads/release/file.mkv", nil))
	assert.True(t, tfm.HasPath("/downloads/release", nil))
	assert.False(t, tfm.HasPath("/downloads/other", nil))
}

func TestHasPathWithMapping(t *testing.T) {
	// the client reports /downloads, locally mounted at /mnt/seedbox/downloads
	a := &torrent.Torrent{Hash: "a", Files: []string{"/downloads/release/file.mkv"}}
	tfm := New(mapOf(a))

	mapping := map[string]string{"/downloads": "/mnt/seedbox/downloads"}

	assert.True(t, tfm.HasPath("/mnt/seedbox/downloads/release/file.mkv", mapping))
	assert.True(t, tfm.HasPath("/mnt/seedbox/downloads/release", mapping))
	assert.False(t, tfm.HasPath("/mnt/seedbox/downloads/other", mapping))
}
