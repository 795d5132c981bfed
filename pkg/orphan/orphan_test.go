package orphan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/qmaint/pkg/config"
	"github.com/autobrr/qmaint/pkg/torrent"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))
	return path
}

func newScannerAt(t *testing.T, cfg config.OrphanConfig, now time.Time) *Scanner {
	t.Helper()
	s, err := NewScanner(cfg)
	require.NoError(t, err)
	s.now = func() time.Time { return now }
	return s
}

func orphanPaths(orphans []Orphan) []string {
	out := make([]string, 0, len(orphans))
	for _, o := range orphans {
		out = append(out, o.Path)
	}
	return out
}

func TestScanReportsUnreferencedFiles(t *testing.T) {
	dir := t.TempDir()

	kept := writeFile(t, dir, "release/file.mkv")
	stray := writeFile(t, dir, "stray.bin")

	torrents := map[string]*torrent.Torrent{
		"abc": {Hash: "abc", Files: []string{kept}},
	}

	// far future, so min_age never filters here
	s := newScannerAt(t, config.OrphanConfig{MinAge: time.Hour}, time.Now().Add(48*time.Hour))

	orphans := s.Scan(torrents, dir, nil)
	assert.Equal(t, []string{stray}, orphanPaths(orphans))
}

func TestScanSkipsHardLinkedTorrentData(t *testing.T) {
	dir := t.TempDir()

	seeded := writeFile(t, dir, "release/file.mkv")
	linked := filepath.Join(dir, "library-copy.mkv")
	require.NoError(t, os.Link(seeded, linked))
	stray := writeFile(t, dir, "stray.bin")

	torrents := map[string]*torrent.Torrent{
		"abc": {Hash: "abc", Files: []string{seeded}},
	}

	s := newScannerAt(t, config.OrphanConfig{}, time.Now().Add(48*time.Hour))

	orphans := s.Scan(torrents, dir, nil)
	assert.NotContains(t, orphanPaths(orphans), linked,
		"a hard link to seeded data is the same data, not an orphan")
	assert.Contains(t, orphanPaths(orphans), stray)
}

func TestScanRespectsMinAge(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fresh.bin")

	s := newScannerAt(t, config.OrphanConfig{MinAge: time.Hour}, time.Now())

	orphans := s.Scan(map[string]*torrent.Torrent{}, dir, nil)
	assert.Empty(t, orphans, "files inside min_age are not reported")
}

func TestScanIgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "stray.bin")
	writeFile(t, dir, "keepme.part")

	s := newScannerAt(t, config.OrphanConfig{
		IgnorePatterns: []string{`\.part$`},
	}, time.Now().Add(48*time.Hour))

	orphans := s.Scan(map[string]*torrent.Torrent{}, dir, nil)
	assert.Equal(t, []string{filepath.Join(dir, "stray.bin")}, orphanPaths(orphans))
}

func TestScanAppliesPathMapping(t *testing.T) {
	dir := t.TempDir()
	local := writeFile(t, dir, "release/file.mkv")

	// the instance reports its own path; mapping translates it to ours
	torrents := map[string]*torrent.Torrent{
		"abc": {Hash: "abc", Files: []string{"/downloads/release/file.mkv"}},
	}
	mapping := map[string]string{"/downloads": dir}

	s := newScannerAt(t, config.OrphanConfig{}, time.Now().Add(48*time.Hour))

	orphans := s.Scan(torrents, dir, mapping)
	assert.NotContains(t, orphanPaths(orphans), local)
}

func TestScanWithoutDownloadPath(t *testing.T) {
	s := newScannerAt(t, config.OrphanConfig{}, time.Now())
	assert.Nil(t, s.Scan(map[string]*torrent.Torrent{}, "", nil))
}

func TestScanDeepestFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/b/deep.bin")
	writeFile(t, dir, "shallow.bin")

	s := newScannerAt(t, config.OrphanConfig{}, time.Now().Add(48*time.Hour))

	orphans := s.Scan(map[string]*torrent.Torrent{}, dir, nil)
	require.NotEmpty(t, orphans)
	assert.Equal(t, filepath.Join(dir, "a/b/deep.bin"), orphans[0].Path)
}
