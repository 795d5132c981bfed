package orphan

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/scylladb/go-set/strset"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/qmaint/pkg/config"
	"github.com/autobrr/qmaint/pkg/hardlinkfilemap"
	"github.com/autobrr/qmaint/pkg/logger"
	"github.com/autobrr/qmaint/pkg/paths"
	"github.com/autobrr/qmaint/pkg/regex"
	"github.com/autobrr/qmaint/pkg/torrent"
	"github.com/autobrr/qmaint/pkg/torrentfilemap"
)

// Orphan is a file or folder in the download location that no torrent on the
// instance references. The scanner only reports; nothing is ever removed.
type Orphan struct {
	Path         string
	Size         int64
	IsFile       bool
	ModifiedTime time.Time
}

type Scanner struct {
	cfg    config.OrphanConfig
	ignore []*regex.Pattern
	now    func() time.Time
	log    *logrus.Entry
}

func NewScanner(cfg config.OrphanConfig) (*Scanner, error) {
	ignore, err := regex.CompileAll(cfg.IgnorePatterns)
	if err != nil {
		return nil, err
	}

	return &Scanner{
		cfg:    cfg,
		ignore: ignore,
		now:    time.Now,
		log:    logger.GetLogger("orphan"),
	}, nil
}

// Scan walks downloadPath and reports every file and folder not referenced
// by any torrent in the snapshot. Entries modified within min_age are left
// out so data still being written is not reported.
func (s *Scanner) Scan(torrents map[string]*torrent.Torrent, downloadPath string, pathMapping map[string]string) []Orphan {
	if downloadPath == "" {
		s.log.Debug("No download path configured, skipping scan")
		return nil
	}

	tfm := torrentfilemap.New(torrents)
	s.log.Debugf("Mapped torrents to %d unique torrent files", tfm.Length())

	inodes := s.torrentInodes(torrents, pathMapping)
	s.log.Debugf("Collected %d torrent data inodes", inodes.Size())

	localPaths, totalSize := paths.InFolder(downloadPath, true, true, nil)
	s.log.Debugf("Retrieved %d paths (%s) from: %q",
		len(localPaths), humanize.IBytes(totalSize), downloadPath)

	var orphans []Orphan
	for _, p := range localPaths {
		if strings.EqualFold(p.Path, downloadPath) {
			continue
		}

		if tfm.HasPath(p.Path, pathMapping) {
			continue
		}

		// a file outside any torrent's layout can still be the same data,
		// hard-linked there by an importer; sharing an inode with torrent
		// data means it is not an orphan
		if !p.IsDir && s.sharesInode(p.Path, inodes) {
			s.log.Tracef("Path shares an inode with torrent data, skipping: %q", p.Path)
			continue
		}

		if s.isIgnored(p.Path) {
			s.log.Tracef("Path matches ignore pattern, skipping: %q", p.Path)
			continue
		}

		if s.cfg.MinAge > 0 && s.now().Sub(p.ModifiedTime) < s.cfg.MinAge {
			s.log.Tracef("Path is younger than min age, skipping: %q", p.Path)
			continue
		}

		orphans = append(orphans, Orphan{
			Path:         p.Path,
			Size:         p.Size,
			IsFile:       !p.IsDir,
			ModifiedTime: p.ModifiedTime,
		})
	}

	// deepest paths first, same order a cleanup by hand would use
	sort.Slice(orphans, func(i, j int) bool {
		if len(orphans[i].Path) != len(orphans[j].Path) {
			return len(orphans[i].Path) > len(orphans[j].Path)
		}
		return orphans[i].Path < orphans[j].Path
	})

	return orphans
}

// torrentInodes stats every mapped torrent file and collects its device and
// inode id. Files that fail to stat are skipped; a missing torrent file
// cannot vouch for anything on disk.
func (s *Scanner) torrentInodes(torrents map[string]*torrent.Torrent, pathMapping map[string]string) *strset.Set {
	ids := strset.New()

	for _, t := range torrents {
		for _, f := range t.Files {
			local := mapPath(f, pathMapping)

			fi, err := os.Stat(local)
			if err != nil {
				continue
			}

			id, _, err := hardlinkfilemap.LinkInfo(fi, local)
			if err != nil {
				s.log.WithError(err).Tracef("Failed resolving link info for %q", local)
				continue
			}

			ids.Add(id)
		}
	}

	return ids
}

func (s *Scanner) sharesInode(path string, ids *strset.Set) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}

	id, _, err := hardlinkfilemap.LinkInfo(fi, path)
	if err != nil {
		return false
	}

	return ids.Has(id)
}

func mapPath(path string, pathMapping map[string]string) string {
	for from, to := range pathMapping {
		if strings.HasPrefix(path, from) {
			return strings.Replace(path, from, to, 1)
		}
	}
	return path
}

func (s *Scanner) isIgnored(path string) bool {
	match, err := regex.CheckAny(path, s.ignore)
	if err != nil {
		s.log.WithError(err).Warnf("Failed matching ignore patterns against %q", path)
		return false
	}
	return match
}
