package hardlinkfilemap

import (
	"os"
	"strings"

	"github.com/scylladb/go-set/strset"

	"github.com/autobrr/qmaint/pkg/logger"
	"github.com/autobrr/qmaint/pkg/torrent"
)

func New(torrents map[string]*torrent.Torrent, torrentPathMapping map[string]string) HardlinkFileMapI {
	tfm := &HardlinkFileMap{
		hardlinkFileMap:    make(map[string]*strset.Set),
		log:                logger.GetLogger("hardlinkfilemap"),
		torrentPathMapping: torrentPathMapping,
	}

	for _, t := range torrents {
		tfm.AddByTorrent(t)
	}

	return tfm
}

func (t *HardlinkFileMap) considerPathMapping(path string) string {
	for mapFrom, mapTo := range t.torrentPathMapping {
		if strings.HasPrefix(path, mapFrom) {
			return strings.Replace(path, mapFrom, mapTo, 1)
		}
	}

	return path
}

func (t *HardlinkFileMap) linkInfoByPath(path string) (string, uint64, bool) {
	stat, err1 := os.Stat(path)
	if err1 != nil {
		t.log.Warnf("Failed to stat file: %s - %s", path, err1)
		return "", 0, false
	}

	id, nlink, err2 := LinkInfo(stat, path)
	if err2 != nil {
		t.log.Warnf("Failed to get file identifier: %s - %s", path, err2)
		return "", 0, false
	}

	return id, nlink, true
}

func (t *HardlinkFileMap) AddByTorrent(tor *torrent.Torrent) {
	if !tor.Downloaded {
		return
	}

	for _, f := range tor.Files {
		f = t.considerPathMapping(f)

		id, _, ok := t.linkInfoByPath(f)
		if !ok {
			continue
		}

		if _, exists := t.hardlinkFileMap[id]; exists {
			// file id already associated with other paths
			t.hardlinkFileMap[id].Add(f)
			continue
		}

		// file id has not been seen before, create id entry
		t.hardlinkFileMap[id] = strset.New(f)
	}
}

func (t *HardlinkFileMap) RemoveByTorrent(tor *torrent.Torrent) {
	if !tor.Downloaded {
		return
	}

	for _, f := range tor.Files {
		f = t.considerPathMapping(f)

		id, _, ok := t.linkInfoByPath(f)
		if !ok {
			continue
		}

		if _, exists := t.hardlinkFileMap[id]; exists {
			// remove this path from the id entry
			t.hardlinkFileMap[id].Remove(f)

			// remove id entry if no more paths
			if t.hardlinkFileMap[id].Size() == 0 {
				delete(t.hardlinkFileMap, id)
			}
		}
	}
}

func (t *HardlinkFileMap) countLinks(f string) (inmap uint64, total uint64, ok bool) {
	f = t.considerPathMapping(f)
	id, nlink, ok := t.linkInfoByPath(f)

	if !ok {
		return 0, 0, false
	}

	if paths, exists := t.hardlinkFileMap[id]; exists {
		return uint64(paths.Size()), nlink, true
	}

	return 0, nlink, true
}

// MinLinks returns the lowest filesystem link count across the torrent's
// files. ok is false when any file could not be inspected; callers must
// treat that as missing data and abstain rather than act on it.
func (t *HardlinkFileMap) MinLinks(tor *torrent.Torrent) (uint64, bool) {
	if !tor.Downloaded || len(tor.Files) == 0 {
		return 0, false
	}

	min := ^uint64(0)
	for _, f := range tor.Files {
		_, total, ok := t.countLinks(f)
		if !ok {
			return 0, false
		}

		if total < min {
			min = total
		}
	}

	return min, true
}

func (t *HardlinkFileMap) Length() int {
	return len(t.hardlinkFileMap)
}
