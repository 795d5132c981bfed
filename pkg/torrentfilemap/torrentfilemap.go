package torrentfilemap

import (
	"sort"
	"strings"
	"sync"

	"github.com/autobrr/qmaint/pkg/torrent"
)

// TorrentFileMap indexes which torrents reference which files, so torrents
// seeding the same underlying content can be grouped. Entries are keyed by
// instance plus hash: the same torrent added to two instances counts twice.
// The map is built once from a snapshot and read-only afterwards.
type TorrentFileMap struct {
	torrentFileMap map[string]map[string]*torrent.Torrent
	pathCache      sync.Map
}

func uid(t *torrent.Torrent) string {
	return t.Instance + "/" + t.Hash
}

func New(torrents map[string]*torrent.Torrent) *TorrentFileMap {
	tfm := &TorrentFileMap{
		torrentFileMap: make(map[string]map[string]*torrent.Torrent),
	}

	for _, t := range torrents {
		tfm.add(t)
	}

	return tfm
}

func (t *TorrentFileMap) add(tor *torrent.Torrent) {
	for _, f := range tor.Files {
		if _, exists := t.torrentFileMap[f]; exists {
			t.torrentFileMap[f][uid(tor)] = tor
			continue
		}

		t.torrentFileMap[f] = map[string]*torrent.Torrent{
			uid(tor): tor,
		}
	}
}

// HasPath reports whether any torrent references the given local path,
// translating torrent-side paths through the mapping first. Results are
// cached per path for the lifetime of the map.
func (t *TorrentFileMap) HasPath(path string, torrentPathMapping map[string]string) bool {
	if val, found := t.pathCache.Load(path); found {
		return val.(bool)
	}

	var found bool
	if len(torrentPathMapping) == 0 {
		found = t.hasPathDirect(path)
	} else {
		found = t.hasPathWithMapping(path, torrentPathMapping)
	}

	t.pathCache.Store(path, found)

	return found
}

func (t *TorrentFileMap) hasPathDirect(path string) bool {
	for torrentPath := range t.torrentFileMap {
		if strings.Contains(torrentPath, path) {
			return true
		}
	}
	return false
}

func (t *TorrentFileMap) hasPathWithMapping(path string, torrentPathMapping map[string]string) bool {
	for torrentPath := range t.torrentFileMap {
		for mapFrom, mapTo := range torrentPathMapping {
			if strings.Contains(strings.Replace(torrentPath, mapFrom, mapTo, 1), path) {
				return true
			}
		}
	}
	return false
}

// Groups partitions the given torrents into disjoint sets that share at
// least one file, directly or transitively. Groups and their members come
// back in a deterministic order so detection results are reproducible. The
// map keys of torrents are ignored; only the values matter.
func (t *TorrentFileMap) Groups(torrents map[string]*torrent.Torrent) [][]*torrent.Torrent {
	all := make(map[string]*torrent.Torrent, len(torrents))
	for _, tor := range torrents {
		all[uid(tor)] = tor
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	visited := make(map[string]bool, len(all))
	var groups [][]*torrent.Torrent

	for _, id := range ids {
		if visited[id] {
			continue
		}

		group := t.collectGroup(all[id], all, visited)
		if len(group) > 1 {
			sort.Slice(group, func(i, j int) bool { return uid(group[i]) < uid(group[j]) })
			groups = append(groups, group)
		}
	}

	return groups
}

func (t *TorrentFileMap) collectGroup(start *torrent.Torrent, all map[string]*torrent.Torrent, visited map[string]bool) []*torrent.Torrent {
	var group []*torrent.Torrent

	queue := []*torrent.Torrent{start}
	visited[uid(start)] = true

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		group = append(group, cur)

		for _, f := range cur.Files {
			for id := range t.torrentFileMap[f] {
				if visited[id] {
					continue
				}
				visited[id] = true

				if sibling, ok := all[id]; ok {
					queue = append(queue, sibling)
				}
			}
		}
	}

	return group
}

func (t *TorrentFileMap) Length() int {
	return len(t.torrentFileMap)
}
