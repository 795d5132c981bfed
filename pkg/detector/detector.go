package detector

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/autobrr/qmaint/pkg/action"
	"github.com/autobrr/qmaint/pkg/torrent"
)

const (
	TagNoHardLinks  = "noHL"
	TagUnregistered = "unregistered"
)

// Detector analyzes one instance's torrent snapshots and proposes actions.
// Detectors are pure over the snapshot: they never talk to the instance and
// never act on partial data.
type Detector interface {
	Name() string
	Detect(ctx context.Context, torrents []*torrent.Torrent) []action.Proposed
}

// detectEach runs fn for every torrent with bounded parallelism and collects
// the proposals in deterministic (hash) order.
func detectEach(ctx context.Context, torrents []*torrent.Torrent, fn func(*torrent.Torrent) []action.Proposed) []action.Proposed {
	results := make([][]action.Proposed, len(torrents))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	var mu sync.Mutex
	for i, t := range torrents {
		g.Go(func() error {
			out := fn(t)

			mu.Lock()
			results[i] = out
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var proposals []action.Proposed
	for _, r := range results {
		proposals = append(proposals, r...)
	}
	return proposals
}

// sortTorrents returns the snapshot as a hash-ordered slice so every
// detector sees torrents in the same order on every run.
func sortTorrents(torrents map[string]*torrent.Torrent) []*torrent.Torrent {
	out := make([]*torrent.Torrent, 0, len(torrents))
	for _, t := range torrents {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	return out
}

// Sorted exposes sortTorrents for callers assembling detector input.
func Sorted(torrents map[string]*torrent.Torrent) []*torrent.Torrent {
	return sortTorrents(torrents)
}
