package detector

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/autobrr/qmaint/pkg/action"
	"github.com/autobrr/qmaint/pkg/logger"
	"github.com/autobrr/qmaint/pkg/torrent"
	"github.com/autobrr/qmaint/pkg/torrentfilemap"
)

const (
	KeepByRatio      = "ratio"
	KeepByCompletion = "completion"
)

// CrossSeed pauses duplicate torrents seeding the same underlying content,
// keeping exactly one active. The keeper is chosen by the configured
// strategy; ties fall through to completion time and finally the lowest
// hash, so the result is reproducible for a given snapshot.
type CrossSeed struct {
	keep string
	log  *logrus.Entry
}

func NewCrossSeed(keep string) *CrossSeed {
	if keep != KeepByCompletion {
		keep = KeepByRatio
	}

	return &CrossSeed{
		keep: keep,
		log:  logger.GetLogger("crossseed"),
	}
}

func (d *CrossSeed) Name() string {
	return "crossseed"
}

func (d *CrossSeed) Detect(ctx context.Context, torrents []*torrent.Torrent) []action.Proposed {
	// keyed by instance+hash so the same torrent on two instances sharing
	// storage still counts as two group members
	all := make(map[string]*torrent.Torrent, len(torrents))
	for _, t := range torrents {
		all[t.Instance+"/"+t.Hash] = t
	}

	tfm := torrentfilemap.New(all)

	var proposals []action.Proposed
	for _, group := range tfm.Groups(all) {
		proposals = append(proposals, d.detectGroup(group)...)
	}

	return proposals
}

func (d *CrossSeed) detectGroup(group []*torrent.Torrent) []action.Proposed {
	var active []*torrent.Torrent
	for _, t := range group {
		if !t.IsPaused() {
			active = append(active, t)
		}
	}

	// a single active member needs no intervention; with none active the
	// data is consistent but there is nothing to pause
	if len(active) <= 1 {
		return nil
	}

	keeper := active[0]
	for _, t := range active[1:] {
		if d.wins(t, keeper) {
			keeper = t
		}
	}

	var proposals []action.Proposed
	for _, t := range active {
		if t == keeper {
			continue
		}

		d.log.Debugf("Cross-seed duplicate of %q: pausing %s (%s)", keeper.Name, t.Hash, t.Name)
		proposals = append(proposals, action.Proposed{
			Instance:    t.Instance,
			Hash:        t.Hash,
			TorrentName: t.Name,
			Kind:        action.KindPause,
			Source:      d.Name(),
		})
	}

	return proposals
}

// wins reports whether a beats b for the keeper slot.
func (d *CrossSeed) wins(a, b *torrent.Torrent) bool {
	if d.keep == KeepByCompletion {
		if !a.CompletedOn.Equal(b.CompletedOn) {
			if b.CompletedOn.IsZero() {
				return !a.CompletedOn.IsZero()
			}
			if a.CompletedOn.IsZero() {
				return false
			}
			return a.CompletedOn.Before(b.CompletedOn)
		}
	} else {
		if a.Ratio != b.Ratio {
			return a.Ratio > b.Ratio
		}
		if !a.CompletedOn.Equal(b.CompletedOn) {
			if b.CompletedOn.IsZero() {
				return !a.CompletedOn.IsZero()
			}
			if a.CompletedOn.IsZero() {
				return false
			}
			return a.CompletedOn.Before(b.CompletedOn)
		}
	}

	if a.Hash != b.Hash {
		return a.Hash < b.Hash
	}
	return a.Instance < b.Instance
}
