package detector

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/autobrr/qmaint/pkg/action"
	"github.com/autobrr/qmaint/pkg/logger"
	"github.com/autobrr/qmaint/pkg/torrent"
)

// LinkCounter reports the lowest hardlink count across a torrent's files.
// The second return is false when link data is missing for any file; the
// detector then abstains for that torrent.
type LinkCounter interface {
	MinLinks(t *torrent.Torrent) (uint64, bool)
}

// HardLink tags torrents whose files have no additional hardlink (nothing
// else references the data) with noHL, and removes the tag once links
// appear. A torrent must have been complete for the grace period before the
// tag is added, so files a library manager has not linked yet are left alone.
type HardLink struct {
	counter LinkCounter
	grace   time.Duration
	now     func() time.Time
	log     *logrus.Entry
}

func NewHardLink(counter LinkCounter, grace time.Duration) *HardLink {
	return &HardLink{
		counter: counter,
		grace:   grace,
		now:     time.Now,
		log:     logger.GetLogger("hardlink"),
	}
}

func (d *HardLink) Name() string {
	return "hardlink"
}

func (d *HardLink) Detect(ctx context.Context, torrents []*torrent.Torrent) []action.Proposed {
	return detectEach(ctx, torrents, d.detect)
}

func (d *HardLink) detect(t *torrent.Torrent) []action.Proposed {
	if !t.Downloaded {
		return nil
	}

	minLinks, ok := d.counter.MinLinks(t)
	if !ok {
		// missing link data, never guess
		d.log.Tracef("No link data for %s: %s", t.Hash, t.Name)
		return nil
	}

	tagged := t.HasTag(TagNoHardLinks)

	if minLinks <= 1 {
		if tagged {
			return nil
		}

		if t.CompletedOn.IsZero() || d.now().Sub(t.CompletedOn) < d.grace {
			return nil
		}

		return []action.Proposed{{
			Instance:    t.Instance,
			Hash:        t.Hash,
			TorrentName: t.Name,
			Kind:        action.KindAddTag,
			Tag:         TagNoHardLinks,
			Source:      d.Name(),
		}}
	}

	// every file has at least one extra link
	if tagged {
		return []action.Proposed{{
			Instance:    t.Instance,
			Hash:        t.Hash,
			TorrentName: t.Name,
			Kind:        action.KindRemoveTag,
			Tag:         TagNoHardLinks,
			Source:      d.Name(),
		}}
	}

	return nil
}
