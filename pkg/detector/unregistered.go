package detector

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/autobrr/qmaint/pkg/action"
	"github.com/autobrr/qmaint/pkg/logger"
	"github.com/autobrr/qmaint/pkg/torrent"
	"github.com/autobrr/qmaint/pkg/tracker"
)

// Unregistered tags torrents whose tracker reports them as no longer
// registered, and removes the tag once the tracker reports them healthy
// again. Tracker-down statuses and unknown messages produce no action.
type Unregistered struct {
	classifier *torrent.StatusClassifier
	verifyAPI  bool
	log        *logrus.Entry
}

func NewUnregistered(classifier *torrent.StatusClassifier, verifyAPI bool) *Unregistered {
	return &Unregistered{
		classifier: classifier,
		verifyAPI:  verifyAPI,
		log:        logger.GetLogger("unregistered"),
	}
}

func (d *Unregistered) Name() string {
	return "unregistered"
}

func (d *Unregistered) Detect(ctx context.Context, torrents []*torrent.Torrent) []action.Proposed {
	return detectEach(ctx, torrents, func(t *torrent.Torrent) []action.Proposed {
		return d.detect(ctx, t)
	})
}

func (d *Unregistered) detect(ctx context.Context, t *torrent.Torrent) []action.Proposed {
	if len(t.Trackers) == 0 {
		return nil
	}

	unregistered, msg := d.classifier.IsUnregistered(t)

	if !unregistered && d.verifyAPI {
		unregistered = d.verifyWithAPI(ctx, t)
	}

	tagged := t.HasTag(TagUnregistered)

	if unregistered {
		if tagged {
			return nil
		}

		d.log.Debugf("Torrent %q unregistered: %q", t.Name, msg)
		return []action.Proposed{{
			Instance:    t.Instance,
			Hash:        t.Hash,
			TorrentName: t.Name,
			Kind:        action.KindAddTag,
			Tag:         TagUnregistered,
			Source:      d.Name(),
		}}
	}

	// only remove the tag when we actually have a usable announce; no
	// data or a tracker outage is not evidence of re-registration
	if tagged && d.classifier.HasAnnounceData(t) {
		return []action.Proposed{{
			Instance:    t.Instance,
			Hash:        t.Hash,
			TorrentName: t.Name,
			Kind:        action.KindRemoveTag,
			Tag:         TagUnregistered,
			Source:      d.Name(),
		}}
	}

	return nil
}

func (d *Unregistered) verifyWithAPI(ctx context.Context, t *torrent.Torrent) bool {
	for _, tr := range t.Trackers {
		api := tracker.Get(tr.Host)
		if api == nil {
			continue
		}

		unregistered, err := api.IsUnregistered(ctx, t.Hash)
		if err != nil {
			d.log.WithError(err).Debugf("Tracker API check failed for %q", t.Name)
			continue
		}
		if unregistered {
			return true
		}
	}

	return false
}
