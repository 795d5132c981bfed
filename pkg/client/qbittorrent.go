package client

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	qbit "github.com/autobrr/go-qbittorrent"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/qmaint/pkg/action"
	"github.com/autobrr/qmaint/pkg/config"
	"github.com/autobrr/qmaint/pkg/logger"
	"github.com/autobrr/qmaint/pkg/sliceutils"
	"github.com/autobrr/qmaint/pkg/torrent"
	"github.com/autobrr/qmaint/pkg/tracker"
)

/* Struct */

type QBittorrent struct {
	name   string
	url    string
	dryRun bool

	log    *logrus.Entry
	client *qbit.Client

	// lazily initialised session for endpoints the library does not cover
	logs *logSession
}

/* Initializer */

func NewQBittorrent(name string, cfg config.InstanceConfiguration, dryRun bool) (Interface, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("instance %s: %w", name, err)
	}

	url := strings.TrimSuffix(cfg.Url, "/")

	return &QBittorrent{
		name:   name,
		url:    url,
		dryRun: dryRun,
		log:    logger.GetLogger(name),
		client: qbit.NewClient(qbit.Config{
			Host:          url,
			Username:      cfg.User,
			Password:      cfg.Password,
			TLSSkipVerify: true,
			BasicUser:     cfg.User,
			BasicPass:     cfg.Password,
			Log:           nil,
		}),
		logs: newLogSession(url, cfg.User, cfg.Password),
	}, nil
}

/* Interface */

func (c *QBittorrent) Type() string {
	return "qBittorrent"
}

func (c *QBittorrent) Connect(context.Context) error {
	if err := c.client.Login(); err != nil {
		return classify(fmt.Errorf("login: %w", err))
	}

	apiVersion, err := c.client.GetWebAPIVersion()
	if err != nil {
		return classify(fmt.Errorf("get api version: %w", err))
	}

	c.log.Debugf("API Version: %v", apiVersion)
	return nil
}

// withRelogin retries a call once after re-authenticating, covering expired
// sessions. When re-authentication or the retried call fails on auth again,
// the instance counts as unreachable for this cycle and is retried next cycle.
func (c *QBittorrent) withRelogin(call func() error) error {
	err := call()
	if err == nil || !isAuthError(err) {
		return err
	}

	c.log.Debugf("Session expired, re-authenticating")
	if lerr := c.client.Login(); lerr != nil {
		return errors.Join(ErrUnreachable, fmt.Errorf("re-login: %w", lerr))
	}

	err = call()
	if isAuthError(err) {
		return errors.Join(ErrUnreachable, err)
	}

	return err
}

func (c *QBittorrent) GetTorrents(ctx context.Context) (map[string]*torrent.Torrent, error) {
	c.log.Tracef("Retrieving torrents...")

	var list []qbit.Torrent
	err := c.withRelogin(func() error {
		var err error
		list, err = c.client.GetTorrentsCtx(ctx, qbit.TorrentFilterOptions{IncludeTrackers: true})
		return err
	})
	if err != nil {
		return nil, classify(fmt.Errorf("get torrents: %w", err))
	}
	c.log.Tracef("Retrieved %d torrents", len(list))

	torrents := make(map[string]*torrent.Torrent, len(list))
	for _, t := range list {
		// get additional torrent details
		td, err := c.client.GetTorrentPropertiesCtx(ctx, t.Hash)
		if err != nil {
			return nil, classify(fmt.Errorf("get torrent properties: %v: %w", t.Hash, err))
		}

		tf, err := c.client.GetFilesInformationCtx(ctx, t.Hash)
		if err != nil {
			return nil, classify(fmt.Errorf("get torrent files: %v: %w", t.Hash, err))
		}

		trackers := t.Trackers

		// qBittorrent v5.1+ populates trackers via includeTrackers; older
		// versions need a per-torrent fetch
		if len(trackers) == 0 {
			ts, err := c.client.GetTorrentTrackersCtx(ctx, t.Hash)
			if err != nil {
				return nil, classify(fmt.Errorf("get torrent trackers: %v: %w", t.Hash, err))
			}
			trackers = ts
		}

		var trs []torrent.Tracker
		for _, tr := range trackers {
			// skip disabled trackers
			if strings.Contains(tr.Url, "[DHT]") || strings.Contains(tr.Url, "[LSD]") ||
				strings.Contains(tr.Url, "[PeX]") {
				continue
			}

			trs = append(trs, torrent.Tracker{
				Host:    tracker.ParseDomain(tr.Url),
				Url:     tr.Url,
				Message: tr.Message,
			})
		}

		// added time
		addedTimeSecs := int64(time.Since(time.Unix(int64(td.AdditionDate), 0)).Seconds())

		seedingTime := time.Duration(td.SeedingTime) * time.Second

		// torrent files, as the remote sees them; path mapping to local paths
		// happens at the point of filesystem access
		var files []string
		for _, f := range *tf {
			files = append(files, filepath.Join(td.SavePath, f.Name))
		}

		var tags []string
		if t.Tags == "" {
			tags = []string{}
		} else {
			tags = strings.Split(t.Tags, ", ")
		}

		var completedOn time.Time
		if t.CompletionOn > 0 {
			completedOn = time.Unix(t.CompletionOn, 0)
		}

		torrents[t.Hash] = &torrent.Torrent{
			Hash:            t.Hash,
			Name:            t.Name,
			Instance:        c.name,
			State:           string(t.State),
			SavePath:        td.SavePath,
			ContentPath:     t.ContentPath,
			Files:           files,
			Tags:            tags,
			Trackers:        trs,
			Label:           t.Category,
			TotalBytes:      t.Size,
			DownloadedBytes: td.TotalDownloaded,
			Ratio:           td.ShareRatio,
			Seeds:           int64(td.SeedsTotal),
			Peers:           int64(td.PeersTotal),
			AddedSeconds:    addedTimeSecs,
			AddedDays:       float32(addedTimeSecs) / 60 / 60 / 24,
			SeedingSeconds:  int64(seedingTime.Seconds()),
			SeedingDays:     float32(seedingTime.Seconds()) / 60 / 60 / 24,
			CompletedOn:     completedOn,
			Downloaded: !sliceutils.StringSliceContains([]string{
				"downloading",
				"stalledDL",
				"queuedDL",
				"pausedDL",
				"stoppedDL",
				"checkingDL",
			}, string(t.State), true),
			Seeding: sliceutils.StringSliceContains([]string{
				"uploading",
				"stalledUP",
			}, string(t.State), true),
			UpLimit:          int64(td.UpLimit),
			DlLimit:          int64(td.DlLimit),
			RatioLimit:       float64(t.RatioLimit),
			SeedingTimeLimit: t.SeedingTimeLimit,
			IsPrivate:        td.IsPrivate,
			Comment:          td.Comment,
		}
	}

	return torrents, nil
}

func (c *QBittorrent) CreateTags(ctx context.Context, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	err := c.withRelogin(func() error {
		return c.client.CreateTagsCtx(ctx, tags)
	})
	if err != nil {
		return classify(fmt.Errorf("create torrent tags: %v: %w", tags, err))
	}

	return nil
}

// ApplyAction performs one mutation against the remote client. It never
// returns an error: failures become failed outcomes so the rest of the
// cycle's actions still run.
func (c *QBittorrent) ApplyAction(ctx context.Context, p action.Proposed) action.Outcome {
	if c.dryRun {
		c.log.Infof("[dry-run] %s: %s (%s)", p.Hash, p.Describe(), p.TorrentName)
		return action.Skipped(p, "dry-run")
	}

	err := c.withRelogin(func() error {
		return c.apply(ctx, p)
	})
	if err != nil {
		c.log.WithError(err).Warnf("Failed action %s on %s (%s)", p.Describe(), p.Hash, p.TorrentName)
		return action.Failed(p, classify(err))
	}

	c.log.Infof("%s: %s (%s)", p.Hash, p.Describe(), p.TorrentName)
	return action.Applied(p)
}

func (c *QBittorrent) apply(ctx context.Context, p action.Proposed) error {
	hashes := []string{p.Hash}

	switch p.Kind {
	case action.KindAddTag:
		return c.client.AddTagsCtx(ctx, hashes, p.Tag)
	case action.KindRemoveTag:
		return c.client.RemoveTagsCtx(ctx, hashes, p.Tag)
	case action.KindPause:
		return c.client.PauseCtx(ctx, hashes)
	case action.KindSetShareLimit:
		// -2 keeps the client's global default for fields the action omits
		ratio, minutes := float64(-2), int64(-2)
		if p.ShareLimitRatio != nil {
			ratio = *p.ShareLimitRatio
		}
		if p.ShareLimitMinutes != nil {
			minutes = *p.ShareLimitMinutes
		}
		return c.client.SetTorrentShareLimitCtx(ctx, hashes, ratio, minutes, -2)
	case action.KindSetUploadLimit:
		return c.client.SetTorrentUploadLimitCtx(ctx, hashes, *p.UploadKb*1024)
	case action.KindSetDownloadLimit:
		return c.client.SetTorrentDownloadLimitCtx(ctx, hashes, *p.DownloadKb*1024)
	default:
		return fmt.Errorf("unsupported action kind: %s", p.Kind)
	}
}

func (c *QBittorrent) GetMainLog(ctx context.Context, sinceID int64) ([]LogEntry, error) {
	entries, err := c.logs.mainLog(ctx, sinceID)
	if err != nil {
		return nil, classify(fmt.Errorf("get main log: %w", err))
	}

	return entries, nil
}
