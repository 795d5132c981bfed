package torrent

import (
	"strings"
	"time"

	"github.com/autobrr/qmaint/pkg/sliceutils"
)

// Tracker is one announce endpoint of a torrent together with the message
// returned on the last announce.
type Tracker struct {
	Host    string `json:"Host"`
	Url     string `json:"Url"`
	Message string `json:"Message"`
}

// Torrent is an immutable point-in-time view of one torrent on one instance.
// It is built fresh on every poll cycle and superseded by the next cycle's
// snapshot; nothing mutates it in between.
type Torrent struct {
	Hash     string `json:"Hash"`
	Name     string `json:"Name"`
	Instance string `json:"Instance"`

	State       string    `json:"State"`
	SavePath    string    `json:"SavePath"`
	ContentPath string    `json:"ContentPath"`
	Files       []string  `json:"Files"`
	Tags        []string  `json:"Tags"`
	Trackers    []Tracker `json:"Trackers"`
	Label       string    `json:"Label"`

	TotalBytes      int64   `json:"TotalBytes"`
	DownloadedBytes int64   `json:"DownloadedBytes"`
	Ratio           float64 `json:"Ratio"`
	Seeds           int64   `json:"Seeds"`
	Peers           int64   `json:"Peers"`

	AddedSeconds   int64   `json:"AddedSeconds"`
	AddedDays      float32 `json:"AddedDays"`
	SeedingSeconds int64   `json:"SeedingSeconds"`
	SeedingDays    float32 `json:"SeedingDays"`

	// zero when the torrent has not finished downloading
	CompletedOn time.Time `json:"CompletedOn"`

	Downloaded bool `json:"Downloaded"`
	Seeding    bool `json:"Seeding"`

	// currently applied limits, used for no-op suppression
	UpLimit          int64   `json:"UpLimit"`          // bytes/s, -1 unlimited
	DlLimit          int64   `json:"DlLimit"`          // bytes/s, -1 unlimited
	RatioLimit       float64 `json:"RatioLimit"`       // -2 global default, -1 unlimited
	SeedingTimeLimit int64   `json:"SeedingTimeLimit"` // minutes, -2 global default
	IsPrivate        bool    `json:"IsPrivate"`
	Comment          string  `json:"Comment"`
}

func (t *Torrent) HasTag(tag string) bool {
	return sliceutils.StringSliceContains(t.Tags, tag, true)
}

func (t *Torrent) TrackerHosts() []string {
	hosts := make([]string, 0, len(t.Trackers))
	for _, tr := range t.Trackers {
		hosts = append(hosts, tr.Host)
	}
	return hosts
}

func (t *Torrent) TrackerMessages() []string {
	msgs := make([]string, 0, len(t.Trackers))
	for _, tr := range t.Trackers {
		msgs = append(msgs, tr.Message)
	}
	return msgs
}

func (t *Torrent) IsPaused() bool {
	state := strings.ToLower(t.State)
	return strings.Contains(state, "paused") || strings.Contains(state, "stopped")
}

// Active reports whether the torrent is unpaused and transferring or able to
// transfer (downloading or seeding).
func (t *Torrent) Active() bool {
	return !t.IsPaused() && (t.Seeding || !t.Downloaded || strings.Contains(strings.ToLower(t.State), "up"))
}
