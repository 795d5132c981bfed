package config

import (
	"errors"
	"time"
)

type SchedulerConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// InstanceConfiguration describes one remote qBittorrent instance and the
// maintenance features enabled for it. The core holds a read-only copy of
// these records per cycle; they are owned by configuration storage.
type InstanceConfiguration struct {
	Url      string `koanf:"url"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Enabled  *bool  `koanf:"enabled"`

	// maps the path prefix qBittorrent reports to the path prefix visible
	// to this process, e.g. /downloads -> /mnt/seedbox/downloads
	DownloadPathMapping map[string]string `koanf:"download_path_mapping"`

	// local download location, required for orphan scans
	DownloadPath string `koanf:"download_path"`

	TagNoHardLinks  bool `koanf:"tag_no_hard_links"`
	PauseCrossSeeds bool `koanf:"pause_cross_seeded"`
	TagUnregistered bool `koanf:"tag_unregistered"`
	WatchLogs       bool `koanf:"watch_logs"`
	MonitorPausedUp bool `koanf:"monitor_paused_up"`
	OrphanScan      bool `koanf:"orphan_scan"`
}

func (i *InstanceConfiguration) IsEnabled() bool {
	return i.Enabled == nil || *i.Enabled
}

func (i *InstanceConfiguration) Validate() error {
	if i.Url == "" {
		return errors.New("instance url is required")
	}
	return nil
}

type HardLinkConfig struct {
	// a torrent must have been complete this long before noHL is added
	GracePeriod time.Duration `koanf:"grace_period"`
}

type CrossSeedConfig struct {
	// tie-break strategy for the torrent kept seeding: ratio | completion
	Keep string `koanf:"keep"`
	// also group duplicates across instances that share storage
	AcrossInstances bool `koanf:"across_instances"`
}

type UnregisteredConfig struct {
	// Statuses overrides the built-in unregistered phrase list when set.
	Statuses []string `koanf:"statuses"`
	// PerTrackerStatuses overrides the list for a single tracker host
	// (case-insensitive). The key is the tracker host.
	PerTrackerStatuses map[string][]string `koanf:"per_tracker_statuses"`
}

type OrphanConfig struct {
	Interval       time.Duration `koanf:"interval"`
	MinAge         time.Duration `koanf:"min_age"`
	IgnorePatterns []string      `koanf:"ignore_patterns"`
}

type EventLogConfig struct {
	// optional JSONL file sink, rotated by size
	Path       string `koanf:"path"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	// entries retained in memory for the status read model
	Keep int `koanf:"keep"`
}

type NotificationsConfig struct {
	Telegram TelegramConfig `koanf:"telegram"`
	Discord  DiscordConfig  `koanf:"discord"`
}

type TelegramConfig struct {
	Enabled  bool   `koanf:"enabled"`
	BotToken string `koanf:"bot_token"`
	ChatID   string `koanf:"chat_id"`
}

type DiscordConfig struct {
	Enabled    bool   `koanf:"enabled"`
	WebhookURL string `koanf:"webhook_url"`
}
