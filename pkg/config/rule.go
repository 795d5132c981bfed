package config

import "errors"

// ConditionConfiguration is one {attribute, operator, value} comparison. All
// conditions of a rule must hold (conjunctive). A rule with zero conditions
// matches every torrent.
type ConditionConfiguration struct {
	Attribute string      `koanf:"attribute"`
	Operator  string      `koanf:"operator"`
	Value     interface{} `koanf:"value"`
}

// RuleConfiguration is a user-defined seeding rule: a predicate set plus the
// action applied to matching torrents. Rules are immutable during a cycle.
type RuleConfiguration struct {
	Name       string                   `koanf:"name"`
	Priority   int                      `koanf:"priority"`
	Conditions []ConditionConfiguration `koanf:"conditions"`

	// action fields; at least one must be set
	ShareLimitRatio   *float64 `koanf:"share_limit_ratio"`
	ShareLimitMinutes *int64   `koanf:"share_limit_minutes"`
	UploadKb          *int64   `koanf:"upload_kb"`
	DownloadKb        *int64   `koanf:"download_kb"`
	AddTag            string   `koanf:"add_tag"`
	Pause             bool     `koanf:"pause"`
}

func (r *RuleConfiguration) Validate() error {
	if r.Name == "" {
		return errors.New("rule name is required")
	}

	if r.ShareLimitRatio == nil && r.ShareLimitMinutes == nil && r.UploadKb == nil &&
		r.DownloadKb == nil && r.AddTag == "" && !r.Pause {
		return errors.New("rule has no action")
	}

	return nil
}
