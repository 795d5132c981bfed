package config

import (
	"maps"
	"time"
)

// Snapshot is the immutable per-cycle view of instances and rules. A cycle
// works off one snapshot from start to finish; configuration changes produce
// a new snapshot and take effect on the next cycle, never mid-cycle.
type Snapshot struct {
	Taken     time.Time
	Instances map[string]InstanceConfiguration
	Rules     []RuleConfiguration
}

func (c *Configuration) Snapshot() *Snapshot {
	s := &Snapshot{
		Taken:     time.Now(),
		Instances: make(map[string]InstanceConfiguration, len(c.Instances)),
		Rules:     make([]RuleConfiguration, 0, len(c.Rules)),
	}

	for name, inst := range c.Instances {
		inst.DownloadPathMapping = maps.Clone(inst.DownloadPathMapping)
		if inst.Enabled != nil {
			enabled := *inst.Enabled
			inst.Enabled = &enabled
		}
		s.Instances[name] = inst
	}

	for _, r := range c.Rules {
		r.Conditions = append([]ConditionConfiguration(nil), r.Conditions...)
		r.ShareLimitRatio = cloneP(r.ShareLimitRatio)
		r.ShareLimitMinutes = cloneP(r.ShareLimitMinutes)
		r.UploadKb = cloneP(r.UploadKb)
		r.DownloadKb = cloneP(r.DownloadKb)
		s.Rules = append(s.Rules, r)
	}

	return s
}

func cloneP[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
