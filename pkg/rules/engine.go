package rules

import (
	"fmt"

	"github.com/autobrr/qmaint/pkg/action"
	"github.com/autobrr/qmaint/pkg/config"
	"github.com/autobrr/qmaint/pkg/torrent"
)

// Engine evaluates every configured rule against torrent snapshots and
// proposes actions. It is pure: all state it needs is in the snapshot, and
// the same snapshot always yields the same proposals.
type Engine struct {
	rules []*CompiledRule
}

// RuleError reports one rule definition that failed to compile. The rule is
// skipped; valid rules proceed.
type RuleError struct {
	Rule string
	Err  error
}

func (e RuleError) Error() string {
	return fmt.Sprintf("rule %q: %v", e.Rule, e.Err)
}

func NewEngine(configs []config.RuleConfiguration) (*Engine, []RuleError) {
	e := &Engine{}
	var errs []RuleError

	for i, rc := range configs {
		cr, err := Compile(rc, i)
		if err != nil {
			errs = append(errs, RuleError{Rule: rc.Name, Err: err})
			continue
		}
		e.rules = append(e.rules, cr)
	}

	return e, errs
}

func (e *Engine) Len() int {
	return len(e.rules)
}

// Evaluate collects the actions of every matching rule for one torrent.
// Actions whose value is already in effect are still proposed, marked NoOp,
// so that action.Merge resolves the per-kind winner among all matching rules:
// a rule whose value was applied last cycle keeps winning, instead of
// dropping out and letting a lower-priority value through. A second pass over
// an unchanged snapshot therefore still merges down to nothing.
func (e *Engine) Evaluate(t *torrent.Torrent) []action.Proposed {
	var proposals []action.Proposed

	for _, r := range e.rules {
		if !r.Match(t) {
			continue
		}

		proposals = append(proposals, r.propose(t)...)
	}

	return proposals
}

func (r *CompiledRule) propose(t *torrent.Torrent) []action.Proposed {
	base := action.Proposed{
		Instance:    t.Instance,
		Hash:        t.Hash,
		TorrentName: t.Name,
		Source:      r.Name,
		Priority:    r.Priority,
		Seq:         r.Seq,
	}

	var out []action.Proposed

	if r.cfg.ShareLimitRatio != nil || r.cfg.ShareLimitMinutes != nil {
		p := base
		p.Kind = action.KindSetShareLimit
		p.ShareLimitRatio = r.cfg.ShareLimitRatio
		p.ShareLimitMinutes = r.cfg.ShareLimitMinutes
		p.NoOp = shareLimitApplied(t, r.cfg.ShareLimitRatio, r.cfg.ShareLimitMinutes)
		out = append(out, p)
	}

	if r.cfg.UploadKb != nil {
		p := base
		p.Kind = action.KindSetUploadLimit
		p.UploadKb = r.cfg.UploadKb
		p.NoOp = t.UpLimit/1024 == *r.cfg.UploadKb
		out = append(out, p)
	}

	if r.cfg.DownloadKb != nil {
		p := base
		p.Kind = action.KindSetDownloadLimit
		p.DownloadKb = r.cfg.DownloadKb
		p.NoOp = t.DlLimit/1024 == *r.cfg.DownloadKb
		out = append(out, p)
	}

	if r.cfg.AddTag != "" {
		p := base
		p.Kind = action.KindAddTag
		p.Tag = r.cfg.AddTag
		p.NoOp = t.HasTag(r.cfg.AddTag)
		out = append(out, p)
	}

	if r.cfg.Pause {
		p := base
		p.Kind = action.KindPause
		p.NoOp = t.IsPaused()
		out = append(out, p)
	}

	return out
}

func shareLimitApplied(t *torrent.Torrent, ratio *float64, minutes *int64) bool {
	if ratio != nil && t.RatioLimit != *ratio {
		return false
	}
	if minutes != nil && t.SeedingTimeLimit != *minutes {
		return false
	}
	return true
}
