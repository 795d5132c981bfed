package action

import (
	"fmt"
	"time"
)

// Kind identifies what a proposed action does to a torrent. At most one
// action per key (kind, or kind+tag for tag actions) is applied to a torrent
// in one cycle.
type Kind string

const (
	KindAddTag           Kind = "addTag"
	KindRemoveTag        Kind = "removeTag"
	KindPause            Kind = "pause"
	KindSetShareLimit    Kind = "setShareLimit"
	KindSetUploadLimit   Kind = "setUploadLimit"
	KindSetDownloadLimit Kind = "setDownloadLimit"

	// KindFetch is only used for the synthetic outcome recorded when an
	// instance could not be fetched at all.
	KindFetch Kind = "fetch"
)

// Proposed is one intended mutation of one torrent, produced by the rule
// engine or a detector and consumed within the same cycle.
type Proposed struct {
	Instance    string
	Hash        string
	TorrentName string

	Kind Kind

	Tag               string
	ShareLimitRatio   *float64
	ShareLimitMinutes *int64
	UploadKb          *int64
	DownloadKb        *int64

	// originating rule or detector, plus its priority for conflict
	// resolution; Seq breaks priority ties by definition order.
	Source   string
	Priority int
	Seq      int

	// the source's value is already in effect. No-op proposals still take
	// part in conflict resolution so a lower-priority value cannot replace
	// an applied higher-priority one; a winning no-op settles its key.
	NoOp bool
}

// Key collapses actions that may not coexist on the same torrent in one
// cycle. Tag actions are keyed per tag so unrelated tags do not conflict.
// The instance is part of the key: the same hash on two instances is two
// torrents.
func (p Proposed) Key() string {
	switch p.Kind {
	case KindAddTag, KindRemoveTag:
		return p.Instance + "/" + p.Hash + "/tag/" + p.Tag
	default:
		return p.Instance + "/" + p.Hash + "/" + string(p.Kind)
	}
}

func (p Proposed) Describe() string {
	switch p.Kind {
	case KindAddTag:
		return fmt.Sprintf("add tag %q", p.Tag)
	case KindRemoveTag:
		return fmt.Sprintf("remove tag %q", p.Tag)
	case KindPause:
		return "pause"
	case KindSetShareLimit:
		ratio, minutes := float64(-2), int64(-2)
		if p.ShareLimitRatio != nil {
			ratio = *p.ShareLimitRatio
		}
		if p.ShareLimitMinutes != nil {
			minutes = *p.ShareLimitMinutes
		}
		return fmt.Sprintf("set share limit ratio=%.2f minutes=%d", ratio, minutes)
	case KindSetUploadLimit:
		return fmt.Sprintf("set upload limit %d KiB/s", *p.UploadKb)
	case KindSetDownloadLimit:
		return fmt.Sprintf("set download limit %d KiB/s", *p.DownloadKb)
	default:
		return string(p.Kind)
	}
}

type Result string

const (
	ResultApplied Result = "applied"
	ResultSkipped Result = "skipped"
	ResultFailed  Result = "failed"
)

// Outcome records what happened to one proposed action. Appended to the
// event log; never mutated afterwards.
type Outcome struct {
	Action Proposed
	Result Result
	Reason string
	Err    error
	Time   time.Time
}

func Applied(p Proposed) Outcome {
	return Outcome{Action: p, Result: ResultApplied, Time: time.Now()}
}

func Skipped(p Proposed, reason string) Outcome {
	return Outcome{Action: p, Result: ResultSkipped, Reason: reason, Time: time.Now()}
}

func Failed(p Proposed, err error) Outcome {
	o := Outcome{Action: p, Result: ResultFailed, Err: err, Time: time.Now()}
	if err != nil {
		o.Reason = err.Error()
	}
	return o
}
