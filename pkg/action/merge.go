package action

import (
	"fmt"
	"sort"
	"strings"
)

// Merge deduplicates proposed actions per torrent. For each key the proposal
// from the highest-priority source wins; priority ties go to the earliest
// defined source. The winner is chosen among every proposal for the key,
// including no-ops, so that once a high-priority value is applied its source
// keeps winning and a lower-priority value can never take over. A winning
// no-op settles the key: the torrent already carries the desired value and
// nothing is emitted for it. An add-tag and a remove-tag of the same tag on
// the same torrent cancel out: both are dropped so a wrong write can never
// happen.
//
// The surviving actions are returned in a deterministic order (hash, kind,
// tag); superseded proposals come back as skipped outcomes for the event log.
func Merge(proposals []Proposed) ([]Proposed, []Outcome) {
	groups := make(map[string][]Proposed, len(proposals))
	for _, p := range proposals {
		groups[p.Key()] = append(groups[p.Key()], p)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var merged []Proposed
	var skipped []Outcome

	for _, k := range keys {
		group := groups[k]

		// opposing tag actions on the same tag are a conflict, not a
		// priority contest; drop the whole key
		if conflicting(group) {
			for _, p := range group {
				skipped = append(skipped, Skipped(p, "conflicting tag actions"))
			}
			continue
		}

		win := 0
		for i, p := range group {
			if p.Priority > group[win].Priority ||
				(p.Priority == group[win].Priority && p.Seq < group[win].Seq) {
				win = i
			}
		}

		// the winning value is already in effect: state matches desired
		// state, nothing to apply and nothing to report
		if group[win].NoOp {
			continue
		}

		for i, p := range group {
			if i != win {
				skipped = append(skipped, Skipped(p, fmt.Sprintf("superseded by %s", group[win].Source)))
			}
		}
		merged = append(merged, group[win])
	}

	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.Hash != b.Hash {
			return a.Hash < b.Hash
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return strings.ToLower(a.Tag) < strings.ToLower(b.Tag)
	})

	return merged, skipped
}

func conflicting(group []Proposed) bool {
	for _, p := range group[1:] {
		if p.Kind != group[0].Kind {
			return true
		}
	}
	return false
}
