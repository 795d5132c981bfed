package rules

import (
	"github.com/autobrr/qmaint/pkg/torrent"
)

// attributeKind fixes the comparison semantics of an attribute up front.
// Numeric attributes compare numerically, set attributes by membership; the
// evaluator never infers a type from the rule value.
type attributeKind int

const (
	kindString attributeKind = iota
	kindNumber
	kindSet
)

type attributeSpec struct {
	kind attributeKind

	// substring membership for set attributes (trackers, announce
	// messages); tags always match whole, case-insensitive
	substring bool

	str func(t *torrent.Torrent) string
	num func(t *torrent.Torrent) float64
	set func(t *torrent.Torrent) []string
}

// attributes is the closed set of torrent attributes a rule may reference.
var attributes = map[string]attributeSpec{
	"name":  {kind: kindString, str: func(t *torrent.Torrent) string { return t.Name }},
	"label": {kind: kindString, str: func(t *torrent.Torrent) string { return t.Label }},
	"state": {kind: kindString, str: func(t *torrent.Torrent) string { return t.State }},

	"tags": {kind: kindSet, set: func(t *torrent.Torrent) []string { return t.Tags }},
	"trackers": {kind: kindSet, substring: true,
		set: func(t *torrent.Torrent) []string { return t.TrackerHosts() }},
	"tracker_status": {kind: kindSet, substring: true,
		set: func(t *torrent.Torrent) []string { return t.TrackerMessages() }},

	"ratio":       {kind: kindNumber, num: func(t *torrent.Torrent) float64 { return t.Ratio }},
	"total_bytes": {kind: kindNumber, num: func(t *torrent.Torrent) float64 { return float64(t.TotalBytes) }},
	"seeding_days": {kind: kindNumber,
		num: func(t *torrent.Torrent) float64 { return float64(t.SeedingDays) }},
	"seeding_seconds": {kind: kindNumber,
		num: func(t *torrent.Torrent) float64 { return float64(t.SeedingSeconds) }},
	"added_days": {kind: kindNumber,
		num: func(t *torrent.Torrent) float64 { return float64(t.AddedDays) }},
	"seeds": {kind: kindNumber, num: func(t *torrent.Torrent) float64 { return float64(t.Seeds) }},
	"peers": {kind: kindNumber, num: func(t *torrent.Torrent) float64 { return float64(t.Peers) }},
}
