package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/qmaint/pkg/config"
	"github.com/autobrr/qmaint/pkg/torrent"
)

func sampleTorrent() *torrent.Torrent {
	return &torrent.Torrent{
		Hash:        "abc123",
		Name:        "Some.Release.2160p.WEB-DL",
		Label:       "movies",
		State:       "stalledUP",
		Tags:        []string{"noHL", "keep"},
		Ratio:       2.5,
		TotalBytes:  4 * 1024 * 1024 * 1024,
		Seeds:       12,
		Peers:       3,
		SeedingDays: 14,
		Trackers: []torrent.Tracker{
			{Host: "example.org", Url: "https://tracker.example.org/announce", Message: "working"},
		},
	}
}

func TestCompileRejectsInvalidConditions(t *testing.T) {
	tests := []struct {
		name string
		cond config.ConditionConfiguration
	}{
		{"UnknownAttribute", config.ConditionConfiguration{Attribute: "colour", Operator: "equals", Value: "blue"}},
		{"UnknownOperator", config.ConditionConfiguration{Attribute: "name", Operator: "startsWith", Value: "x"}},
		{"ContainsOnNumeric", config.ConditionConfiguration{Attribute: "ratio", Operator: "contains", Value: 1}},
		{"GreaterThanOnString", config.ConditionConfiguration{Attribute: "name", Operator: "greaterThan", Value: 1}},
		{"MatchesAnyOnNumeric", config.ConditionConfiguration{Attribute: "seeds", Operator: "matchesAny", Value: "1,2"}},
		{"NonNumericValue", config.ConditionConfiguration{Attribute: "ratio", Operator: "greaterThan", Value: "fast"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(config.RuleConfiguration{
				Name:       "bad",
				AddTag:     "x",
				Conditions: []config.ConditionConfiguration{tt.cond},
			}, 0)
			assert.Error(t, err)
		})
	}
}

func TestMatch(t *testing.T) {
	tor := sampleTorrent()

	tests := []struct {
		name string
		cond config.ConditionConfiguration
		want bool
	}{
		{"RatioGreaterThan", config.ConditionConfiguration{Attribute: "ratio", Operator: "greaterThan", Value: 2.0}, true},
		{"RatioLessThan", config.ConditionConfiguration{Attribute: "ratio", Operator: "lessThan", Value: 2.0}, false},
		{"RatioEqualsString", config.ConditionConfiguration{Attribute: "ratio", Operator: "equals", Value: "2.5"}, true},
		{"NameContains", config.ConditionConfiguration{Attribute: "name", Operator: "contains", Value: "web-dl"}, true},
		{"NameEqualsCaseInsensitive", config.ConditionConfiguration{Attribute: "name", Operator: "equals", Value: "some.release.2160p.web-dl"}, true},
		{"LabelNotEquals", config.ConditionConfiguration{Attribute: "label", Operator: "notEquals", Value: "tv"}, true},
		{"TagWholeMatch", config.ConditionConfiguration{Attribute: "tags", Operator: "equals", Value: "nohl"}, true},
		{"TagNoSubstring", config.ConditionConfiguration{Attribute: "tags", Operator: "equals", Value: "no"}, false},
		{"TrackerSubstring", config.ConditionConfiguration{Attribute: "trackers", Operator: "contains", Value: "example"}, true},
		{"TrackerStatusSubstring", config.ConditionConfiguration{Attribute: "tracker_status", Operator: "contains", Value: "work"}, true},
		{"MatchesAnyList", config.ConditionConfiguration{Attribute: "label", Operator: "matchesAny", Value: []interface{}{"tv", "movies"}}, true},
		{"MatchesAnyCommaString", config.ConditionConfiguration{Attribute: "label", Operator: "matchesAny", Value: "tv, movies"}, true},
		{"MatchesAnyMiss", config.ConditionConfiguration{Attribute: "label", Operator: "matchesAny", Value: "tv, music"}, false},
		{"SeedingDaysNumber", config.ConditionConfiguration{Attribute: "seeding_days", Operator: "greaterThan", Value: 7}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cr, err := Compile(config.RuleConfiguration{
				Name:       "r",
				AddTag:     "x",
				Conditions: []config.ConditionConfiguration{tt.cond},
			}, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cr.Match(tor))
		})
	}
}

func TestMatchAllConditionsMustHold(t *testing.T) {
	tor := sampleTorrent()

	cr, err := Compile(config.RuleConfiguration{
		Name:   "r",
		AddTag: "x",
		Conditions: []config.ConditionConfiguration{
			{Attribute: "ratio", Operator: "greaterThan", Value: 2.0},
			{Attribute: "label", Operator: "equals", Value: "tv"},
		},
	}, 0)
	require.NoError(t, err)
	assert.False(t, cr.Match(tor))
}

func TestMatchZeroConditionsIsWildcard(t *testing.T) {
	cr, err := Compile(config.RuleConfiguration{Name: "r", AddTag: "x"}, 0)
	require.NoError(t, err)
	assert.True(t, cr.Match(sampleTorrent()))
	assert.True(t, cr.Match(&torrent.Torrent{Hash: "zzz"}))
}
