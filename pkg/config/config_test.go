package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceIsEnabled(t *testing.T) {
	on, off := true, false

	assert.True(t, (&InstanceConfiguration{}).IsEnabled(), "enabled by default")
	assert.True(t, (&InstanceConfiguration{Enabled: &on}).IsEnabled())
	assert.False(t, (&InstanceConfiguration{Enabled: &off}).IsEnabled())
}

func TestInstanceValidate(t *testing.T) {
	assert.Error(t, (&InstanceConfiguration{}).Validate())
	assert.NoError(t, (&InstanceConfiguration{Url: "http://localhost:8080"}).Validate())
}

func TestRuleValidate(t *testing.T) {
	limit := int64(1024)

	tests := []struct {
		name    string
		rule    RuleConfiguration
		wantErr bool
	}{
		{"NoName", RuleConfiguration{AddTag: "x"}, true},
		{"NoActions", RuleConfiguration{Name: "r"}, true},
		{"TagAction", RuleConfiguration{Name: "r", AddTag: "x"}, false},
		{"PauseAction", RuleConfiguration{Name: "r", Pause: true}, false},
		{"LimitAction", RuleConfiguration{Name: "r", UploadKb: &limit}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	enabled := true
	ratio := 2.0

	cfg := &Configuration{
		Instances: map[string]InstanceConfiguration{
			"main": {
				Url:                 "http://localhost:8080",
				Enabled:             &enabled,
				DownloadPathMapping: map[string]string{"/downloads": "/mnt/downloads"},
			},
		},
		Rules: []RuleConfiguration{{
			Name:            "r",
			ShareLimitRatio: &ratio,
			Conditions: []ConditionConfiguration{
				{Attribute: "label", Operator: "equals", Value: "movies"},
			},
		}},
	}

	snap := cfg.Snapshot()
	require.Len(t, snap.Instances, 1)
	require.Len(t, snap.Rules, 1)

	// mutating the live configuration must not leak into the snapshot
	inst := cfg.Instances["main"]
	inst.DownloadPathMapping["/downloads"] = "/elsewhere"
	*inst.Enabled = false
	cfg.Rules[0].Conditions[0].Value = "tv"
	*cfg.Rules[0].ShareLimitRatio = 9.9

	assert.Equal(t, "/mnt/downloads", snap.Instances["main"].DownloadPathMapping["/downloads"])
	assert.True(t, *snap.Instances["main"].Enabled)
	assert.Equal(t, "movies", snap.Rules[0].Conditions[0].Value)
	assert.Equal(t, 2.0, *snap.Rules[0].ShareLimitRatio)
}
