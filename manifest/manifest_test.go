package manifest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentkernel/capability"
	"github.com/hupe1980/agentkernel/core"
)

func TestParseFullManifest(t *testing.T) {
	data := []byte(`
name: deploy-watcher
description: Watches deploy keys and reacts.
model: claude-sonnet-4
system_prompt: You watch deployments.
capabilities:
  - file_read:/var/log/*
  - memory_read:deploy/*
  - agent_spawn
  - spend:25
schedule:
  kind: proactive
  conditions:
    - memory:deploy/*
    - event:agent_terminated
heartbeat_interval: 30s
quiet_hours: "22:00-06:00"
triggers:
  - condition: event:system
    prompt: "Investigate: {{event}}"
    max_fires: 5
`)

	m, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "deploy-watcher", m.Name)
	assert.Equal(t, core.ScheduleProactive, m.Schedule.Kind)
	assert.Equal(t, 30*time.Second, m.HeartbeatInterval)
	assert.Equal(t, "22:00-06:00", m.QuietHours)

	caps, err := m.CapabilitySet()
	require.NoError(t, err)
	require.Len(t, caps, 4)
	assert.Equal(t, capability.FileRead("/var/log/*"), caps[0])
	assert.Equal(t, capability.AgentSpawn(), caps[2])
	assert.Equal(t, capability.Spend(25), caps[3])

	require.Len(t, m.Triggers, 1)
	assert.Equal(t, uint64(5), m.Triggers[0].MaxFires)
}

func TestParseMinimalManifest(t *testing.T) {
	m, err := Parse([]byte("name: helper"))
	require.NoError(t, err)

	assert.Equal(t, core.Reactive(), m.ScheduleOrDefault())

	caps, err := m.CapabilitySet()
	require.NoError(t, err)
	assert.Empty(t, caps)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "model: gpt-4o",
			want: "name is required",
		},
		{
			name: "unknown capability",
			yaml: "name: x\ncapabilities: [teleport:anywhere]",
			want: "unknown capability kind",
		},
		{
			name: "pattern capability without pattern",
			yaml: "name: x\ncapabilities: [file_read]",
			want: "pattern is required",
		},
		{
			name: "numeric capability with bad limit",
			yaml: "name: x\ncapabilities: [\"spend:lots\"]",
			want: "limit must be numeric",
		},
		{
			name: "proactive without conditions",
			yaml: "name: x\nschedule:\n  kind: proactive",
			want: "at least one condition",
		},
		{
			name: "proactive with bad condition",
			yaml: "name: x\nschedule:\n  kind: proactive\n  conditions: [\"weather:rainy\"]",
			want: "weather:rainy",
		},
		{
			name: "unknown schedule kind",
			yaml: "name: x\nschedule:\n  kind: hourly",
			want: "unknown schedule kind",
		},
		{
			name: "trigger with bad condition",
			yaml: "name: x\ntriggers:\n  - condition: \"bogus:thing\"\n    prompt: go",
			want: "bogus:thing",
		},
		{
			name: "trigger without prompt",
			yaml: "name: x\ntriggers:\n  - condition: all",
			want: "has no prompt",
		},
		{
			name: "not yaml",
			yaml: "{{{",
			want: "parsing manifest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading manifest")
}
