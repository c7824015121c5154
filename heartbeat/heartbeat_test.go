package heartbeat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentkernel/core"
)

func record(id, name string, state core.AgentState, silentFor time.Duration, now time.Time) core.AgentRecord {
	return core.AgentRecord{
		ID:         id,
		Name:       name,
		State:      state,
		LastActive: now.Add(-silentFor),
	}
}

func TestCheckReturnsStatusPerRunningAgent(t *testing.T) {
	now := time.Now()

	records := []core.AgentRecord{
		record("a1", "healthy", core.AgentStateRunning, 30*time.Second, now),
		record("a2", "overdue", core.AgentStateRunning, 3*time.Minute, now),
		record("a3", "suspended", core.AgentStateSuspended, 10*time.Minute, now),
		record("a4", "terminated", core.AgentStateTerminated, time.Hour, now),
	}

	statuses := Check(records, Config{}, now)

	require.Len(t, statuses, 2)

	assert.Equal(t, "a1", statuses[0].AgentID)
	assert.False(t, statuses[0].Unresponsive)
	assert.InDelta(t, 30, statuses[0].InactiveSecs, 1)

	assert.Equal(t, "a2", statuses[1].AgentID)
	assert.Equal(t, "overdue", statuses[1].Name)
	assert.True(t, statuses[1].Unresponsive)
	assert.Equal(t, 2*DefaultInterval, statuses[1].Timeout)
	assert.Greater(t, statuses[1].SilentFor, statuses[1].Timeout)
}

func TestCheckBoundaryIsExclusive(t *testing.T) {
	now := time.Now()

	// Silent for exactly the timeout is still healthy.
	records := []core.AgentRecord{
		record("a1", "edge", core.AgentStateRunning, 2*DefaultInterval, now),
	}

	statuses := Check(records, Config{}, now)

	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Unresponsive)
}

func TestCheckPerAgentInterval(t *testing.T) {
	now := time.Now()

	rec := record("a1", "fast", core.AgentStateRunning, 25*time.Second, now)
	rec.HeartbeatInterval = 10 * time.Second

	statuses := Check([]core.AgentRecord{rec}, Config{}, now)

	require.Len(t, statuses, 1)
	assert.Equal(t, 20*time.Second, statuses[0].Timeout)
	assert.True(t, statuses[0].Unresponsive)
}

func TestCheckConfigInterval(t *testing.T) {
	now := time.Now()

	rec := record("a1", "worker", core.AgentStateRunning, 25*time.Second, now)

	statuses := Check([]core.AgentRecord{rec}, Config{Interval: 10 * time.Second}, now)

	require.Len(t, statuses, 1)
	assert.Equal(t, 20*time.Second, statuses[0].Timeout)
	assert.True(t, statuses[0].Unresponsive)

	// A per-agent interval still wins over the configured default.
	rec.HeartbeatInterval = time.Minute

	statuses = Check([]core.AgentRecord{rec}, Config{Interval: 10 * time.Second}, now)

	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Unresponsive)
}

func TestCheckQuietHoursNeverUnresponsive(t *testing.T) {
	now := time.Date(2025, 6, 1, 23, 30, 0, 0, time.Local)

	rec := record("a1", "sleeper", core.AgentStateRunning, time.Hour, now)
	rec.QuietHours = "22:00-06:00"

	statuses := Check([]core.AgentRecord{rec}, Config{}, now)

	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Quiet)
	assert.False(t, statuses[0].Unresponsive)

	midday := time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)
	rec.LastActive = midday.Add(-time.Hour)

	statuses = Check([]core.AgentRecord{rec}, Config{}, midday)

	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Quiet)
	assert.True(t, statuses[0].Unresponsive)
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 6, 1, 23, 30, 0, 0, time.Local)

	quiet := record("a4", "sleeper", core.AgentStateRunning, time.Hour, now)
	quiet.QuietHours = "22:00-06:00"

	records := []core.AgentRecord{
		record("a1", "healthy", core.AgentStateRunning, 10*time.Second, now),
		record("a2", "overdue", core.AgentStateRunning, 5*time.Minute, now),
		record("a3", "suspended", core.AgentStateSuspended, time.Hour, now),
		quiet,
	}

	s := Summarize(Check(records, Config{}, now))

	assert.Equal(t, 3, s.TotalChecked)
	assert.Equal(t, 1, s.Responsive)
	assert.Equal(t, 1, s.Unresponsive)
	assert.Equal(t, 1, s.Quiet)

	require.Len(t, s.UnresponsiveAgents, 1)
	assert.Equal(t, "a2", s.UnresponsiveAgents[0].AgentID)
}

func TestInQuietHours(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2025, 6, 1, h, m, 0, 0, time.Local)
	}

	tests := []struct {
		name     string
		window   string
		now      time.Time
		expected bool
	}{
		{name: "inside simple window", window: "09:00-17:00", now: at(12, 0), expected: true},
		{name: "before simple window", window: "09:00-17:00", now: at(8, 59), expected: false},
		{name: "end is exclusive", window: "09:00-17:00", now: at(17, 0), expected: false},
		{name: "start is inclusive", window: "09:00-17:00", now: at(9, 0), expected: true},
		{name: "wrap evening side", window: "22:00-06:00", now: at(23, 30), expected: true},
		{name: "wrap morning side", window: "22:00-06:00", now: at(2, 0), expected: true},
		{name: "wrap outside", window: "22:00-06:00", now: at(12, 0), expected: false},
		{name: "empty window", window: "", now: at(12, 0), expected: false},
		{name: "missing dash", window: "22:00", now: at(23, 0), expected: false},
		{name: "garbage", window: "night-time", now: at(23, 0), expected: false},
		{name: "out of range hour", window: "25:00-06:00", now: at(23, 0), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InQuietHours(tt.window, tt.now))
		})
	}
}
