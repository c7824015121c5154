package trigger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentkernel/event"
)

func spawnedEvent(name string) event.Event {
	return event.New(event.SourceSystem, event.Broadcast(), event.Lifecycle{
		Kind:    event.LifecycleSpawned,
		AgentID: "spawned-id",
		Name:    name,
	})
}

func systemEvent(kind event.SystemKind) event.Event {
	return event.New(event.SourceSystem, event.ToSystem(), event.System{Kind: kind, Status: "ok"})
}

func TestRegisterAndGet(t *testing.T) {
	e := NewEngine()
	id := e.Register("watcher", All(), "Event occurred: {{event}}", 0)

	trig, ok := e.Get(id)
	require.True(t, ok)
	assert.Equal(t, "watcher", trig.AgentID)
	assert.True(t, trig.Enabled)
	assert.Zero(t, trig.FireCount)
	assert.False(t, trig.CreatedAt.IsZero())
}

func TestEvaluateAllMatchesEveryEventOnce(t *testing.T) {
	e := NewEngine()
	e.Register("watcher", All(), "saw: {{event}}", 0)

	events := []event.Event{
		spawnedEvent("coder"),
		systemEvent(event.KernelStarted),
		event.New("a1", event.Broadcast(), event.MemoryDelta{Op: event.MemoryCreated, Key: "k", AgentID: "a1"}),
	}
	for _, ev := range events {
		acts := e.Evaluate(ev)
		require.Len(t, acts, 1)
		assert.Equal(t, "watcher", acts[0].AgentID)
	}
}

func TestEvaluateRendersTemplate(t *testing.T) {
	e := NewEngine()
	e.Register("watcher", Lifecycle(), "Lifecycle: {{event}}", 0)

	acts := e.Evaluate(spawnedEvent("new-agent"))
	require.Len(t, acts, 1)
	assert.Equal(t, "Lifecycle: Agent 'new-agent' (id: spawned-id) was spawned", acts[0].Message)
}

func TestEvaluateAgentSpawnedGlob(t *testing.T) {
	e := NewEngine()
	e.Register("watcher", AgentSpawned("coder*"), "spawned: {{event}}", 0)

	assert.Len(t, e.Evaluate(spawnedEvent("coder")), 1)
	assert.Len(t, e.Evaluate(spawnedEvent("coder-2")), 1)
	assert.Empty(t, e.Evaluate(spawnedEvent("researcher")))

	// Non-lifecycle events never match.
	assert.Empty(t, e.Evaluate(systemEvent(event.KernelStarted)))
}

func TestEvaluateAgentTerminatedIncludesCrashes(t *testing.T) {
	e := NewEngine()
	e.Register("janitor", AgentTerminated(), "cleanup: {{event}}", 0)

	terminated := event.New(event.SourceSystem, event.Broadcast(), event.Lifecycle{
		Kind: event.LifecycleTerminated, AgentID: "a1", Reason: "done",
	})
	crashed := event.New(event.SourceSystem, event.Broadcast(), event.Lifecycle{
		Kind: event.LifecycleCrashed, AgentID: "a2", Reason: "panic",
	})

	assert.Len(t, e.Evaluate(terminated), 1)
	assert.Len(t, e.Evaluate(crashed), 1)
	assert.Empty(t, e.Evaluate(spawnedEvent("a3")))
}

func TestEvaluateMemoryKeyGlob(t *testing.T) {
	e := NewEngine()
	e.Register("watcher", MemoryKey("tasks.*"), "memory: {{event}}", 0)

	hit := event.New("a1", event.Broadcast(), event.MemoryDelta{Op: event.MemoryUpdated, Key: "tasks.pending", AgentID: "a1"})
	miss := event.New("a1", event.Broadcast(), event.MemoryDelta{Op: event.MemoryUpdated, Key: "notes", AgentID: "a1"})

	assert.Len(t, e.Evaluate(hit), 1)
	assert.Empty(t, e.Evaluate(miss))
}

func TestEvaluateContentSubstringCaseInsensitive(t *testing.T) {
	e := NewEngine()
	e.Register("alerter", Content("QUOTA"), "Alert: {{event}}", 0)

	ev := event.New(event.SourceSystem, event.ToSystem(), event.System{
		Kind: event.QuotaWarning, AgentID: "a1", Resource: "tokens", UsagePercent: 85,
	})
	acts := e.Evaluate(ev)
	require.Len(t, acts, 1)
	assert.Contains(t, acts[0].Message, "Quota warning")
}

func TestMaxFiresAutoDisable(t *testing.T) {
	e := NewEngine()
	id := e.Register("watcher", All(), "Event: {{event}}", 2)

	ev := systemEvent(event.HealthCheck)
	assert.Len(t, e.Evaluate(ev), 1)
	assert.Len(t, e.Evaluate(ev), 1)
	// Third evaluation onward: zero matches.
	assert.Empty(t, e.Evaluate(ev))
	assert.Empty(t, e.Evaluate(ev))

	// Exhausted trigger is retained, disabled.
	trig, ok := e.Get(id)
	require.True(t, ok)
	assert.False(t, trig.Enabled)
	assert.Equal(t, uint64(2), trig.FireCount)
}

func TestSetEnabled(t *testing.T) {
	e := NewEngine()
	id := e.Register("watcher", All(), "m", 0)

	require.True(t, e.SetEnabled(id, false))
	assert.Empty(t, e.Evaluate(systemEvent(event.KernelStarted)))

	require.True(t, e.SetEnabled(id, true))
	assert.Len(t, e.Evaluate(systemEvent(event.KernelStarted)), 1)

	assert.False(t, e.SetEnabled("missing", true))
}

func TestRemoveIsIdempotent(t *testing.T) {
	e := NewEngine()
	id := e.Register("watcher", All(), "m", 0)

	assert.True(t, e.Remove(id))
	assert.False(t, e.Remove(id))
	_, ok := e.Get(id)
	assert.False(t, ok)
}

func TestRemoveAgentTriggers(t *testing.T) {
	e := NewEngine()
	e.Register("a1", All(), "x", 0)
	e.Register("a1", System(), "y", 0)
	keep := e.Register("a2", All(), "z", 0)

	require.Len(t, e.ListAgentTriggers("a1"), 2)
	e.RemoveAgentTriggers("a1")
	assert.Empty(t, e.ListAgentTriggers("a1"))

	// Other agents' triggers survive and still fire.
	_, ok := e.Get(keep)
	assert.True(t, ok)
	assert.Len(t, e.Evaluate(systemEvent(event.KernelStarted)), 1)

	// Removing for an unknown agent is a no-op.
	e.RemoveAgentTriggers("ghost")
}

func TestEvaluateStableOrder(t *testing.T) {
	e := NewEngine()
	first := e.Register("a1", All(), "first", 0)
	second := e.Register("a2", All(), "second", 0)
	third := e.Register("a3", All(), "third", 0)

	acts := e.Evaluate(systemEvent(event.KernelStarted))
	require.Len(t, acts, 3)
	assert.Equal(t, []string{first, second, third},
		[]string{acts[0].TriggerID, acts[1].TriggerID, acts[2].TriggerID})
}

func TestConcurrentRegistrationAndEvaluation(t *testing.T) {
	e := NewEngine()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			id := e.Register("a1", All(), "m", 0)
			e.Remove(id)
		}
	}()
	for i := 0; i < 100; i++ {
		e.Evaluate(systemEvent(event.HealthCheck))
	}
	<-done
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		in   string
		want PatternKind
	}{
		{"all", PatternAll},
		{"ALL", PatternAll},
		{"event:agent_spawned", PatternAgentSpawned},
		{"event:agent_terminated", PatternAgentTerminated},
		{"event:lifecycle", PatternLifecycle},
		{"event:system", PatternSystem},
		{"event:memory_update", PatternMemoryUpdate},
		{"  event: system ", PatternSystem},
		{"memory:agent.*.status", PatternMemoryKey},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParseCondition(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Kind)
		})
	}

	// agent_spawned conditions default to the wildcard name glob.
	p, err := ParseCondition("event:agent_spawned")
	require.NoError(t, err)
	assert.Equal(t, "*", p.Value)

	p, err = ParseCondition("memory:agent.*.status")
	require.NoError(t, err)
	assert.Equal(t, "agent.*.status", p.Value)
}

func TestParseConditionRejectsUnknown(t *testing.T) {
	for _, bad := range []string{"event:unknown_thing", "badprefix:foo", "", "everything"} {
		_, err := ParseCondition(bad)
		assert.Error(t, err, bad)
	}
}

func TestTriggerTimestampsMonotonic(t *testing.T) {
	e := NewEngine()
	before := time.Now().UTC()
	id := e.Register("a1", All(), "m", 0)
	trig, _ := e.Get(id)
	assert.False(t, trig.CreatedAt.Before(before.Add(-time.Second)))
}
