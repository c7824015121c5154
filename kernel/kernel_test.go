package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentkernel/capability"
	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/event"
	"github.com/hupe1980/agentkernel/manifest"
	"github.com/hupe1980/agentkernel/model"
)

func newTestKernel(t *testing.T, optFns ...func(o *Options)) (*Kernel, *model.MockCompleter) {
	t.Helper()

	completer := model.NewMockCompleter("test-model")

	fns := append([]func(o *Options){func(o *Options) {
		o.Completer = completer
		o.DrainGrace = 10 * time.Millisecond
	}}, optFns...)

	k := New(fns...)
	k.Start()

	return k, completer
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}

		time.Sleep(5 * time.Millisecond)
	}

	t.Fatal("condition not met in time")
}

func TestSpawnRootAgent(t *testing.T) {
	k, _ := newTestKernel(t)

	id, err := k.Spawn(SpawnSpec{
		Name:         "researcher",
		SystemPrompt: "You research things.",
		Capabilities: []capability.Capability{capability.FileRead("/data/*")},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	records := k.Registry().List()
	require.Len(t, records, 1)
	assert.Equal(t, "researcher", records[0].Name)
	assert.Equal(t, core.AgentStateRunning, records[0].State)
}

func TestSpawnRequiresName(t *testing.T) {
	k, _ := newTestKernel(t)

	_, err := k.Spawn(SpawnSpec{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestSpawnChildInheritanceEnforced(t *testing.T) {
	k, _ := newTestKernel(t)

	parentID, err := k.Spawn(SpawnSpec{
		Name: "parent",
		Capabilities: []capability.Capability{
			capability.FileRead("/workspace/*"),
			capability.AgentSpawn(),
		},
	})
	require.NoError(t, err)

	// Covered subset is fine.
	childID, err := k.Spawn(SpawnSpec{
		Name:         "child",
		ParentID:     parentID,
		Capabilities: []capability.Capability{capability.FileRead("/workspace/docs/*")},
	})
	require.NoError(t, err)
	require.NotEmpty(t, childID)

	// Escalation is denied.
	_, err = k.Spawn(SpawnSpec{
		Name:         "greedy",
		ParentID:     parentID,
		Capabilities: []capability.Capability{capability.ShellExec("*")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "privilege escalation denied")
}

func TestSpawnUnknownParent(t *testing.T) {
	k, _ := newTestKernel(t)

	_, err := k.Spawn(SpawnSpec{Name: "orphan", ParentID: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestTerminateStopsEverything(t *testing.T) {
	k, _ := newTestKernel(t)

	id, err := k.Spawn(SpawnSpec{
		Name:     "watcher",
		Schedule: core.Proactive("all"),
		Prompt:   "React to: {{event}}",
	})
	require.NoError(t, err)
	require.Len(t, k.Triggers().ListAgentTriggers(id), 1)

	require.NoError(t, k.Terminate(id, "done"))

	assert.Empty(t, k.Triggers().ListAgentTriggers(id))

	records := k.Registry().List()
	require.Len(t, records, 1)
	assert.Equal(t, core.AgentStateTerminated, records[0].State)

	err = k.Terminate(id, "again")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already terminated")
}

func TestProactiveAgentActivatesOnEvent(t *testing.T) {
	k, completer := newTestKernel(t)

	_, err := k.Spawn(SpawnSpec{
		Name:     "incident-watcher",
		Schedule: core.Proactive("event:agent_terminated"),
		Prompt:   "Investigate: {{event}}",
	})
	require.NoError(t, err)

	victimID, err := k.Spawn(SpawnSpec{Name: "victim"})
	require.NoError(t, err)

	require.NoError(t, k.Terminate(victimID, "crashed on purpose"))

	waitFor(t, func() bool { return len(completer.Requests()) == 1 })

	req := completer.Requests()[0]
	assert.Contains(t, req.Prompt, "Investigate: ")
	assert.Contains(t, req.Prompt, "terminated")
	assert.NotContains(t, req.Prompt, "{{event}}")
}

func TestSpawnSurvivesBadConditions(t *testing.T) {
	k, _ := newTestKernel(t)

	// An unparseable proactive condition drops that wake source only.
	watcherID, err := k.Spawn(SpawnSpec{
		Name:     "watcher",
		Schedule: core.Proactive("event:agent_spawned", "bogus-condition"),
		Prompt:   "React to: {{event}}",
	})
	require.NoError(t, err)
	assert.Len(t, k.Triggers().ListAgentTriggers(watcherID), 1)

	// Same for a manifest trigger on a reactive agent.
	reactiveID, err := k.Spawn(SpawnSpec{
		Name: "listener",
		Triggers: []manifest.TriggerSpec{
			{Condition: "not-a-condition", Prompt: "x"},
			{Condition: "event:lifecycle", Prompt: "Saw: {{event}}"},
		},
	})
	require.NoError(t, err)

	_, ok := k.registry.Get(reactiveID)
	require.True(t, ok)
	assert.Len(t, k.Triggers().ListAgentTriggers(reactiveID), 1)
}

func TestRegisterTriggerWithMaxFires(t *testing.T) {
	k, completer := newTestKernel(t)

	watcherID, err := k.Spawn(SpawnSpec{Name: "watcher"})
	require.NoError(t, err)

	_, err = k.RegisterTrigger(watcherID, "event:agent_spawned", "New agent: {{event}}", 1)
	require.NoError(t, err)

	_, err = k.RegisterTrigger(watcherID, "weather:rainy", "x", 0)
	require.Error(t, err)

	_, err = k.Spawn(SpawnSpec{Name: "first"})
	require.NoError(t, err)

	waitFor(t, func() bool { return len(completer.Requests()) == 1 })

	// The trigger is exhausted after one fire.
	_, err = k.Spawn(SpawnSpec{Name: "second"})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, completer.Requests(), 1)

	triggers := k.Triggers().ListAgentTriggers(watcherID)
	require.Len(t, triggers, 1)
	assert.False(t, triggers[0].Enabled)
}

func TestCheckCapability(t *testing.T) {
	k, _ := newTestKernel(t)

	id, err := k.Spawn(SpawnSpec{
		Name: "worker",
		Capabilities: []capability.Capability{
			capability.FileRead("/data/*"),
			capability.ToolAll(),
		},
	})
	require.NoError(t, err)

	assert.True(t, k.CheckCapability(id, capability.FileRead("/data/report.txt")))
	assert.True(t, k.CheckCapability(id, capability.ToolInvoke("web_search")))
	assert.False(t, k.CheckCapability(id, capability.FileWrite("/data/report.txt")))
	assert.False(t, k.CheckCapability("unknown", capability.FileRead("/data/x")))
}

func TestSpawnFromManifest(t *testing.T) {
	k, _ := newTestKernel(t)

	m, err := manifest.Parse([]byte(`
name: log-watcher
system_prompt: You watch logs.
capabilities:
  - memory_read:logs/*
schedule:
  kind: proactive
  conditions:
    - memory:logs/*
`))
	require.NoError(t, err)

	id, err := k.SpawnFromManifest(m, "")
	require.NoError(t, err)

	require.Len(t, k.Triggers().ListAgentTriggers(id), 1)

	entry := k.Registry().List()[0]
	assert.Equal(t, "log-watcher", entry.Name)
}

func TestPublishTouchesSource(t *testing.T) {
	k, _ := newTestKernel(t)

	id, err := k.Spawn(SpawnSpec{Name: "chatty"})
	require.NoError(t, err)

	before := k.Registry().List()[0].LastActive
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, k.Publish(event.New(id, event.Broadcast(), event.Message{
		Content: "hello",
		Role:    "assistant",
	})))

	after := k.Registry().List()[0].LastActive
	assert.True(t, after.After(before))
}

func TestHeartbeatReporting(t *testing.T) {
	k, _ := newTestKernel(t)

	_, err := k.Spawn(SpawnSpec{
		Name:              "fast",
		HeartbeatInterval: time.Millisecond,
	})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	statuses, summary := k.Heartbeat()
	require.Len(t, statuses, 1)
	assert.Equal(t, "fast", statuses[0].Name)
	assert.True(t, statuses[0].Unresponsive)
	assert.Equal(t, 1, summary.Unresponsive)
	require.Len(t, summary.UnresponsiveAgents, 1)
}
