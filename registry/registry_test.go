package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentkernel/capability"
	"github.com/hupe1980/agentkernel/core"
)

func newEntry(id, name string) Entry {
	return Entry{
		AgentRecord: core.AgentRecord{
			ID:   id,
			Name: name,
		},
		Capabilities: []capability.Capability{
			capability.FileRead("/data/*"),
		},
	}
}

func TestRegisterAndGet(t *testing.T) {
	r := New()

	require.NoError(t, r.Register(newEntry("a1", "researcher")))

	entry, ok := r.Get("a1")
	require.True(t, ok)
	assert.Equal(t, "researcher", entry.Name)
	assert.Equal(t, core.AgentStateRunning, entry.State)
	assert.WithinDuration(t, time.Now(), entry.LastActive, time.Second)
}

func TestRegisterDuplicate(t *testing.T) {
	r := New()

	require.NoError(t, r.Register(newEntry("a1", "researcher")))

	err := r.Register(newEntry("a1", "other"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestGetReturnsCopy(t *testing.T) {
	r := New()

	require.NoError(t, r.Register(newEntry("a1", "researcher")))

	entry, ok := r.Get("a1")
	require.True(t, ok)

	entry.Name = "mutated"
	entry.Capabilities[0] = capability.ShellExec("*")

	fresh, ok := r.Get("a1")
	require.True(t, ok)
	assert.Equal(t, "researcher", fresh.Name)
	assert.Equal(t, capability.KindFileRead, fresh.Capabilities[0].Kind)
}

func TestTouchResetsHeartbeatClock(t *testing.T) {
	r := New()

	require.NoError(t, r.Register(newEntry("a1", "researcher")))

	before, _ := r.Get("a1")
	time.Sleep(5 * time.Millisecond)

	assert.True(t, r.Touch("a1"))
	assert.False(t, r.Touch("missing"))

	after, _ := r.Get("a1")
	assert.True(t, after.LastActive.After(before.LastActive))
}

func TestSetStateAndCount(t *testing.T) {
	r := New()

	require.NoError(t, r.Register(newEntry("a1", "researcher")))
	require.NoError(t, r.Register(newEntry("a2", "writer")))

	assert.True(t, r.SetState("a2", core.AgentStateSuspended))
	assert.False(t, r.SetState("missing", core.AgentStateCrashed))

	assert.Equal(t, 2, r.Count(""))
	assert.Equal(t, 1, r.Count(core.AgentStateRunning))
	assert.Equal(t, 1, r.Count(core.AgentStateSuspended))
	assert.Equal(t, 0, r.Count(core.AgentStateCrashed))
}

func TestRemove(t *testing.T) {
	r := New()

	require.NoError(t, r.Register(newEntry("a1", "researcher")))

	assert.True(t, r.Remove("a1"))
	assert.False(t, r.Remove("a1"))

	_, ok := r.Get("a1")
	assert.False(t, ok)
}

func TestListSortedByName(t *testing.T) {
	r := New()

	require.NoError(t, r.Register(newEntry("a1", "writer")))
	require.NoError(t, r.Register(newEntry("a2", "analyst")))
	require.NoError(t, r.Register(newEntry("a3", "researcher")))

	records := r.List()
	require.Len(t, records, 3)
	assert.Equal(t, "analyst", records[0].Name)
	assert.Equal(t, "researcher", records[1].Name)
	assert.Equal(t, "writer", records[2].Name)
}

func TestFindByName(t *testing.T) {
	r := New()

	require.NoError(t, r.Register(newEntry("a1", "researcher")))

	entry, ok := r.FindByName("researcher")
	require.True(t, ok)
	assert.Equal(t, "a1", entry.ID)

	_, ok = r.FindByName("nope")
	assert.False(t, ok)
}
