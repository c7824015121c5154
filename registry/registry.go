package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/agentkernel/capability"
	"github.com/hupe1980/agentkernel/core"
)

// Entry is the registry's full view of an agent. The embedded AgentRecord
// is what monitoring components see; the rest is kernel bookkeeping.
type Entry struct {
	core.AgentRecord

	// ParentID is the ID of the agent that spawned this one, or empty for
	// root agents created directly by the kernel.
	ParentID string

	// Capabilities is the agent's granted capability set.
	Capabilities []capability.Capability

	// Schedule describes how the background executor drives this agent.
	Schedule core.ScheduleMode
}

// Registry is a thread-safe in-memory store of agent entries.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Register adds an agent to the registry. The entry's state is forced to
// running and its LastActive stamp is set to now.
func (r *Registry) Register(entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[entry.ID]; ok {
		return fmt.Errorf("agent %s already registered", entry.ID)
	}

	entry.State = core.AgentStateRunning
	entry.LastActive = time.Now()

	r.entries[entry.ID] = &entry

	return nil
}

// Get returns a copy of the entry for the given agent ID.
func (r *Registry) Get(agentID string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[agentID]
	if !ok {
		return Entry{}, false
	}

	return r.snapshot(entry), true
}

// FindByName returns the first entry whose name matches exactly.
func (r *Registry) FindByName(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.entries {
		if entry.Name == name {
			return r.snapshot(entry), true
		}
	}

	return Entry{}, false
}

// Touch records activity for an agent, resetting its heartbeat clock.
func (r *Registry) Touch(agentID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[agentID]
	if !ok {
		return false
	}

	entry.LastActive = time.Now()

	return true
}

// SetState transitions an agent to a new lifecycle state.
func (r *Registry) SetState(agentID string, state core.AgentState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[agentID]
	if !ok {
		return false
	}

	entry.State = state

	return true
}

// Remove deletes an agent from the registry.
func (r *Registry) Remove(agentID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[agentID]; !ok {
		return false
	}

	delete(r.entries, agentID)

	return true
}

// List returns a point-in-time copy of all agent records, sorted by name
// for stable output. It satisfies core.RegistrySnapshot.
func (r *Registry) List() []core.AgentRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]core.AgentRecord, 0, len(r.entries))
	for _, entry := range r.entries {
		records = append(records, entry.AgentRecord)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})

	return records
}

// Entries returns a copy of all full entries, sorted by name.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, r.snapshot(entry))
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	return entries
}

// Count returns the number of registered agents in the given state, or all
// agents if state is empty.
func (r *Registry) Count(state core.AgentState) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if state == "" {
		return len(r.entries)
	}

	n := 0

	for _, entry := range r.entries {
		if entry.State == state {
			n++
		}
	}

	return n
}

// snapshot copies an entry, including its capability slice, so callers can
// never mutate registry state through a returned value.
func (r *Registry) snapshot(entry *Entry) Entry {
	out := *entry
	out.Capabilities = append([]capability.Capability(nil), entry.Capabilities...)

	return out
}
