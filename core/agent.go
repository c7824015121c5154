package core

import "time"

// AgentState describes where an agent is in its lifecycle.
type AgentState string

const (
	// AgentStateRunning means the agent is active and may receive messages.
	AgentStateRunning AgentState = "running"
	// AgentStateSuspended means the agent is paused; loops keep running but
	// the agent is excluded from heartbeat checks.
	AgentStateSuspended AgentState = "suspended"
	// AgentStateTerminated means the agent has been shut down.
	AgentStateTerminated AgentState = "terminated"
	// AgentStateCrashed means the agent exited with an unrecovered error.
	AgentStateCrashed AgentState = "crashed"
)

// AgentRecord is the read-only view of a registered agent that monitoring
// components (heartbeat, status API) consume. It is a snapshot: mutating a
// record has no effect on the registry.
type AgentRecord struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	State      AgentState `json:"state"`
	LastActive time.Time  `json:"last_active"`

	// HeartbeatInterval overrides the monitor's default check interval for
	// this agent. Zero means "use the default". The unresponsiveness
	// timeout is twice this interval.
	HeartbeatInterval time.Duration `json:"heartbeat_interval,omitempty"`

	// QuietHours is an optional "HH:MM-HH:MM" window during which the
	// kernel suppresses heartbeat re-emission for this agent.
	QuietHours string `json:"quiet_hours,omitempty"`
}

// RegistrySnapshot provides read-only access to the current agent set.
// The heartbeat monitor depends on this interface rather than on the
// concrete registry so it can be tested with literal slices.
type RegistrySnapshot interface {
	// List returns a point-in-time copy of all agent records.
	List() []AgentRecord
}
