package event

import "time"

// Payload is the content of an event. Implementations form a closed set;
// the trigger engine switches on the concrete type.
type Payload interface {
	payload()
}

// Role identifies the sender class of a message payload.
type Role string

const (
	// RoleUser marks a message from a human user.
	RoleUser Role = "user"
	// RoleAgent marks a message from another agent.
	RoleAgent Role = "agent"
	// RoleSystem marks a message from the kernel.
	RoleSystem Role = "system"
	// RoleTool marks a message produced by a tool.
	RoleTool Role = "tool"
)

// Message is a direct message between agents or from the user/kernel to
// an agent.
type Message struct {
	Content  string            `json:"content"`
	Role     Role              `json:"role"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (Message) payload() {}

// ToolResult carries the outcome of a tool execution.
type ToolResult struct {
	ToolID  string        `json:"tool_id"`
	Content string        `json:"content"`
	Success bool          `json:"success"`
	Elapsed time.Duration `json:"elapsed"`
}

func (ToolResult) payload() {}

// MemoryOp is the kind of change behind a MemoryDelta.
type MemoryOp string

const (
	// MemoryCreated means a new key was written.
	MemoryCreated MemoryOp = "created"
	// MemoryUpdated means an existing key changed.
	MemoryUpdated MemoryOp = "updated"
	// MemoryDeleted means a key was removed.
	MemoryDeleted MemoryOp = "deleted"
)

// MemoryDelta notifies subscribers that an agent's memory changed.
type MemoryDelta struct {
	Op      MemoryOp `json:"op"`
	Key     string   `json:"key"`
	AgentID string   `json:"agent_id"`
}

func (MemoryDelta) payload() {}

// LifecycleKind enumerates agent lifecycle transitions.
type LifecycleKind string

const (
	// LifecycleSpawned means a new agent was created.
	LifecycleSpawned LifecycleKind = "spawned"
	// LifecycleStarted means an agent began running.
	LifecycleStarted LifecycleKind = "started"
	// LifecycleSuspended means an agent was paused.
	LifecycleSuspended LifecycleKind = "suspended"
	// LifecycleResumed means a suspended agent continued.
	LifecycleResumed LifecycleKind = "resumed"
	// LifecycleTerminated means an agent was shut down.
	LifecycleTerminated LifecycleKind = "terminated"
	// LifecycleCrashed means an agent exited with an error.
	LifecycleCrashed LifecycleKind = "crashed"
)

// Lifecycle reports an agent lifecycle transition. Name is set for
// spawned events; Reason for terminated and crashed events.
type Lifecycle struct {
	Kind    LifecycleKind `json:"kind"`
	AgentID string        `json:"agent_id"`
	Name    string        `json:"name,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}

func (Lifecycle) payload() {}

// NetworkKind enumerates remote-peer activity.
type NetworkKind string

const (
	// PeerConnected means a remote peer connected.
	PeerConnected NetworkKind = "peer_connected"
	// PeerDisconnected means a remote peer disconnected.
	PeerDisconnected NetworkKind = "peer_disconnected"
)

// Network reports remote agent activity.
type Network struct {
	Kind   NetworkKind `json:"kind"`
	PeerID string      `json:"peer_id"`
}

func (Network) payload() {}

// SystemKind enumerates kernel-level conditions.
type SystemKind string

const (
	// KernelStarted is emitted once at startup.
	KernelStarted SystemKind = "kernel_started"
	// KernelStopping is emitted when shutdown begins.
	KernelStopping SystemKind = "kernel_stopping"
	// QuotaWarning reports an agent approaching a resource ceiling.
	QuotaWarning SystemKind = "quota_warning"
	// HealthCheck reports a completed liveness pass.
	HealthCheck SystemKind = "health_check"
	// HealthCheckFailed reports an unresponsive agent.
	HealthCheckFailed SystemKind = "health_check_failed"
)

// System is a kernel-level event (health, resources, lifecycle of the
// kernel itself). Fields beyond Kind are populated per kind: AgentID and
// UnresponsiveFor for HealthCheckFailed, Status for HealthCheck, AgentID
// plus Resource/UsagePercent for QuotaWarning.
type System struct {
	Kind            SystemKind    `json:"kind"`
	AgentID         string        `json:"agent_id,omitempty"`
	Status          string        `json:"status,omitempty"`
	Resource        string        `json:"resource,omitempty"`
	UsagePercent    float64       `json:"usage_percent,omitempty"`
	UnresponsiveFor time.Duration `json:"unresponsive_for,omitempty"`
}

func (System) payload() {}

// Custom wraps an opaque user-defined payload.
type Custom struct {
	Data []byte `json:"data"`
}

func (Custom) payload() {}
