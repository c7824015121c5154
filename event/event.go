package event

import (
	"time"

	"github.com/hupe1980/agentkernel/core"
)

// TargetKind discriminates where an event is directed.
type TargetKind string

const (
	// TargetAgent routes an event to a single agent.
	TargetAgent TargetKind = "agent"
	// TargetBroadcast routes an event to all agents.
	TargetBroadcast TargetKind = "broadcast"
	// TargetPattern routes an event to agents whose name matches a glob.
	TargetPattern TargetKind = "pattern"
	// TargetSystem routes an event to the kernel itself.
	TargetSystem TargetKind = "system"
)

// Target describes the destination of an event. Value carries the agent
// id for TargetAgent and the glob for TargetPattern; it is empty
// otherwise.
type Target struct {
	Kind  TargetKind `json:"kind"`
	Value string     `json:"value,omitempty"`
}

// ToAgent targets a single agent by id.
func ToAgent(agentID string) Target {
	return Target{Kind: TargetAgent, Value: agentID}
}

// Broadcast targets all agents.
func Broadcast() Target {
	return Target{Kind: TargetBroadcast}
}

// ToPattern targets agents whose name matches the glob.
func ToPattern(glob string) Target {
	return Target{Kind: TargetPattern, Value: glob}
}

// ToSystem targets the kernel.
func ToSystem() Target {
	return Target{Kind: TargetSystem}
}

// Event is the unit of communication between agents, the kernel and
// external collaborators. Events are immutable once created: the With*
// helpers return copies. SourceSystem is used as Source for events the
// kernel emits itself.
type Event struct {
	ID            string        `json:"id"`
	Source        string        `json:"source"`
	Target        Target        `json:"target"`
	Payload       Payload       `json:"payload"`
	Timestamp     time.Time     `json:"timestamp"`
	CorrelationID string        `json:"correlation_id,omitempty"`
	TTL           time.Duration `json:"ttl,omitempty"`
}

// SourceSystem identifies the kernel as the source of an event.
const SourceSystem = "system"

// New creates an event with a fresh id and UTC timestamp.
func New(source string, target Target, payload Payload) Event {
	return Event{
		ID:        core.NewID(),
		Source:    source,
		Target:    target,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// WithCorrelation links this event to a request for request-response
// patterns.
func (e Event) WithCorrelation(correlationID string) Event {
	e.CorrelationID = correlationID
	return e
}

// WithTTL sets a time-to-live after which the event is dropped instead
// of delivered.
func (e Event) WithTTL(ttl time.Duration) Event {
	e.TTL = ttl
	return e
}

// Expired reports whether the event's TTL has elapsed at the given time.
// Events without a TTL never expire.
func (e Event) Expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.Timestamp) > e.TTL
}
