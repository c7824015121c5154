package trigger

import (
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/event"
	"github.com/hupe1980/agentkernel/logging"
)

// eventToken is the placeholder substituted with the event description
// when a trigger fires.
const eventToken = "{{event}}"

// Trigger is a registered wake rule owned by a single agent.
type Trigger struct {
	ID             string    `json:"id"`
	AgentID        string    `json:"agent_id"`
	Pattern        Pattern   `json:"pattern"`
	PromptTemplate string    `json:"prompt_template"`
	Enabled        bool      `json:"enabled"`
	CreatedAt      time.Time `json:"created_at"`
	FireCount      uint64    `json:"fire_count"`

	// MaxFires bounds how often the trigger may fire; 0 means unlimited.
	// An exhausted trigger is disabled but retained until its owner
	// terminates, so operators can still inspect it.
	MaxFires uint64 `json:"max_fires"`
}

// Engine routes events to agents via registered triggers. All methods
// are safe for concurrent use.
type Engine struct {
	mu sync.RWMutex
	// triggers holds every registered trigger by id.
	triggers map[string]*Trigger
	// byAgent indexes trigger ids by owning agent for O(k) bulk removal.
	byAgent map[string][]string
	// order preserves registration order so evaluation results are
	// deterministic for identical registration sequences.
	order []string

	logger logging.Logger
}

// Options configures an Engine.
type Options struct {
	// Logger receives registration and firing diagnostics. Defaults to
	// the NoOp logger.
	Logger logging.Logger
}

// NewEngine constructs an empty trigger engine.
func NewEngine(optFns ...func(o *Options)) *Engine {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{
		triggers: make(map[string]*Trigger),
		byAgent:  make(map[string][]string),
		logger:   opts.Logger,
	}
}

// Register creates a new enabled trigger and returns its id. Registration
// always succeeds.
func (e *Engine) Register(agentID string, pattern Pattern, promptTemplate string, maxFires uint64) string {
	t := &Trigger{
		ID:             core.NewID(),
		AgentID:        agentID,
		Pattern:        pattern,
		PromptTemplate: promptTemplate,
		Enabled:        true,
		CreatedAt:      time.Now().UTC(),
		MaxFires:       maxFires,
	}

	e.mu.Lock()
	e.triggers[t.ID] = t
	e.byAgent[agentID] = append(e.byAgent[agentID], t.ID)
	e.order = append(e.order, t.ID)
	e.mu.Unlock()

	e.logger.Info("trigger registered", "trigger_id", t.ID, "agent_id", agentID, "pattern", string(pattern.Kind))
	return t.ID
}

// Remove deletes a trigger from both indices. It is idempotent and
// reports whether the trigger existed.
func (e *Engine) Remove(triggerID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.triggers[triggerID]
	if !ok {
		return false
	}
	delete(e.triggers, triggerID)
	e.byAgent[t.AgentID] = removeID(e.byAgent[t.AgentID], triggerID)
	if len(e.byAgent[t.AgentID]) == 0 {
		delete(e.byAgent, t.AgentID)
	}
	e.order = removeID(e.order, triggerID)
	return true
}

// RemoveAgentTriggers deletes every trigger owned by the agent. Callers
// must invoke this when an agent terminates; the engine does not observe
// terminations itself and orphaned triggers would keep referencing a
// dead agent.
func (e *Engine) RemoveAgentTriggers(agentID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := e.byAgent[agentID]
	if len(ids) == 0 {
		return
	}
	delete(e.byAgent, agentID)
	for _, id := range ids {
		delete(e.triggers, id)
	}
	e.order = removeAll(e.order, ids)
}

// SetEnabled enables or disables a trigger, reporting whether it exists.
func (e *Engine) SetEnabled(triggerID string, enabled bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.triggers[triggerID]
	if !ok {
		return false
	}
	t.Enabled = enabled
	return true
}

// Get returns a copy of the trigger with the given id.
func (e *Engine) Get(triggerID string) (Trigger, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t, ok := e.triggers[triggerID]
	if !ok {
		return Trigger{}, false
	}
	return *t, true
}

// ListAgentTriggers returns copies of all triggers owned by the agent,
// in registration order.
func (e *Engine) ListAgentTriggers(agentID string) []Trigger {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := e.byAgent[agentID]
	out := make([]Trigger, 0, len(ids))
	for _, id := range ids {
		if t, ok := e.triggers[id]; ok {
			out = append(out, *t)
		}
	}
	return out
}

// ListAll returns copies of every registered trigger in registration order.
func (e *Engine) ListAll() []Trigger {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Trigger, 0, len(e.order))
	for _, id := range e.order {
		if t, ok := e.triggers[id]; ok {
			out = append(out, *t)
		}
	}
	return out
}

// Activation is a single trigger match: deliver Message to AgentID.
type Activation struct {
	AgentID   string
	TriggerID string
	Message   string
}

// Evaluate scans every enabled trigger against the event, in registration
// order. Each match increments the trigger's fire count, renders the
// prompt template (replacing {{event}} with a description of the event)
// and yields one activation. A trigger whose fire count reaches MaxFires
// is disabled in place.
func (e *Engine) Evaluate(ev event.Event) []Activation {
	description := event.Describe(ev)

	e.mu.Lock()
	defer e.mu.Unlock()

	var activations []Activation
	for _, id := range e.order {
		t, ok := e.triggers[id]
		if !ok || !t.Enabled {
			continue
		}
		if t.MaxFires > 0 && t.FireCount >= t.MaxFires {
			t.Enabled = false
			continue
		}
		if !t.Pattern.matches(ev, description) {
			continue
		}

		t.FireCount++
		if t.MaxFires > 0 && t.FireCount >= t.MaxFires {
			t.Enabled = false
		}
		activations = append(activations, Activation{
			AgentID:   t.AgentID,
			TriggerID: t.ID,
			Message:   strings.ReplaceAll(t.PromptTemplate, eventToken, description),
		})

		e.logger.Debug("trigger fired",
			"trigger_id", t.ID, "agent_id", t.AgentID, "fire_count", t.FireCount)
	}
	return activations
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func removeAll(ids []string, drop []string) []string {
	gone := make(map[string]struct{}, len(drop))
	for _, id := range drop {
		gone[id] = struct{}{}
	}
	out := ids[:0]
	for _, v := range ids {
		if _, ok := gone[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
