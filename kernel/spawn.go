package kernel

import (
	"fmt"
	"time"

	"github.com/hupe1980/agentkernel/audit"
	"github.com/hupe1980/agentkernel/capability"
	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/event"
	"github.com/hupe1980/agentkernel/manifest"
	"github.com/hupe1980/agentkernel/registry"
	"github.com/hupe1980/agentkernel/trigger"
)

// SpawnSpec describes an agent to spawn.
type SpawnSpec struct {
	// Name is the human readable agent name.
	Name string

	// SystemPrompt is the agent's standing instruction.
	SystemPrompt string

	// Prompt is the self-prompt delivered on scheduled wakeups. Proactive
	// schedules use it as the trigger template, so it may contain the
	// {{event}} token.
	Prompt string

	// Capabilities is the requested grant set. When ParentID is set the
	// set must be covered by the parent's grants.
	Capabilities []capability.Capability

	// Schedule selects the background loop. Zero value means reactive.
	Schedule core.ScheduleMode

	// ParentID is the spawning agent, or empty for root agents.
	ParentID string

	// HeartbeatInterval and QuietHours tune the liveness monitor for this
	// agent. Zero values use the defaults.
	HeartbeatInterval time.Duration
	QuietHours        string

	// Triggers are installed after the agent is registered. Specs whose
	// condition fails to parse are logged and skipped.
	Triggers []manifest.TriggerSpec
}

// Spawn creates an agent, enforcing capability inheritance when a parent is
// named. It returns the new agent's ID.
func (k *Kernel) Spawn(spec SpawnSpec) (string, error) {
	if k.coord.Initiated() {
		return "", fmt.Errorf("kernel is draining, spawn rejected")
	}

	if spec.Name == "" {
		return "", fmt.Errorf("spawn: name is required")
	}

	if spec.ParentID != "" {
		parent, ok := k.registry.Get(spec.ParentID)
		if !ok {
			return "", fmt.Errorf("spawn: parent %s not registered", spec.ParentID)
		}

		if err := capability.ValidateInheritance(parent.Capabilities, spec.Capabilities); err != nil {
			k.audit(audit.Entry{
				AgentID: spec.ParentID,
				Action:  audit.ActionCapabilityDeny,
				Detail:  err.Error(),
				Allowed: false,
			})

			return "", err
		}
	}

	schedule := spec.Schedule
	if schedule.Kind == "" {
		schedule = core.Reactive()
	}

	id := core.NewID()

	err := k.registry.Register(registry.Entry{
		AgentRecord: core.AgentRecord{
			ID:                id,
			Name:              spec.Name,
			HeartbeatInterval: spec.HeartbeatInterval,
			QuietHours:        spec.QuietHours,
		},
		ParentID:     spec.ParentID,
		Capabilities: spec.Capabilities,
		Schedule:     schedule,
	})
	if err != nil {
		return "", err
	}

	if spec.SystemPrompt != "" {
		k.prompts.Store(id, spec.SystemPrompt)
	}

	k.bus.Subscribe(id, spec.Name)

	if err := k.exec.StartAgent(id, schedule, spec.Prompt); err != nil {
		k.bus.Unsubscribe(id)
		k.registry.Remove(id)
		k.prompts.Delete(id)

		return "", err
	}

	for _, ts := range spec.Triggers {
		if _, err := k.RegisterTrigger(id, ts.Condition, ts.Prompt, ts.MaxFires); err != nil {
			// The agent spawns without this wake source. Only a
			// capability-inheritance failure aborts a spawn.
			k.opts.Logger.Warn("Skipping unparseable manifest trigger",
				"agent_id", id, "condition", ts.Condition, "error", err)
		}
	}

	k.audit(audit.Entry{
		AgentID: id,
		Action:  audit.ActionSpawn,
		Detail:  fmt.Sprintf("name=%s parent=%s schedule=%s", spec.Name, spec.ParentID, schedule.Kind),
		Allowed: true,
	})

	if k.opts.Metrics != nil {
		k.opts.Metrics.ActiveAgents.Set(float64(k.registry.Count(core.AgentStateRunning)))
	}

	k.Publish(event.New(event.SourceSystem, event.ToSystem(), event.Lifecycle{
		Kind:    event.LifecycleSpawned,
		AgentID: id,
		Name:    spec.Name,
	}))

	k.opts.Logger.Info("Agent spawned", "agent_id", id, "name", spec.Name, "schedule", string(schedule.Kind))

	return id, nil
}

// SpawnFromManifest spawns an agent from a parsed manifest.
func (k *Kernel) SpawnFromManifest(m *manifest.Manifest, parentID string) (string, error) {
	caps, err := m.CapabilitySet()
	if err != nil {
		return "", err
	}

	return k.Spawn(SpawnSpec{
		Name:              m.Name,
		SystemPrompt:      m.SystemPrompt,
		Prompt:            m.Prompt,
		Capabilities:      caps,
		Schedule:          m.ScheduleOrDefault(),
		ParentID:          parentID,
		HeartbeatInterval: m.HeartbeatInterval,
		QuietHours:        m.QuietHours,
		Triggers:          m.Triggers,
	})
}

// Terminate shuts an agent down: its loops stop, its triggers are removed
// and a lifecycle event is published.
func (k *Kernel) Terminate(agentID, reason string) error {
	entry, ok := k.registry.Get(agentID)
	if !ok {
		return fmt.Errorf("agent %s not registered", agentID)
	}

	if entry.State == core.AgentStateTerminated {
		return fmt.Errorf("agent %s already terminated", agentID)
	}

	k.registry.SetState(agentID, core.AgentStateTerminated)
	k.teardown(agentID)

	k.audit(audit.Entry{
		AgentID: agentID,
		Action:  audit.ActionTerminate,
		Detail:  reason,
		Allowed: true,
	})

	if k.opts.Metrics != nil {
		k.opts.Metrics.ActiveAgents.Set(float64(k.registry.Count(core.AgentStateRunning)))
	}

	k.Publish(event.New(event.SourceSystem, event.ToSystem(), event.Lifecycle{
		Kind:    event.LifecycleTerminated,
		AgentID: agentID,
		Name:    entry.Name,
		Reason:  reason,
	}))

	k.opts.Logger.Info("Agent terminated", "agent_id", agentID, "reason", reason)

	return nil
}

// RegisterTrigger compiles a condition string and installs a trigger for
// the agent. It returns the trigger ID.
func (k *Kernel) RegisterTrigger(agentID, condition, promptTemplate string, maxFires uint64) (string, error) {
	if _, ok := k.registry.Get(agentID); !ok {
		return "", fmt.Errorf("agent %s not registered", agentID)
	}

	pattern, err := trigger.ParseCondition(condition)
	if err != nil {
		return "", err
	}

	id := k.triggers.Register(agentID, pattern, promptTemplate, maxFires)

	k.audit(audit.Entry{
		AgentID: agentID,
		Action:  audit.ActionTriggerRegister,
		Detail:  condition,
		Allowed: true,
	})

	return id, nil
}

// CheckCapability reports whether the agent holds a grant covering the
// required capability. Denials are audited.
func (k *Kernel) CheckCapability(agentID string, required capability.Capability) bool {
	entry, ok := k.registry.Get(agentID)
	if !ok {
		return false
	}

	for _, granted := range entry.Capabilities {
		if capability.Matches(granted, required) {
			return true
		}
	}

	k.audit(audit.Entry{
		AgentID: agentID,
		Action:  audit.ActionCapabilityDeny,
		Detail:  required.String(),
		Allowed: false,
	})

	return false
}

// teardown removes an agent from the executor, trigger engine, bus and
// prompt map. The registry record is kept for post-mortem inspection.
func (k *Kernel) teardown(agentID string) {
	k.exec.StopAgent(agentID)
	k.triggers.RemoveAgentTriggers(agentID)
	k.bus.Unsubscribe(agentID)
	k.prompts.Delete(agentID)
}

func (k *Kernel) audit(e audit.Entry) {
	if k.opts.Audit != nil {
		k.opts.Audit.Record(e)
	}
}
