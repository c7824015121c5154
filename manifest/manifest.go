package manifest

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentkernel/capability"
	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/trigger"
)

// Manifest is a declarative agent definition.
type Manifest struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description,omitempty"`
	Model        string   `yaml:"model,omitempty"`
	SystemPrompt string   `yaml:"system_prompt,omitempty"`
	Prompt       string   `yaml:"prompt,omitempty"`
	Capabilities []string `yaml:"capabilities,omitempty"`

	Schedule core.ScheduleMode `yaml:"schedule,omitempty"`

	HeartbeatInterval time.Duration `yaml:"heartbeat_interval,omitempty"`
	QuietHours        string        `yaml:"quiet_hours,omitempty"`

	Triggers []TriggerSpec `yaml:"triggers,omitempty"`
}

// TriggerSpec declares a trigger installed when the agent spawns.
type TriggerSpec struct {
	Condition string `yaml:"condition"`
	Prompt    string `yaml:"prompt"`
	MaxFires  uint64 `yaml:"max_fires,omitempty"`
}

// Parse decodes and validates a YAML manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	return Parse(data)
}

// Validate checks the manifest for structural problems.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("manifest: name is required")
	}

	if _, err := m.CapabilitySet(); err != nil {
		return err
	}

	switch m.Schedule.Kind {
	case "", core.ScheduleReactive, core.ScheduleContinuous, core.SchedulePeriodic:
	case core.ScheduleProactive:
		if len(m.Schedule.Conditions) == 0 {
			return fmt.Errorf("manifest %s: proactive schedule needs at least one condition", m.Name)
		}

		for _, cond := range m.Schedule.Conditions {
			if _, err := trigger.ParseCondition(cond); err != nil {
				return fmt.Errorf("manifest %s: %w", m.Name, err)
			}
		}
	default:
		return fmt.Errorf("manifest %s: unknown schedule kind %q", m.Name, m.Schedule.Kind)
	}

	for _, ts := range m.Triggers {
		if _, err := trigger.ParseCondition(ts.Condition); err != nil {
			return fmt.Errorf("manifest %s: %w", m.Name, err)
		}

		if ts.Prompt == "" {
			return fmt.Errorf("manifest %s: trigger %q has no prompt", m.Name, ts.Condition)
		}
	}

	return nil
}

// CapabilitySet parses the manifest's capability strings into grants.
// Strings take the form "kind", "kind:pattern" or "kind:limit" depending
// on the capability kind, e.g. "file_read:/data/*", "spend:10",
// "agent_spawn".
func (m *Manifest) CapabilitySet() ([]capability.Capability, error) {
	caps := make([]capability.Capability, 0, len(m.Capabilities))

	for _, s := range m.Capabilities {
		c, err := parseCapability(s)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", m.Name, err)
		}

		caps = append(caps, c)
	}

	return caps, nil
}

// ScheduleOrDefault returns the declared schedule, defaulting to reactive.
func (m *Manifest) ScheduleOrDefault() core.ScheduleMode {
	if m.Schedule.Kind == "" {
		return core.Reactive()
	}

	return m.Schedule
}

func parseCapability(s string) (capability.Capability, error) {
	kind, arg, hasArg := strings.Cut(strings.TrimSpace(s), ":")

	switch capability.Kind(kind) {
	case capability.KindToolAll:
		return capability.ToolAll(), nil
	case capability.KindAgentSpawn:
		return capability.AgentSpawn(), nil
	case capability.KindLlmMaxTokens, capability.KindSpend:
		limit, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return capability.Capability{}, fmt.Errorf("capability %q: limit must be numeric", s)
		}

		return capability.Capability{Kind: capability.Kind(kind), Limit: limit}, nil
	case capability.KindFileRead, capability.KindFileWrite, capability.KindNetConnect,
		capability.KindNetListen, capability.KindToolInvoke, capability.KindLlmQuery,
		capability.KindAgentMessage, capability.KindAgentKill, capability.KindMemoryRead,
		capability.KindMemoryWrite, capability.KindShellExec, capability.KindEnvRead:
		if !hasArg || arg == "" {
			return capability.Capability{}, fmt.Errorf("capability %q: pattern is required", s)
		}

		return capability.Capability{Kind: capability.Kind(kind), Pattern: arg}, nil
	default:
		return capability.Capability{}, fmt.Errorf("unknown capability kind %q", kind)
	}
}
