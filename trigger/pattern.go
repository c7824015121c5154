package trigger

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentkernel/event"
)

// PatternKind discriminates the event shapes a trigger can match.
type PatternKind string

const (
	// PatternAll matches every event.
	PatternAll PatternKind = "all"
	// PatternLifecycle matches any lifecycle event.
	PatternLifecycle PatternKind = "lifecycle"
	// PatternAgentSpawned matches spawned lifecycle events whose agent
	// name matches the pattern's glob.
	PatternAgentSpawned PatternKind = "agent_spawned"
	// PatternAgentTerminated matches terminated and crashed lifecycle
	// events.
	PatternAgentTerminated PatternKind = "agent_terminated"
	// PatternSystem matches any system event.
	PatternSystem PatternKind = "system"
	// PatternSystemKeyword matches system events whose description
	// contains the keyword (case-insensitive).
	PatternSystemKeyword PatternKind = "system_keyword"
	// PatternMemoryUpdate matches any memory delta event.
	PatternMemoryUpdate PatternKind = "memory_update"
	// PatternMemoryKey matches memory delta events whose key matches the
	// pattern's glob.
	PatternMemoryKey PatternKind = "memory_key"
	// PatternContent matches any event whose description contains the
	// pattern value as a case-insensitive substring.
	PatternContent PatternKind = "content"
)

// Pattern describes which events a trigger matches. Value carries the
// glob, keyword or substring for the kinds that take one.
type Pattern struct {
	Kind  PatternKind `json:"kind"`
	Value string      `json:"value,omitempty"`
}

// All matches every event.
func All() Pattern {
	return Pattern{Kind: PatternAll}
}

// Lifecycle matches any lifecycle event.
func Lifecycle() Pattern {
	return Pattern{Kind: PatternLifecycle}
}

// AgentSpawned matches spawn events for agents whose name matches the glob.
func AgentSpawned(nameGlob string) Pattern {
	return Pattern{Kind: PatternAgentSpawned, Value: nameGlob}
}

// AgentTerminated matches terminated and crashed events for any agent.
func AgentTerminated() Pattern {
	return Pattern{Kind: PatternAgentTerminated}
}

// System matches any system event.
func System() Pattern {
	return Pattern{Kind: PatternSystem}
}

// SystemKeyword matches system events containing the keyword.
func SystemKeyword(keyword string) Pattern {
	return Pattern{Kind: PatternSystemKeyword, Value: keyword}
}

// MemoryUpdate matches any memory delta event.
func MemoryUpdate() Pattern {
	return Pattern{Kind: PatternMemoryUpdate}
}

// MemoryKey matches memory deltas whose key matches the glob.
func MemoryKey(keyGlob string) Pattern {
	return Pattern{Kind: PatternMemoryKey, Value: keyGlob}
}

// Content matches events whose description contains the substring,
// case-insensitively.
func Content(substring string) Pattern {
	return Pattern{Kind: PatternContent, Value: substring}
}

// matches reports whether the event (with its precomputed description)
// satisfies the pattern.
func (p Pattern) matches(e event.Event, description string) bool {
	switch p.Kind {
	case PatternAll:
		return true
	case PatternLifecycle:
		_, ok := e.Payload.(event.Lifecycle)
		return ok
	case PatternAgentSpawned:
		lc, ok := e.Payload.(event.Lifecycle)
		return ok && lc.Kind == event.LifecycleSpawned && globMatches(p.Value, lc.Name)
	case PatternAgentTerminated:
		lc, ok := e.Payload.(event.Lifecycle)
		return ok && (lc.Kind == event.LifecycleTerminated || lc.Kind == event.LifecycleCrashed)
	case PatternSystem:
		_, ok := e.Payload.(event.System)
		return ok
	case PatternSystemKeyword:
		if _, ok := e.Payload.(event.System); !ok {
			return false
		}
		return containsFold(description, p.Value)
	case PatternMemoryUpdate:
		_, ok := e.Payload.(event.MemoryDelta)
		return ok
	case PatternMemoryKey:
		md, ok := e.Payload.(event.MemoryDelta)
		return ok && globMatches(p.Value, md.Key)
	case PatternContent:
		return containsFold(description, p.Value)
	}
	return false
}

// ParseCondition compiles a condition string from an agent manifest into
// a trigger pattern. The grammar is closed:
//
//	"all"
//	"event:<kind>"  kind ∈ agent_spawned, agent_terminated, lifecycle,
//	                        system, memory_update
//	"memory:<key-glob>"
//
// Anything else is an error. Parse failures are non-fatal to the caller:
// the agent still spawns, just without that wake source.
func ParseCondition(condition string) (Pattern, error) {
	c := strings.TrimSpace(condition)

	if strings.EqualFold(c, "all") {
		return All(), nil
	}

	if kind, ok := strings.CutPrefix(c, "event:"); ok {
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case "agent_spawned":
			return AgentSpawned("*"), nil
		case "agent_terminated":
			return AgentTerminated(), nil
		case "lifecycle":
			return Lifecycle(), nil
		case "system":
			return System(), nil
		case "memory_update":
			return MemoryUpdate(), nil
		default:
			return Pattern{}, fmt.Errorf("unknown event condition %q", condition)
		}
	}

	if key, ok := strings.CutPrefix(c, "memory:"); ok {
		return MemoryKey(strings.TrimSpace(key)), nil
	}

	return Pattern{}, fmt.Errorf("unrecognized condition format %q", condition)
}

// globMatches mirrors the capability package's glob subset: "*" matches
// anything; a single '*' splits the pattern into required prefix and
// suffix; otherwise exact match.
func globMatches(pattern, value string) bool {
	if pattern == "*" || pattern == value {
		return true
	}
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		return false
	}
	prefix, suffix := pattern[:star], pattern[star+1:]
	return strings.HasPrefix(value, prefix) &&
		strings.HasSuffix(value, suffix) &&
		len(value) >= len(prefix)+len(suffix)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
