package capability

import "fmt"

// Kind discriminates the capability variants. The zero value is invalid.
type Kind string

const (
	// KindFileRead grants reading files matching a glob pattern.
	KindFileRead Kind = "file_read"
	// KindFileWrite grants writing files matching a glob pattern.
	KindFileWrite Kind = "file_write"
	// KindNetConnect grants connecting to hosts matching a glob pattern
	// (e.g. "*.openai.com:443").
	KindNetConnect Kind = "net_connect"
	// KindNetListen grants listening on a specific port.
	KindNetListen Kind = "net_listen"
	// KindToolInvoke grants invoking a specific tool by name.
	KindToolInvoke Kind = "tool_invoke"
	// KindToolAll grants invoking any tool. Dangerous; requires an
	// explicit grant.
	KindToolAll Kind = "tool_all"
	// KindLlmQuery grants querying models matching a glob pattern.
	KindLlmQuery Kind = "llm_query"
	// KindLlmMaxTokens is a numeric ceiling on the token budget.
	KindLlmMaxTokens Kind = "llm_max_tokens"
	// KindAgentSpawn grants spawning sub-agents.
	KindAgentSpawn Kind = "agent_spawn"
	// KindAgentMessage grants messaging agents matching a glob pattern.
	KindAgentMessage Kind = "agent_message"
	// KindAgentKill grants terminating agents matching a glob pattern.
	KindAgentKill Kind = "agent_kill"
	// KindMemoryRead grants reading memory scopes matching a glob pattern.
	KindMemoryRead Kind = "memory_read"
	// KindMemoryWrite grants writing memory scopes matching a glob pattern.
	KindMemoryWrite Kind = "memory_write"
	// KindShellExec grants executing shell commands matching a glob pattern.
	KindShellExec Kind = "shell_exec"
	// KindEnvRead grants reading environment variables matching a glob pattern.
	KindEnvRead Kind = "env_read"
	// KindSpend is a numeric ceiling on spend (USD).
	KindSpend Kind = "spend"
)

// Capability is a single permission grant: a tagged variant of kind plus
// either a glob pattern or a numeric limit, depending on the kind.
// Capabilities are immutable after an agent is created.
type Capability struct {
	Kind Kind `json:"kind" yaml:"kind"`

	// Pattern carries the glob for pattern-scoped kinds. For
	// KindNetListen it holds the port as a decimal string so the type
	// stays a plain comparable value.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Limit carries the ceiling for numeric kinds (KindLlmMaxTokens,
	// KindSpend).
	Limit float64 `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// String renders the capability for diagnostics and error messages.
func (c Capability) String() string {
	switch c.Kind {
	case KindToolAll, KindAgentSpawn:
		return string(c.Kind)
	case KindLlmMaxTokens, KindSpend:
		return fmt.Sprintf("%s(%g)", c.Kind, c.Limit)
	default:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Pattern)
	}
}

// FileRead grants reading files matching pattern.
func FileRead(pattern string) Capability {
	return Capability{Kind: KindFileRead, Pattern: pattern}
}

// FileWrite grants writing files matching pattern.
func FileWrite(pattern string) Capability {
	return Capability{Kind: KindFileWrite, Pattern: pattern}
}

// NetConnect grants connecting to hosts matching pattern.
func NetConnect(pattern string) Capability {
	return Capability{Kind: KindNetConnect, Pattern: pattern}
}

// NetListen grants listening on the given port.
func NetListen(port string) Capability {
	return Capability{Kind: KindNetListen, Pattern: port}
}

// ToolInvoke grants invoking the named tool.
func ToolInvoke(name string) Capability {
	return Capability{Kind: KindToolInvoke, Pattern: name}
}

// ToolAll grants invoking any tool.
func ToolAll() Capability {
	return Capability{Kind: KindToolAll}
}

// LlmQuery grants querying models matching pattern.
func LlmQuery(pattern string) Capability {
	return Capability{Kind: KindLlmQuery, Pattern: pattern}
}

// LlmMaxTokens caps the token budget.
func LlmMaxTokens(max float64) Capability {
	return Capability{Kind: KindLlmMaxTokens, Limit: max}
}

// AgentSpawn grants spawning sub-agents.
func AgentSpawn() Capability {
	return Capability{Kind: KindAgentSpawn}
}

// AgentMessage grants messaging agents matching pattern.
func AgentMessage(pattern string) Capability {
	return Capability{Kind: KindAgentMessage, Pattern: pattern}
}

// AgentKill grants terminating agents matching pattern.
func AgentKill(pattern string) Capability {
	return Capability{Kind: KindAgentKill, Pattern: pattern}
}

// MemoryRead grants reading memory scopes matching pattern.
func MemoryRead(pattern string) Capability {
	return Capability{Kind: KindMemoryRead, Pattern: pattern}
}

// MemoryWrite grants writing memory scopes matching pattern.
func MemoryWrite(pattern string) Capability {
	return Capability{Kind: KindMemoryWrite, Pattern: pattern}
}

// ShellExec grants executing shell commands matching pattern.
func ShellExec(pattern string) Capability {
	return Capability{Kind: KindShellExec, Pattern: pattern}
}

// EnvRead grants reading environment variables matching pattern.
func EnvRead(pattern string) Capability {
	return Capability{Kind: KindEnvRead, Pattern: pattern}
}

// Spend caps spending at the given USD amount.
func Spend(max float64) Capability {
	return Capability{Kind: KindSpend, Limit: max}
}
