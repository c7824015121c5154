package event

import "fmt"

// maxDescribedContent caps how much tool output is embedded in a
// description so rendered prompts stay bounded.
const maxDescribedContent = 200

// Describe renders a single human-readable line for an event. The trigger
// engine substitutes this line for the {{event}} token in prompt
// templates, and substring trigger patterns match against it.
func Describe(e Event) string {
	switch p := e.Payload.(type) {
	case Message:
		return fmt.Sprintf("Message from %s: %s", p.Role, p.Content)
	case ToolResult:
		outcome := "succeeded"
		if !p.Success {
			outcome = "failed"
		}
		content := p.Content
		if len(content) > maxDescribedContent {
			content = content[:maxDescribedContent]
		}
		return fmt.Sprintf("Tool '%s' %s (%dms): %s", p.ToolID, outcome, p.Elapsed.Milliseconds(), content)
	case MemoryDelta:
		return fmt.Sprintf("Memory %s on key '%s' for agent %s", p.Op, p.Key, p.AgentID)
	case Lifecycle:
		return describeLifecycle(p)
	case Network:
		switch p.Kind {
		case PeerConnected:
			return fmt.Sprintf("Peer %s connected", p.PeerID)
		case PeerDisconnected:
			return fmt.Sprintf("Peer %s disconnected", p.PeerID)
		}
		return fmt.Sprintf("Network event: %s (peer %s)", p.Kind, p.PeerID)
	case System:
		return describeSystem(p)
	case Custom:
		return fmt.Sprintf("Custom event (%d bytes)", len(p.Data))
	default:
		return fmt.Sprintf("Event %s", e.ID)
	}
}

func describeLifecycle(p Lifecycle) string {
	switch p.Kind {
	case LifecycleSpawned:
		return fmt.Sprintf("Agent '%s' (id: %s) was spawned", p.Name, p.AgentID)
	case LifecycleStarted:
		return fmt.Sprintf("Agent %s started", p.AgentID)
	case LifecycleSuspended:
		return fmt.Sprintf("Agent %s suspended", p.AgentID)
	case LifecycleResumed:
		return fmt.Sprintf("Agent %s resumed", p.AgentID)
	case LifecycleTerminated:
		return fmt.Sprintf("Agent %s terminated: %s", p.AgentID, p.Reason)
	case LifecycleCrashed:
		return fmt.Sprintf("Agent %s crashed: %s", p.AgentID, p.Reason)
	}
	return fmt.Sprintf("Lifecycle event %s for agent %s", p.Kind, p.AgentID)
}

func describeSystem(p System) string {
	switch p.Kind {
	case KernelStarted:
		return "Kernel started"
	case KernelStopping:
		return "Kernel stopping"
	case QuotaWarning:
		return fmt.Sprintf("Quota warning: agent %s, %s at %.1f%%", p.AgentID, p.Resource, p.UsagePercent)
	case HealthCheck:
		return fmt.Sprintf("Health check: %s", p.Status)
	case HealthCheckFailed:
		return fmt.Sprintf("Health check failed: agent %s, unresponsive for %ds", p.AgentID, int64(p.UnresponsiveFor.Seconds()))
	}
	return fmt.Sprintf("System event: %s", p.Kind)
}
