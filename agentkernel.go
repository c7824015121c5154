// Package agentkernel provides a high-level façade over the orchestration
// kernel and its services (registry, event bus, triggers, background
// executor, heartbeat monitoring & graceful shutdown) enabling rapid
// construction of autonomous multi-agent systems. Most applications
// interact with this package by:
//  1. Creating an AgentKernel via New() (optionally supplying a model
//     completer, metrics and an audit trail)
//  2. Spawning one or more agents (reactive, continuous, periodic,
//     proactive) from code or YAML manifests
//  3. Letting the kernel run until Shutdown() walks the graceful stop
//     sequence
//
// The façade delegates orchestration to kernel.Kernel while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply a real completer, a
// persistent audit trail and a structured logger.
package agentkernel

import (
	"context"
	"time"

	"github.com/hupe1980/agentkernel/audit"
	"github.com/hupe1980/agentkernel/capability"
	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/event"
	"github.com/hupe1980/agentkernel/heartbeat"
	"github.com/hupe1980/agentkernel/kernel"
	"github.com/hupe1980/agentkernel/logging"
	"github.com/hupe1980/agentkernel/manifest"
	"github.com/hupe1980/agentkernel/metrics"
	"github.com/hupe1980/agentkernel/model"
	"github.com/hupe1980/agentkernel/shutdown"
	"github.com/hupe1980/agentkernel/trigger"
)

// Options configures the AgentKernel instance.
type Options struct {
	// Completer runs agent turns. Defaults to a mock completer so local
	// development works without provider credentials.
	Completer model.Completer

	// MaxConcurrentDispatches limits background dispatches that can
	// execute simultaneously across all agents. This prevents provider
	// exhaustion and provides backpressure.
	MaxConcurrentDispatches int

	// HeartbeatSweep is how often agent liveness is checked.
	HeartbeatSweep time.Duration

	// ShutdownTimeout is the overall budget for the graceful stop
	// sequence.
	ShutdownTimeout time.Duration

	// Metrics (optional) receives kernel instrumentation.
	Metrics *metrics.Metrics

	// Audit (optional) records security relevant actions.
	Audit *audit.Trail

	// Hooks are invoked during the matching shutdown phases.
	Hooks kernel.Hooks

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// AgentKernel is the high-level façade aggregating the underlying kernel
// and services.
type AgentKernel struct {
	opts   Options
	kernel *kernel.Kernel
}

// New creates a new AgentKernel instance with optional overrides and starts
// its event pump.
func New(optFns ...func(o *Options)) *AgentKernel {
	opts := Options{
		MaxConcurrentDispatches: 4,
		HeartbeatSweep:          30 * time.Second,
		ShutdownTimeout:         30 * time.Second,
		Logger:                  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	k := kernel.New(func(o *kernel.Options) {
		o.Logger = opts.Logger
		o.Completer = opts.Completer
		o.Metrics = opts.Metrics
		o.Audit = opts.Audit
		o.Hooks = opts.Hooks
		o.MaxConcurrentDispatches = opts.MaxConcurrentDispatches
		o.HeartbeatSweep = opts.HeartbeatSweep
		o.ShutdownTimeout = opts.ShutdownTimeout
	})

	k.Start()

	return &AgentKernel{opts: opts, kernel: k}
}

// Spawn creates an agent and returns its ID.
func (a *AgentKernel) Spawn(spec kernel.SpawnSpec) (string, error) {
	return a.kernel.Spawn(spec)
}

// SpawnFromManifest spawns an agent from a parsed YAML manifest.
func (a *AgentKernel) SpawnFromManifest(m *manifest.Manifest, parentID string) (string, error) {
	return a.kernel.SpawnFromManifest(m, parentID)
}

// Terminate shuts an agent down.
func (a *AgentKernel) Terminate(agentID, reason string) error {
	return a.kernel.Terminate(agentID, reason)
}

// Publish routes an event through the kernel's bus.
func (a *AgentKernel) Publish(e event.Event) error {
	return a.kernel.Publish(e)
}

// RegisterTrigger installs a trigger for an agent from a condition string.
func (a *AgentKernel) RegisterTrigger(agentID, condition, promptTemplate string, maxFires uint64) (string, error) {
	return a.kernel.RegisterTrigger(agentID, condition, promptTemplate, maxFires)
}

// CheckCapability reports whether an agent holds a covering grant.
func (a *AgentKernel) CheckCapability(agentID string, required capability.Capability) bool {
	return a.kernel.CheckCapability(agentID, required)
}

// Heartbeat reports the current liveness picture.
func (a *AgentKernel) Heartbeat() ([]heartbeat.Status, heartbeat.Summary) {
	return a.kernel.Heartbeat()
}

// Registry exposes the agent registry snapshot.
func (a *AgentKernel) Registry() core.RegistrySnapshot {
	return a.kernel.Registry()
}

// Triggers exposes the trigger engine.
func (a *AgentKernel) Triggers() *trigger.Engine {
	return a.kernel.Triggers()
}

// Coordinator exposes the shutdown coordinator.
func (a *AgentKernel) Coordinator() *shutdown.Coordinator {
	return a.kernel.Coordinator()
}

// Shutdown walks the graceful stop sequence.
func (a *AgentKernel) Shutdown(ctx context.Context, reason string) error {
	return a.kernel.Shutdown(ctx, reason)
}
