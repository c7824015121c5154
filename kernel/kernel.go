package kernel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentkernel/audit"
	"github.com/hupe1980/agentkernel/bus"
	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/event"
	"github.com/hupe1980/agentkernel/executor"
	"github.com/hupe1980/agentkernel/heartbeat"
	"github.com/hupe1980/agentkernel/logging"
	"github.com/hupe1980/agentkernel/metrics"
	"github.com/hupe1980/agentkernel/model"
	"github.com/hupe1980/agentkernel/registry"
	"github.com/hupe1980/agentkernel/shutdown"
	"github.com/hupe1980/agentkernel/trigger"
)

// Hooks are optional closers the shutdown sequence invokes for resources
// the kernel does not own itself.
type Hooks struct {
	// CloseBrowsers tears down browser automation sessions.
	CloseBrowsers func(ctx context.Context) error

	// CloseMcp disconnects external tool servers.
	CloseMcp func(ctx context.Context) error
}

// Options configures the kernel.
type Options struct {
	// Logger is the logger used by the kernel and its subsystems.
	// Defaults to NoOpLogger.
	Logger logging.Logger

	// Completer runs agent turns. Defaults to a mock completer so
	// examples work without credentials.
	Completer model.Completer

	// Metrics, if set, receives kernel instrumentation.
	Metrics *metrics.Metrics

	// Audit, if set, records security relevant actions.
	Audit *audit.Trail

	// HeartbeatSweep is how often the kernel checks agent liveness.
	HeartbeatSweep time.Duration

	// MaxConcurrentDispatches caps background dispatches across agents.
	MaxConcurrentDispatches int

	// DispatchTimeout bounds a single background dispatch.
	DispatchTimeout time.Duration

	// ShutdownTimeout is the overall budget for graceful shutdown.
	ShutdownTimeout time.Duration

	// DrainGrace is how long the shutdown sequence waits for agents to
	// wind down after the broadcast.
	DrainGrace time.Duration

	// Hooks are invoked during the matching shutdown phases.
	Hooks Hooks
}

// Kernel is the orchestration runtime.
type Kernel struct {
	registry  *registry.Registry
	bus       *bus.Bus
	triggers  *trigger.Engine
	exec      *executor.Executor
	coord     *shutdown.Coordinator
	completer model.Completer

	// prompts maps agent ID to system prompt. Kept out of the registry so
	// monitoring snapshots stay small.
	prompts sync.Map

	stopPump chan struct{}
	wg       sync.WaitGroup
	started  sync.Once

	opts Options
}

// New creates a kernel.
func New(optFns ...func(o *Options)) *Kernel {
	opts := Options{
		Logger:                  logging.NoOpLogger{},
		HeartbeatSweep:          30 * time.Second,
		MaxConcurrentDispatches: 4,
		DispatchTimeout:         5 * time.Minute,
		ShutdownTimeout:         30 * time.Second,
		DrainGrace:              2 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Completer == nil {
		opts.Completer = model.NewMockCompleter("mock")
	}

	k := &Kernel{
		registry:  registry.New(),
		completer: opts.Completer,
		stopPump:  make(chan struct{}),
		opts:      opts,
	}

	k.bus = bus.New(func(o *bus.Options) {
		o.Logger = opts.Logger
	})

	k.triggers = trigger.NewEngine(func(o *trigger.Options) {
		o.Logger = opts.Logger
	})

	k.coord = shutdown.New(func(o *shutdown.Options) {
		o.Logger = opts.Logger
		o.Timeout = opts.ShutdownTimeout
	})

	k.exec = executor.New(executor.DispatcherFunc(k.dispatch), func(o *executor.Options) {
		o.Logger = opts.Logger
		o.Triggers = k.triggers
		o.MaxConcurrent = opts.MaxConcurrentDispatches
		o.DispatchTimeout = opts.DispatchTimeout
		o.OnDispatch = k.onDispatch
		o.OnSkip = func(string) {
			if opts.Metrics != nil {
				opts.Metrics.SkippedTicksTotal.Inc()
			}
		}
	})

	return k
}

// Start launches the event pump and the heartbeat sweep. It is idempotent.
func (k *Kernel) Start() {
	k.started.Do(func() {
		tap := k.bus.Tap()

		k.wg.Add(2)
		go k.pump(tap)
		go k.sweep()

		k.Publish(event.New(event.SourceSystem, event.ToSystem(), event.System{
			Kind: event.KernelStarted,
		}))

		k.opts.Logger.Info("Kernel started")
	})
}

// Registry exposes the agent registry snapshot for monitoring components.
func (k *Kernel) Registry() core.RegistrySnapshot {
	return k.registry
}

// Triggers exposes the trigger engine.
func (k *Kernel) Triggers() *trigger.Engine {
	return k.triggers
}

// Coordinator exposes the shutdown coordinator.
func (k *Kernel) Coordinator() *shutdown.Coordinator {
	return k.coord
}

// Publish routes an event through the bus. Events from unknown or
// terminated agents are still delivered; the bus is not an authorization
// boundary. Publishing is rejected once shutdown has begun, except for the
// kernel's own system traffic.
func (k *Kernel) Publish(e event.Event) error {
	if k.coord.Initiated() && e.Source != event.SourceSystem {
		return fmt.Errorf("kernel is draining, event rejected")
	}

	if e.Source != event.SourceSystem {
		k.registry.Touch(e.Source)
	}

	delivered := k.bus.Publish(e)

	if k.opts.Metrics != nil {
		k.opts.Metrics.EventsTotal.WithLabelValues(string(e.Target.Kind)).Inc()
	}

	k.opts.Logger.Debug("Event published", "event_id", e.ID, "source", e.Source, "delivered", delivered)

	return nil
}

// Heartbeat reports the current liveness picture.
func (k *Kernel) Heartbeat() ([]heartbeat.Status, heartbeat.Summary) {
	statuses := heartbeat.Check(k.registry.List(), k.heartbeatConfig(), time.Now())

	return statuses, heartbeat.Summarize(statuses)
}

func (k *Kernel) heartbeatConfig() heartbeat.Config {
	return heartbeat.Config{Interval: k.opts.HeartbeatSweep}
}

// pump evaluates every bus event against the trigger engine and hands
// activations to the executor.
func (k *Kernel) pump(tap <-chan event.Event) {
	defer k.wg.Done()

	for {
		select {
		case <-k.stopPump:
			return
		case e := <-tap:
			activations := k.triggers.Evaluate(e)

			for _, a := range activations {
				if k.opts.Metrics != nil {
					k.opts.Metrics.TriggerFiresTotal.Inc()
				}

				if !k.exec.Activate(context.Background(), a) {
					k.opts.Logger.Debug("Activation skipped", "trigger_id", a.TriggerID, "agent_id", a.AgentID)
				}
			}
		}
	}
}

// sweep periodically re-emits system events for unresponsive agents.
func (k *Kernel) sweep() {
	defer k.wg.Done()

	ticker := time.NewTicker(k.opts.HeartbeatSweep)
	defer ticker.Stop()

	for {
		select {
		case <-k.stopPump:
			return
		case <-ticker.C:
			statuses := heartbeat.Check(k.registry.List(), k.heartbeatConfig(), time.Now())
			summary := heartbeat.Summarize(statuses)

			if k.opts.Metrics != nil {
				k.opts.Metrics.UnresponsiveCount.Set(float64(summary.Unresponsive))
			}

			for _, s := range summary.UnresponsiveAgents {
				k.opts.Logger.Warn("Agent unresponsive", "agent_id", s.AgentID, "silent_for", s.SilentFor.String())

				k.bus.Publish(event.New(event.SourceSystem, event.ToSystem(), event.System{
					Kind:            event.HealthCheckFailed,
					AgentID:         s.AgentID,
					UnresponsiveFor: s.SilentFor,
				}))
			}
		}
	}
}

// dispatch runs one agent turn through the completer.
func (k *Kernel) dispatch(ctx context.Context, agentID, prompt string) error {
	entry, ok := k.registry.Get(agentID)
	if !ok {
		return fmt.Errorf("agent %s not registered", agentID)
	}

	if entry.State != core.AgentStateRunning {
		return fmt.Errorf("agent %s is %s, not dispatchable", agentID, entry.State)
	}

	resp, err := k.completer.Complete(ctx, model.Request{
		System: k.systemPrompt(entry),
		Prompt: prompt,
	})
	if err != nil {
		return err
	}

	k.registry.Touch(agentID)

	return k.Publish(event.New(agentID, event.ToSystem(), event.Message{
		Content: resp.Text,
		Role:    "assistant",
	}))
}

func (k *Kernel) systemPrompt(entry registry.Entry) string {
	if sp, ok := k.prompts.Load(entry.ID); ok {
		return sp.(string)
	}

	return ""
}

func (k *Kernel) onDispatch(agentID string, dur time.Duration, err error) {
	if k.opts.Metrics != nil {
		k.opts.Metrics.ObserveDispatch(dur, err)
	}

	if k.opts.Audit != nil {
		detail := dur.Round(time.Millisecond).String()
		if err != nil {
			detail = fmt.Sprintf("%s: %s", detail, err)
		}

		k.opts.Audit.Record(audit.Entry{
			AgentID: agentID,
			Action:  audit.ActionDispatch,
			Detail:  detail,
			Allowed: err == nil,
		})
	}
}
