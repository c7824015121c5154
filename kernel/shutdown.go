package kernel

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentkernel/audit"
	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/event"
	"github.com/hupe1980/agentkernel/shutdown"
)

// Shutdown runs the graceful shutdown sequence. It is safe to call from a
// signal handler and from the status API; only the first call runs the
// sequence, later calls return an error immediately.
func (k *Kernel) Shutdown(ctx context.Context, reason string) error {
	if !k.coord.Initiate(reason) {
		return fmt.Errorf("shutdown already initiated")
	}

	k.audit(audit.Entry{
		Action:  audit.ActionShutdown,
		Detail:  reason,
		Allowed: true,
	})

	k.bus.Publish(event.New(event.SourceSystem, event.ToSystem(), event.System{
		Kind: event.KernelStopping,
	}))

	// Draining began at Initiate: Publish and Spawn reject new work now.
	k.coord.AdvancePhase(shutdown.PhaseDraining, nil)

	k.coord.AdvancePhase(shutdown.PhaseBroadcastingShutdown, func() error {
		delivered := k.bus.Publish(event.New(event.SourceSystem, event.Broadcast(), event.Message{
			Content: k.coord.BroadcastMessage(),
			Role:    "system",
		}))

		k.opts.Logger.Info("Shutdown broadcast sent", "delivered", delivered)

		return nil
	})

	k.coord.AdvancePhase(shutdown.PhaseWaitingForAgents, func() error {
		return k.waitForAgents(ctx)
	})

	k.coord.AdvancePhase(shutdown.PhaseClosingBrowsers, k.hook(ctx, k.opts.Hooks.CloseBrowsers))
	k.coord.AdvancePhase(shutdown.PhaseClosingMcp, k.hook(ctx, k.opts.Hooks.CloseMcp))

	k.coord.AdvancePhase(shutdown.PhaseStoppingBackground, func() error {
		close(k.stopPump)
		k.exec.Stop()
		k.wg.Wait()

		return nil
	})

	k.coord.AdvancePhase(shutdown.PhaseFlushingAudit, func() error {
		if k.opts.Audit == nil {
			return nil
		}

		return k.opts.Audit.Flush(ctx)
	})

	k.coord.AdvancePhase(shutdown.PhaseClosingDatabase, func() error {
		if k.opts.Audit == nil {
			return nil
		}

		return k.opts.Audit.Close()
	})

	k.coord.Complete()

	if k.opts.Metrics != nil {
		for _, entry := range k.coord.Status().PhasesCompleted {
			k.opts.Metrics.ShutdownPhaseTime.WithLabelValues(entry.Phase).Observe(float64(entry.DurationMs) / 1000)
		}
	}

	return nil
}

// waitForAgents polls until every running agent has wound down or the
// grace period (or the caller's context) runs out. Agents that never
// acknowledge are not an error; the sequence simply moves on.
func (k *Kernel) waitForAgents(ctx context.Context) error {
	deadline := time.Now().Add(k.opts.DrainGrace)

	for time.Now().Before(deadline) {
		if k.registry.Count(core.AgentStateRunning) == 0 {
			return nil
		}

		if k.coord.TimeoutExceeded() {
			return fmt.Errorf("shutdown timeout exceeded with %d agents still running", k.registry.Count(core.AgentStateRunning))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}

	remaining := k.registry.Count(core.AgentStateRunning)
	if remaining > 0 {
		k.opts.Logger.Warn("Proceeding with agents still running", "count", remaining)
	}

	return nil
}

func (k *Kernel) hook(ctx context.Context, fn func(ctx context.Context) error) func() error {
	return func() error {
		if fn == nil {
			return nil
		}

		return fn(ctx)
	}
}
