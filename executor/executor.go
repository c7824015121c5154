package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/logging"
	"github.com/hupe1980/agentkernel/trigger"
)

// Dispatcher delivers a self-prompt to an agent and blocks until the agent
// has finished handling it. The kernel's dispatcher runs the prompt through
// the agent's model; tests substitute something cheaper.
type Dispatcher interface {
	Dispatch(ctx context.Context, agentID, prompt string) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, agentID, prompt string) error

// Dispatch calls the wrapped function.
func (f DispatcherFunc) Dispatch(ctx context.Context, agentID, prompt string) error {
	return f(ctx, agentID, prompt)
}

// Options configures the executor.
type Options struct {
	// Logger is the logger used by the executor. Defaults to NoOpLogger.
	Logger logging.Logger

	// MaxConcurrent caps dispatches running at once across all agents.
	MaxConcurrent int

	// Triggers is the engine proactive schedules register their
	// conditions with. Required only if proactive agents are started.
	Triggers *trigger.Engine

	// DispatchTimeout bounds a single dispatch.
	DispatchTimeout time.Duration

	// OnDispatch, if set, is invoked after every dispatch with its
	// duration and outcome. Used for metrics.
	OnDispatch func(agentID string, dur time.Duration, err error)

	// OnSkip, if set, is invoked whenever a wakeup is skipped because the
	// agent was still busy.
	OnSkip func(agentID string)
}

// Executor drives the background schedules of registered agents.
type Executor struct {
	mu       sync.Mutex
	agents   map[string]*managed
	permits  chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	skips    atomic.Uint64
	disp     Dispatcher
	opts     Options
}

// managed is the executor's per-agent state.
type managed struct {
	id       string
	schedule core.ScheduleMode
	prompt   string
	busy     atomic.Bool
	cancel   context.CancelFunc
	triggers []string
}

// New creates an executor that sends self-prompts through the given
// dispatcher.
func New(disp Dispatcher, optFns ...func(o *Options)) *Executor {
	opts := Options{
		Logger:          logging.NoOpLogger{},
		MaxConcurrent:   4,
		DispatchTimeout: 5 * time.Minute,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Executor{
		agents:  make(map[string]*managed),
		permits: make(chan struct{}, opts.MaxConcurrent),
		stopCh:  make(chan struct{}),
		disp:    disp,
		opts:    opts,
	}
}

// StartAgent begins driving an agent according to its schedule. The prompt
// is the standing instruction delivered on each wakeup; proactive schedules
// use it as the trigger template, so it may contain the {{event}} token.
// Proactive conditions that fail to parse are logged and skipped; the
// agent still starts with the conditions that remain.
func (e *Executor) StartAgent(agentID string, schedule core.ScheduleMode, prompt string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	select {
	case <-e.stopCh:
		return fmt.Errorf("executor stopped")
	default:
	}

	if _, ok := e.agents[agentID]; ok {
		return fmt.Errorf("agent %s already started", agentID)
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &managed{
		id:       agentID,
		schedule: schedule,
		prompt:   prompt,
		cancel:   cancel,
	}

	switch schedule.Kind {
	case core.ScheduleReactive:
		// No loop. The agent only runs when messaged or triggered.
	case core.ScheduleContinuous:
		interval := schedule.Interval
		if interval <= 0 {
			interval = time.Minute
		}

		e.wg.Add(1)
		go e.loop(ctx, m, interval)
	case core.SchedulePeriodic:
		e.wg.Add(1)
		go e.loop(ctx, m, ParsePeriod(schedule.Every))
	case core.ScheduleProactive:
		if e.opts.Triggers == nil {
			cancel()
			return fmt.Errorf("proactive schedule for agent %s requires a trigger engine", agentID)
		}

		for _, cond := range schedule.Conditions {
			pattern, err := trigger.ParseCondition(cond)
			if err != nil {
				// A bad condition costs the agent one wake source,
				// nothing more. The remaining conditions still register.
				e.opts.Logger.Warn("Skipping unparseable proactive condition",
					"agent_id", agentID, "condition", cond, "error", err)
				continue
			}

			id := e.opts.Triggers.Register(agentID, pattern, prompt, 0)
			m.triggers = append(m.triggers, id)
		}
	default:
		cancel()
		return fmt.Errorf("unknown schedule kind: %s", schedule.Kind)
	}

	e.agents[agentID] = m

	e.opts.Logger.Info("Background agent started", "agent_id", agentID, "schedule", string(schedule.Kind))

	return nil
}

// StopAgent stops driving an agent. Its loop is cancelled and its proactive
// triggers are removed. An in-flight dispatch is allowed to finish.
func (e *Executor) StopAgent(agentID string) bool {
	e.mu.Lock()
	m, ok := e.agents[agentID]
	if ok {
		delete(e.agents, agentID)
	}
	e.mu.Unlock()

	if !ok {
		return false
	}

	m.cancel()

	if e.opts.Triggers != nil {
		for _, id := range m.triggers {
			e.opts.Triggers.Remove(id)
		}
	}

	e.opts.Logger.Info("Background agent stopped", "agent_id", agentID)

	return true
}

// Wake dispatches an agent's standing prompt immediately, outside its
// schedule, subject to the same busy and permit discipline. It reports
// whether the dispatch was started.
func (e *Executor) Wake(agentID string) bool {
	e.mu.Lock()
	m, ok := e.agents[agentID]
	e.mu.Unlock()

	if !ok {
		return false
	}

	return e.tryDispatch(context.Background(), m, m.prompt)
}

// Activate handles a trigger activation, dispatching the rendered message
// to the target agent. Activations for agents the executor does not manage
// are ignored.
func (e *Executor) Activate(ctx context.Context, a trigger.Activation) bool {
	e.mu.Lock()
	m, ok := e.agents[a.AgentID]
	e.mu.Unlock()

	if !ok {
		return false
	}

	return e.tryDispatch(ctx, m, a.Message)
}

// Stop cancels all loops and blocks until they exit. In-flight dispatches
// are allowed to run to completion in their own goroutines.
func (e *Executor) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
	})

	e.mu.Lock()
	for id, m := range e.agents {
		m.cancel()
		delete(e.agents, id)
	}
	e.mu.Unlock()

	e.wg.Wait()
}

// SkippedTicks returns how many wakeups were skipped because the agent was
// still busy with a previous dispatch.
func (e *Executor) SkippedTicks() uint64 {
	return e.skips.Load()
}

// AgentCount returns the number of agents the executor is driving.
func (e *Executor) AgentCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.agents)
}

// loop is the shared ticker loop for continuous and periodic schedules.
func (e *Executor) loop(ctx context.Context, m *managed, interval time.Duration) {
	defer e.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.tryDispatch(ctx, m, m.prompt)
		}
	}
}

// tryDispatch applies the busy flag and permit gate, then runs the dispatch
// in a detached goroutine so the schedule loop never blocks on slow agents.
func (e *Executor) tryDispatch(ctx context.Context, m *managed, prompt string) bool {
	if !m.busy.CompareAndSwap(false, true) {
		e.skips.Add(1)
		e.opts.Logger.Debug("Skipping wakeup, agent still busy", "agent_id", m.id)

		if e.opts.OnSkip != nil {
			e.opts.OnSkip(m.id)
		}

		return false
	}

	select {
	case e.permits <- struct{}{}:
	case <-ctx.Done():
		m.busy.Store(false)
		return false
	case <-e.stopCh:
		m.busy.Store(false)
		return false
	}

	go func() {
		defer func() {
			<-e.permits
			m.busy.Store(false)
		}()

		dctx, cancel := context.WithTimeout(context.Background(), e.opts.DispatchTimeout)
		defer cancel()

		start := time.Now()
		err := e.disp.Dispatch(dctx, m.id, prompt)
		dur := time.Since(start)

		if err != nil {
			e.opts.Logger.Error("Dispatch failed", "agent_id", m.id, "duration", dur, "error", err)
		} else {
			e.opts.Logger.Debug("Dispatch completed", "agent_id", m.id, "duration", dur)
		}

		if e.opts.OnDispatch != nil {
			e.opts.OnDispatch(m.id, dur, err)
		}
	}()

	return true
}
