package shutdown

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/hupe1980/agentkernel/logging"
)

// Phase identifies a step in the shutdown sequence. Phases are ordered and
// the coordinator only ever moves to a higher phase.
type Phase int

const (
	// PhaseRunning means shutdown has not been initiated.
	PhaseRunning Phase = iota
	// PhaseDraining rejects new work while in-flight operations finish.
	PhaseDraining
	// PhaseBroadcastingShutdown notifies all agents of the impending stop.
	PhaseBroadcastingShutdown
	// PhaseWaitingForAgents waits for agents to acknowledge and wind down.
	PhaseWaitingForAgents
	// PhaseClosingBrowsers tears down browser automation sessions.
	PhaseClosingBrowsers
	// PhaseClosingMcp disconnects external tool servers.
	PhaseClosingMcp
	// PhaseStoppingBackground stops the background executor loops.
	PhaseStoppingBackground
	// PhaseFlushingAudit flushes buffered audit entries to storage.
	PhaseFlushingAudit
	// PhaseClosingDatabase closes the kernel database.
	PhaseClosingDatabase
	// PhaseComplete means shutdown has finished.
	PhaseComplete
)

// String returns the snake_case name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseDraining:
		return "draining"
	case PhaseBroadcastingShutdown:
		return "broadcasting_shutdown"
	case PhaseWaitingForAgents:
		return "waiting_for_agents"
	case PhaseClosingBrowsers:
		return "closing_browsers"
	case PhaseClosingMcp:
		return "closing_mcp"
	case PhaseStoppingBackground:
		return "stopping_background"
	case PhaseFlushingAudit:
		return "flushing_audit"
	case PhaseClosingDatabase:
		return "closing_database"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Sequence returns the shutdown phases in execution order, excluding the
// Running and Complete sentinels.
func Sequence() []Phase {
	return []Phase{
		PhaseDraining,
		PhaseBroadcastingShutdown,
		PhaseWaitingForAgents,
		PhaseClosingBrowsers,
		PhaseClosingMcp,
		PhaseStoppingBackground,
		PhaseFlushingAudit,
		PhaseClosingDatabase,
	}
}

// PhaseLog records the outcome of one completed phase.
type PhaseLog struct {
	Phase      string `json:"phase"`
	DurationMs int64  `json:"duration_ms"`
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
}

// Status is a point in time snapshot of shutdown progress.
type Status struct {
	IsShuttingDown  bool       `json:"is_shutting_down"`
	Phase           Phase      `json:"-"`
	CurrentPhase    string     `json:"current_phase"`
	ElapsedSecs     float64    `json:"elapsed_secs"`
	Reason          string     `json:"reason,omitempty"`
	StartedAt       time.Time  `json:"started_at,omitzero"`
	PhasesCompleted []PhaseLog `json:"phases_completed"`
}

// Options configures the coordinator.
type Options struct {
	// Logger is the logger used by the coordinator. Defaults to NoOpLogger.
	Logger logging.Logger

	// Timeout is the overall budget for the whole shutdown sequence.
	Timeout time.Duration
}

// Coordinator tracks shutdown state. It does not perform the phase work
// itself; the kernel calls AdvancePhase around each step it executes.
type Coordinator struct {
	mu        sync.Mutex
	phase     Phase
	reason    string
	startedAt time.Time
	log       []PhaseLog
	opts      Options
}

// New creates a shutdown coordinator in the Running phase.
func New(optFns ...func(o *Options)) *Coordinator {
	opts := Options{
		Logger:  logging.NoOpLogger{},
		Timeout: 30 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Coordinator{
		phase: PhaseRunning,
		opts:  opts,
	}
}

// Initiate moves the coordinator out of the Running phase. It returns true
// on the first call and false on every subsequent one, making it safe to
// wire to both signal handlers and API endpoints.
func (c *Coordinator) Initiate(reason string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseRunning {
		return false
	}

	c.phase = PhaseDraining
	c.reason = reason
	c.startedAt = time.Now()

	c.opts.Logger.Info("Shutdown initiated", "reason", reason)

	return true
}

// AdvancePhase runs fn as the body of the given phase, records its outcome
// and moves the coordinator to that phase. Phases must be advanced in
// order; a phase earlier than the current one is ignored with a warning
// and records no entry. Errors from fn are logged, never propagated, so
// one failing phase cannot stall the rest of the sequence.
func (c *Coordinator) AdvancePhase(phase Phase, fn func() error) {
	c.mu.Lock()

	if !c.initiated() || phase < c.phase {
		c.mu.Unlock()
		c.opts.Logger.Warn("Ignoring out of order shutdown phase", "phase", phase.String())
		return
	}

	c.phase = phase
	c.mu.Unlock()

	start := time.Now()

	var err error
	if fn != nil {
		err = fn()
	}

	entry := PhaseLog{
		Phase:      phase.String(),
		DurationMs: time.Since(start).Milliseconds(),
		Success:    err == nil,
	}
	if err != nil {
		entry.Message = err.Error()
	}

	c.mu.Lock()
	c.log = append(c.log, entry)
	c.mu.Unlock()

	if err != nil {
		c.opts.Logger.Warn("Shutdown phase failed, continuing", "phase", phase.String(), "error", err)
	} else {
		c.opts.Logger.Info("Shutdown phase complete", "phase", phase.String(), "duration_ms", entry.DurationMs)
	}
}

// Complete marks the sequence as finished.
func (c *Coordinator) Complete() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseRunning || c.phase == PhaseComplete {
		return
	}

	c.phase = PhaseComplete

	c.opts.Logger.Info("Shutdown complete", "elapsed", time.Since(c.startedAt).String(), "phases", len(c.log))
}

// Phase returns the current phase.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.phase
}

// Initiated reports whether shutdown has started.
func (c *Coordinator) Initiated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.initiated()
}

// initiated must be called with c.mu held.
func (c *Coordinator) initiated() bool {
	return c.phase != PhaseRunning
}

// TimeoutExceeded reports whether the shutdown has been running longer than
// its configured budget.
func (c *Coordinator) TimeoutExceeded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initiated() {
		return false
	}

	return time.Since(c.startedAt) > c.opts.Timeout
}

// Status returns a snapshot of shutdown progress.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Status{
		IsShuttingDown:  c.initiated(),
		Phase:           c.phase,
		CurrentPhase:    c.phase.String(),
		Reason:          c.reason,
		StartedAt:       c.startedAt,
		PhasesCompleted: append([]PhaseLog(nil), c.log...),
	}
	if s.IsShuttingDown {
		s.ElapsedSecs = time.Since(c.startedAt).Seconds()
	}

	return s
}

// BroadcastMessage builds the JSON payload sent to every agent during the
// broadcasting phase.
func (c *Coordinator) BroadcastMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg, _ := json.Marshal(map[string]string{
		"type":   "shutdown",
		"reason": c.reason,
		"phase":  c.phase.String(),
	})

	return string(msg)
}
