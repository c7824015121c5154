package heartbeat

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentkernel/core"
)

// DefaultInterval is the check interval assumed when the config does not
// set one.
const DefaultInterval = 60 * time.Second

// timeoutMultiplier is how many missed intervals an agent is allowed before
// it counts as unresponsive.
const timeoutMultiplier = 2

// Config holds the monitor's settings. The zero value is usable.
type Config struct {
	// Interval is the global check interval. Agents without their own
	// heartbeat interval time out after twice this value. Zero means
	// DefaultInterval.
	Interval time.Duration
}

// Status describes the liveness of a single running agent at a sampling
// instant.
type Status struct {
	AgentID      string        `json:"agent_id"`
	Name         string        `json:"name"`
	SilentFor    time.Duration `json:"-"`
	InactiveSecs float64       `json:"inactive_seconds"`
	Timeout      time.Duration `json:"-"`
	Quiet        bool          `json:"quiet,omitempty"`
	Unresponsive bool          `json:"unresponsive"`
}

// String returns a human readable description of the status.
func (s Status) String() string {
	state := "healthy"
	if s.Unresponsive {
		state = "unresponsive"
	}
	if s.Quiet {
		state = "quiet"
	}

	return fmt.Sprintf("agent '%s' (id: %s) %s, silent for %s (timeout %s)",
		s.Name, s.AgentID, state, s.SilentFor.Round(time.Second), s.Timeout)
}

// Summary aggregates the liveness state of one sampling pass.
type Summary struct {
	TotalChecked       int      `json:"total_checked"`
	Responsive         int      `json:"responsive"`
	Unresponsive       int      `json:"unresponsive"`
	Quiet              int      `json:"quiet"`
	UnresponsiveAgents []Status `json:"unresponsive_agents,omitempty"`
}

// Check returns a status for every running agent in the snapshot. An agent
// is unresponsive when it has been silent for longer than its timeout;
// agents inside their quiet hours are never marked unresponsive. The
// result preserves the order of the input records and the pass has no side
// effects.
func Check(records []core.AgentRecord, cfg Config, now time.Time) []Status {
	var statuses []Status

	for _, rec := range records {
		if rec.State != core.AgentStateRunning {
			continue
		}

		timeout := timeoutFor(rec, cfg)
		silent := now.Sub(rec.LastActive)
		quiet := InQuietHours(rec.QuietHours, now)

		statuses = append(statuses, Status{
			AgentID:      rec.ID,
			Name:         rec.Name,
			SilentFor:    silent,
			InactiveSecs: silent.Seconds(),
			Timeout:      timeout,
			Quiet:        quiet,
			Unresponsive: !quiet && silent > timeout,
		})
	}

	return statuses
}

// Summarize aggregates the statuses of one Check pass.
func Summarize(statuses []Status) Summary {
	s := Summary{TotalChecked: len(statuses)}

	for _, st := range statuses {
		switch {
		case st.Quiet:
			s.Quiet++
		case st.Unresponsive:
			s.Unresponsive++
			s.UnresponsiveAgents = append(s.UnresponsiveAgents, st)
		default:
			s.Responsive++
		}
	}

	return s
}

// timeoutFor returns the unresponsiveness threshold for a record.
func timeoutFor(rec core.AgentRecord, cfg Config) time.Duration {
	interval := rec.HeartbeatInterval
	if interval <= 0 {
		interval = cfg.Interval
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	return interval * timeoutMultiplier
}

// InQuietHours reports whether now falls inside a quiet hours window of the
// form "HH:MM-HH:MM" in the clock's local time. Windows may wrap past
// midnight, e.g. "22:00-06:00". An empty or malformed window is treated as
// no quiet hours at all.
func InQuietHours(window string, now time.Time) bool {
	if window == "" {
		return false
	}

	parts := strings.SplitN(window, "-", 2)
	if len(parts) != 2 {
		return false
	}

	start, ok := parseClock(parts[0])
	if !ok {
		return false
	}

	end, ok := parseClock(parts[1])
	if !ok {
		return false
	}

	minute := now.Hour()*60 + now.Minute()

	if start <= end {
		return minute >= start && minute < end
	}

	// Window wraps past midnight.
	return minute >= start || minute < end
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)

	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, false
	}

	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}

	return h*60 + m, true
}
