package core

import "time"

// ScheduleKind selects which autonomous loop, if any, the background
// executor starts for an agent.
type ScheduleKind string

const (
	// ScheduleReactive agents only act when a message is delivered to them;
	// no background loop is started.
	ScheduleReactive ScheduleKind = "reactive"
	// ScheduleContinuous agents self-prompt on a fixed interval.
	ScheduleContinuous ScheduleKind = "continuous"
	// SchedulePeriodic agents wake on a simplified cron schedule
	// (e.g. "every 5m").
	SchedulePeriodic ScheduleKind = "periodic"
	// ScheduleProactive agents wake when matching events fire; activation
	// is handled entirely by the trigger engine.
	ScheduleProactive ScheduleKind = "proactive"
)

// ScheduleMode is attached to an agent at spawn time and is immutable
// afterwards. Exactly one of the mode-specific fields is meaningful,
// selected by Kind.
type ScheduleMode struct {
	Kind ScheduleKind `json:"kind" yaml:"kind"`

	// Interval between self-prompts for continuous agents.
	Interval time.Duration `json:"interval,omitempty" yaml:"interval,omitempty"`

	// Every holds the simplified cron expression ("every <N>s|m|h|d")
	// for periodic agents.
	Every string `json:"every,omitempty" yaml:"every,omitempty"`

	// Conditions are trigger condition strings ("all", "event:<kind>",
	// "memory:<key-glob>") for proactive agents.
	Conditions []string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// Reactive returns the no-loop schedule mode.
func Reactive() ScheduleMode {
	return ScheduleMode{Kind: ScheduleReactive}
}

// Continuous returns a schedule that self-prompts every interval.
func Continuous(interval time.Duration) ScheduleMode {
	return ScheduleMode{Kind: ScheduleContinuous, Interval: interval}
}

// Periodic returns a schedule driven by a simplified cron expression.
func Periodic(every string) ScheduleMode {
	return ScheduleMode{Kind: SchedulePeriodic, Every: every}
}

// Proactive returns a schedule activated purely by event triggers.
func Proactive(conditions ...string) ScheduleMode {
	return ScheduleMode{Kind: ScheduleProactive, Conditions: conditions}
}
