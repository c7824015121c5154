// Package executor runs background agents according to their schedule.
//
// Continuous agents are woken on a fixed interval, periodic agents on a
// parsed "every N" expression, and proactive agents only when one of their
// compiled trigger conditions fires. Reactive agents have no loop at all.
//
// Two disciplines keep background work bounded. A per-agent busy flag makes
// wakeups skip, never queue: an agent still working when its next tick
// arrives simply misses that tick. A global permit gate caps how many
// dispatches run at once across all agents, so a fleet of busy schedules
// cannot exhaust the underlying model provider.
package executor
