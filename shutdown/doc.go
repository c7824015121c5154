// Package shutdown implements the graceful shutdown coordinator.
//
// Shutdown proceeds through a fixed sequence of phases, from draining new
// work to closing the database. The coordinator tracks which phase is
// current, records a log entry per completed phase, and guarantees that
// shutdown can only be initiated once and that phases only move forward.
// Failures in a phase are recorded but never halt the sequence; a partial
// shutdown that completes is better than one that hangs.
package shutdown
