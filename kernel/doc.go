// Package kernel wires the orchestration subsystems into one runtime: the
// agent registry, the event bus, the trigger engine, the background
// executor, the heartbeat monitor and the graceful shutdown coordinator.
//
// The kernel owns the event pump. Every event published to the bus is
// evaluated against registered triggers, and resulting activations are
// handed to the executor, which dispatches the rendered prompt through the
// configured model completer. A periodic heartbeat sweep re-emits system
// events for agents that have gone silent.
//
// Spawning is capability checked: a child agent may never hold a grant its
// parent cannot cover, and denied spawns are recorded in the audit trail.
package kernel
