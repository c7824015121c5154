// Package trigger implements the kernel's event-to-agent routing. Agents
// register triggers describing which events should wake them; when a
// matching event is evaluated, the engine renders the trigger's prompt
// template (substituting {{event}} with a description of the event) and
// returns one activation per matching trigger.
//
// The engine owns two indices: a trigger table keyed by id and a
// secondary index from agent id to owned trigger ids, so that all of a
// terminated agent's triggers can be removed in one call. Removing them
// is the caller's obligation; the engine never observes terminations
// itself.
package trigger
