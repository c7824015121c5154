// Package event defines the kernel's event model. All inter-agent and
// system communication flows through Event values: immutable once
// created, routed by a Target, and carrying one of a closed set of
// payload variants (message, tool result, memory delta, lifecycle,
// network, system, custom bytes).
//
// Describe renders any event as a single human-readable line; the trigger
// engine substitutes that line for the {{event}} token in prompt
// templates.
package event
