// Package bus implements the kernel's event bus: the single channel through
// which agents, the kernel and background services exchange events.
//
// The bus supports directed delivery to a single agent, broadcast to all
// subscribers, glob pattern delivery by agent name, and a system lane for
// kernel internal events. A bounded history ring keeps the most recent
// events for late inspection, and events carrying a TTL are dropped instead
// of delivered once they expire.
package bus
