// Package registry provides the in-memory agent registry.
//
// The registry is the kernel's source of truth for which agents exist,
// what state they are in and when they were last active. It satisfies
// core.RegistrySnapshot so the heartbeat monitor can observe it without
// depending on this package.
package registry
