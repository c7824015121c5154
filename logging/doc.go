// Package logging provides a minimal logging interface and adapters for
// the agent kernel.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that kernel components use for observability. This package
// includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - KernelLogger with contextual helpers (agent, component) and domain
//     specific helpers for dispatches and shutdown phases
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	k := kernel.New(kernel.WithLogger(logger))
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
