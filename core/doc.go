// Package core contains the shared value types of the agent kernel:
// agent identity and lifecycle state, schedule modes, and the read-only
// registry record consumed by monitoring components.
//
// The package is intentionally dependency-free (standard library plus
// uuid) so that every other kernel package can import it without cycles.
package core
