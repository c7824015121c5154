// Package capability implements the kernel's capability-based security
// model. An agent can only perform actions it has been explicitly
// granted, and a child agent can never hold a grant its parent does not
// cover. ValidateInheritance enforces that invariant and must run to
// completion before a child's loop starts.
//
// Capabilities are pure values: immutable after agent creation and
// matched by simple glob patterns.
package capability
