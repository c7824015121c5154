// Package manifest loads declarative agent definitions from YAML.
//
// A manifest describes everything the kernel needs to spawn an agent: its
// name, system prompt, model, capability grants, background schedule and
// heartbeat settings. Parsing validates eagerly so a bad manifest fails at
// load time rather than when the agent first misbehaves.
package manifest
