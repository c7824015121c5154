// Package heartbeat implements liveness checking for agents.
//
// The monitor is deliberately stateless: Check is a pure function over a
// snapshot of agent records and a clock reading, which makes the overdue
// logic trivial to test and lets callers drive it from any loop they like.
// An agent is considered unresponsive once it has been silent for twice its
// heartbeat interval. Agents may declare quiet hours during which missed
// heartbeats are expected and not reported.
package heartbeat
