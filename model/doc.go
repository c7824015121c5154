// Package model defines the provider agnostic completion abstraction the
// kernel dispatches self-prompts through.
//
// Core goals:
//   - Keep the Completer interface minimal: one prompt in, one text out
//   - Decouple the kernel from vendor SDKs; providers live in subpackages
//   - Facilitate lightweight mocking for tests (MockCompleter)
//   - Offer an optional resilience wrapper (retry, circuit breaker, rate
//     limit) so background schedules cannot hammer a degraded provider
//
// Providers (e.g. OpenAI, Anthropic) implement the Completer interface from
// this package so the executor and kernel remain vendor neutral.
package model
