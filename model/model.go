package model

import (
	"context"
	"fmt"
	"sync"
)

// Request captures the normalized completion input produced by the kernel.
type Request struct {
	// System is the agent's standing instruction.
	System string `json:"system,omitempty"`

	// Prompt is the self-prompt or rendered trigger message to complete.
	Prompt string `json:"prompt"`

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int64 `json:"max_tokens,omitempty"`
}

// TokenUsage captures token accounting for a completion.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Response is a completed model turn.
type Response struct {
	Text  string     `json:"text"`
	Model string     `json:"model"`
	Usage TokenUsage `json:"usage"`
}

// Info contains metadata about a completer implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Completer is the minimal interface the kernel needs to run an agent turn.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)

	// Info returns information about the completer implementation.
	Info() Info
}

// MockCompleter is a lightweight in-memory Completer useful for tests and
// examples. It records every request it sees.
type MockCompleter struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	err       error
	requests  []Request
}

// NewMockCompleter constructs a MockCompleter.
func NewMockCompleter(name string) *MockCompleter {
	return &MockCompleter{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockCompleter) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses[prompt] = response
}

// FailWith makes every subsequent Complete call return err. Pass nil to
// restore normal behavior.
func (m *MockCompleter) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
}

// Requests returns a copy of all requests seen so far.
func (m *MockCompleter) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Request(nil), m.requests...)
}

// Complete implements Completer.
func (m *MockCompleter) Complete(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.err != nil {
		return Response{}, m.err
	}

	text, ok := m.responses[req.Prompt]
	if !ok {
		text = fmt.Sprintf("Mock response to: %s", req.Prompt)
	}

	return Response{
		Text:  text,
		Model: m.info.Name,
		Usage: TokenUsage{
			InputTokens:  int64(len(req.Prompt)),
			OutputTokens: int64(len(text)),
		},
	}, nil
}

// Info implements Completer.
func (m *MockCompleter) Info() Info {
	return m.info
}
