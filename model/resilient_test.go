package model

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyCompleter fails a fixed number of times before succeeding.
type flakyCompleter struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyCompleter) Complete(_ context.Context, req Request) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.calls <= f.failures {
		return Response{}, errors.New("transient failure")
	}

	return Response{Text: "ok", Model: "flaky"}, nil
}

func (f *flakyCompleter) Info() Info {
	return Info{Name: "flaky", Provider: "test"}
}

func (f *flakyCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

func TestResilientRetriesTransientFailures(t *testing.T) {
	flaky := &flakyCompleter{failures: 2}
	r := NewResilient(flaky, func(o *ResilientOptions) {
		o.RequestsPerSecond = 1000
		o.Burst = 100
	})

	resp, err := r.Complete(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 3, flaky.callCount())
}

func TestResilientExhaustsRetries(t *testing.T) {
	flaky := &flakyCompleter{failures: 100}
	r := NewResilient(flaky, func(o *ResilientOptions) {
		o.Attempts = 2
		o.RequestsPerSecond = 1000
		o.Burst = 100
	})

	_, err := r.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Equal(t, 2, flaky.callCount())
}

func TestResilientBreakerOpens(t *testing.T) {
	flaky := &flakyCompleter{failures: 1 << 30}
	r := NewResilient(flaky, func(o *ResilientOptions) {
		o.Attempts = 1
		o.ConsecutiveFailures = 2
		o.RequestsPerSecond = 1000
		o.Burst = 100
	})

	for i := 0; i < 5; i++ {
		_, _ = r.Complete(context.Background(), Request{Prompt: "hi"})
	}

	before := flaky.callCount()

	_, err := r.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)

	// Breaker is open; the provider must not be called anymore.
	assert.Equal(t, before, flaky.callCount())
}

func TestResilientInfoPassthrough(t *testing.T) {
	r := NewResilient(NewMockCompleter("m"))

	assert.Equal(t, "mock", r.Info().Provider)
}
