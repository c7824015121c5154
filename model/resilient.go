package model

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ResilientOptions configures the resilience wrapper.
type ResilientOptions struct {
	// Attempts is how many times a failing completion is retried.
	Attempts uint

	// RequestsPerSecond and Burst configure the rate limiter.
	RequestsPerSecond float64
	Burst             int

	// ConsecutiveFailures is how many failures in a row trip the breaker.
	ConsecutiveFailures uint32

	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration
}

// Resilient wraps a Completer with a rate limiter, a circuit breaker and
// retries. Background agents dispatch on fixed schedules regardless of
// provider health, so the wrapper is what keeps a degraded provider from
// being hammered by the whole fleet at once.
type Resilient struct {
	next    Completer
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	opts    ResilientOptions
}

// NewResilient wraps a completer with the default resilience policy.
func NewResilient(next Completer, optFns ...func(o *ResilientOptions)) *Resilient {
	opts := ResilientOptions{
		Attempts:            3,
		RequestsPerSecond:   10,
		Burst:               5,
		ConsecutiveFailures: 5,
		BreakerTimeout:      30 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        next.Info().Provider,
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > opts.ConsecutiveFailures
		},
	})

	return &Resilient{
		next:    next,
		cb:      cb,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		opts:    opts,
	}
}

// Complete implements Completer.
func (r *Resilient) Complete(ctx context.Context, req Request) (Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf("rate limit: %w", err)
	}

	var resp Response

	result, err := r.cb.Execute(func() (interface{}, error) {
		retrier := retry.New(
			retry.Context(ctx),
			retry.Attempts(r.opts.Attempts),
			retry.LastErrorOnly(true),
		)

		retryErr := retrier.Do(func() error {
			var callErr error
			resp, callErr = r.next.Complete(ctx, req)
			return callErr
		})

		return resp, retryErr
	})
	if err != nil {
		return Response{}, err
	}

	return result.(Response), nil
}

// Info implements Completer.
func (r *Resilient) Info() Info {
	return r.next.Info()
}
