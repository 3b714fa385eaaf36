package backend

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
)

// Resilient wraps a Client with bounded retry and a per-call timeout. The
// timeout only abandons waiting for the result; it does not cancel the remote
// call once submitted.
type Resilient struct {
	inner       Client
	callTimeout time.Duration
	maxAttempts int
}

// NewResilient wraps inner with the given per-call timeout and attempt count.
func NewResilient(inner Client, callTimeout time.Duration, maxAttempts int) *Resilient {
	if callTimeout <= 0 {
		callTimeout = 300 * time.Second
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Resilient{inner: inner, callTimeout: callTimeout, maxAttempts: maxAttempts}
}

func (r *Resilient) Name() string { return r.inner.Name() }

func (r *Resilient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	rt := retry.New[CompletionResponse](retry.Config{
		MaxAttempts:   r.maxAttempts,
		InitialDelay:  time.Second,
		BackoffPolicy: retry.BackoffExponential,
	})
	to := timeout.New[CompletionResponse](timeout.Config{
		DefaultTimeout: r.callTimeout,
	})

	return to.Execute(ctx, r.callTimeout, func(ctx context.Context) (CompletionResponse, error) {
		return rt.Do(ctx, func(ctx context.Context) (CompletionResponse, error) {
			return r.inner.Complete(ctx, req)
		})
	})
}
