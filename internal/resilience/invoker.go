package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Invoker composes a circuit breaker and bounded retry around one gateway
// operation type. Each call runs under its own timeout; a timeout counts as
// a retryable failure, not a fatal one.
type Invoker struct {
	name    string
	breaker *Breaker
	retry   RetryConfig
	timeout time.Duration
}

func NewInvoker(name string, breaker *Breaker, retry RetryConfig, timeout time.Duration) *Invoker {
	return &Invoker{name: name, breaker: breaker, retry: retry, timeout: timeout}
}

// Do executes op behind the breaker. When the circuit is open the call
// short-circuits with ErrCircuitOpen and the caller applies its fallback.
// The retried call feeds a single aggregate outcome into the window.
func (inv *Invoker) Do(ctx context.Context, op func(context.Context) error) error {
	if err := inv.breaker.Allow(); err != nil {
		slog.Warn("gateway call short-circuited", "operation", inv.name)
		return err
	}

	err := Retry(ctx, inv.retry, func(ctx context.Context) error {
		callCtx := ctx
		if inv.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, inv.timeout)
			defer cancel()
		}
		return op(callCtx)
	})

	// A caller-side cancellation says nothing about gateway health: the
	// call is discarded rather than counted as an outcome.
	if errors.Is(err, context.Canceled) {
		inv.breaker.Forget()
		return err
	}

	// A non-transient error means the gateway answered, so only transient
	// failures count against the window.
	inv.breaker.Record(err == nil || !Transient(err))

	if err != nil && !errors.Is(err, ErrCircuitOpen) {
		slog.Error("gateway call failed", "operation", inv.name, "error", err)
	}
	return err
}
