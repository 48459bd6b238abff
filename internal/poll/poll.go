// =============================
// File: internal/poll/poll.go
// =============================
// Package poll blocks callers until an asynchronously created on-chain
// resource becomes visible. Every wait is bounded: exhausting the attempt
// budget surfaces ErrTimedOut instead of hanging the process.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// ErrTimedOut is returned when the resource never became available within
// the configured attempt budget.
var ErrTimedOut = errors.New("timed out waiting for resource")

var errNotReady = errors.New("resource not ready")

// Probe checks once whether the awaited resource exists. ready=false and a
// non-nil error are both treated as "not yet" and retried; the payload is
// returned unchanged on the first ready probe.
type Probe[T any] func(ctx context.Context) (payload T, ready bool, err error)

// Options control the retry budget of a single wait.
type Options struct {
	Interval    time.Duration // fixed delay between attempts
	MaxAttempts uint          // total probe invocations before giving up
	MaxElapsed  time.Duration // optional wall-clock cap, 0 disables
}

const (
	DefaultInterval    = time.Second
	DefaultMaxAttempts = 180
)

// DefaultOptions returns a budget generous enough for slow cluster
// confirmation without allowing an infinite hang.
func DefaultOptions() Options {
	return Options{
		Interval:    DefaultInterval,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Wait invokes probe until it reports ready, sleeping Interval between
// attempts. Transient probe errors are logged and retried. The name is used
// only for logging and error messages.
func Wait[T any](ctx context.Context, logger *zap.Logger, name string, opts Options, probe Probe[T]) (T, error) {
	var zero T

	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}

	operation := func() (T, error) {
		payload, ready, err := probe(ctx)
		if err != nil {
			return zero, err
		}
		if !ready {
			return zero, errNotReady
		}
		return payload, nil
	}

	notify := func(err error, d time.Duration) {
		logger.Debug("Resource not available yet, retrying",
			zap.String("resource", name),
			zap.Duration("next_attempt_in", d),
			zap.Error(err))
	}

	callOpts := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewConstantBackOff(opts.Interval)),
		backoff.WithMaxTries(opts.MaxAttempts),
		backoff.WithNotify(notify),
	}
	if opts.MaxElapsed > 0 {
		callOpts = append(callOpts, backoff.WithMaxElapsedTime(opts.MaxElapsed))
	}

	payload, err := backoff.Retry(ctx, operation, callOpts...)
	if err != nil {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		logger.Warn("Gave up waiting for resource",
			zap.String("resource", name),
			zap.Uint("max_attempts", opts.MaxAttempts),
			zap.Error(err))
		return zero, fmt.Errorf("%w: %s (last error: %v)", ErrTimedOut, name, err)
	}
	return payload, nil
}
