// Package deadline races external calls against a per-stage deadline.
//
// The op runs in its own goroutine with a context bounded by the deadline.
// When the deadline wins, the caller gets a typed timeout immediately; the op
// may keep running if it ignores its context, and whatever it eventually
// produces is dropped.
package deadline

import (
	"context"
	"fmt"
	"time"

	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/kapu/creator-insight-go/pkg/errors"
	"go.uber.org/zap"
)

type outcome[T any] struct {
	value T
	err   error
}

// Required returns op's value, op's own error, or an UPSTREAM_TIMEOUT error for stage.
func Required[T any](ctx context.Context, stage string, timeout time.Duration, op func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	defer func() {
		domain.RequestContextFrom(ctx).Record(stage, time.Since(start))
	}()

	var zero T
	if timeout <= 0 {
		return zero, fmt.Errorf("deadline for %s must be positive", stage)
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Buffered so a late op never blocks after the race is lost.
	done := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome[T]{err: fmt.Errorf("%s panicked: %v", stage, r)}
			}
		}()
		value, err := op(opCtx)
		done <- outcome[T]{value: value, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && opCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return zero, errors.NewUpstreamTimeoutError(stage, timeout).WithCause(res.err)
		}
		return res.value, res.err
	case <-opCtx.Done():
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, errors.NewUpstreamTimeoutError(stage, timeout)
	}
}

// Optional behaves like Required but converts every failure into absence.
func Optional[T any](ctx context.Context, logger *zap.Logger, stage string, timeout time.Duration, op func(context.Context) (T, error)) (T, bool) {
	value, err := Required(ctx, stage, timeout, op)
	if err != nil {
		if logger != nil {
			logger.Warn("Optional stage degraded",
				zap.String("stage", stage),
				zap.String("code", errors.CodeOf(err)),
				zap.Error(err),
			)
		}
		var zero T
		return zero, false
	}
	return value, true
}
