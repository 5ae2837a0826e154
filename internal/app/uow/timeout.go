package uow

import (
	"context"
	"errors"
	"time"

	"villarent/internal/app/apperr"
)

// DefaultTimeout bounds a single datastore call when none is configured.
const DefaultTimeout = 5 * time.Second

// Bounded runs fn under a deadline. A deadline hit by the call itself, rather
// than by the caller's context, becomes a retryable unavailable error.
func Bounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	res, err := fn(callCtx)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		var zero T
		return zero, apperr.Unavailable(err)
	}
	return res, err
}
