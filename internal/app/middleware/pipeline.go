package middleware

import (
	"context"
	"log/slog"
	"time"

	"villarent/internal/app/apperr"
	"villarent/internal/app/commands"
	"villarent/internal/app/queries"
)

// CommandMiddleware wraps a command bus with additional behavior.
type CommandMiddleware func(next commands.Bus) commands.Bus

// QueryMiddleware wraps a query bus with extra behavior.
type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainCommands builds a command bus wrapped with the provided middleware (outermost first).
func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

// ChainQueries builds a query bus with middleware applied.
func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

// commandFunc lets middleware be written as closures.
type commandFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f commandFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

func wrapCommand(next commands.Bus) commandFunc {
	return func(ctx context.Context, cmd commands.Command) (any, error) {
		return next.Dispatch(ctx, cmd)
	}
}

type queryFunc func(ctx context.Context, query queries.Query) (any, error)

func (f queryFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}

func wrapQuery(next queries.Bus) queryFunc {
	return func(ctx context.Context, q queries.Query) (any, error) {
		return next.Ask(ctx, q)
	}
}

// Logging records every dispatched command with its outcome.
func Logging(logger *slog.Logger) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			if logger == nil {
				return res, err
			}
			if err != nil {
				level := slog.LevelWarn
				kind := apperr.KindOf(err)
				if kind == apperr.KindInternal || kind == apperr.KindServiceUnavailable {
					level = slog.LevelError
				}
				logger.Log(ctx, level, "command failed", "command", cmd.Key(), "kind", kind, "error", err, "duration", time.Since(start))
				return res, err
			}
			logger.Debug("command handled", "command", cmd.Key(), "duration", time.Since(start))
			return res, nil
		})
	}
}
