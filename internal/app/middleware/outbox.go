package middleware

import (
	"context"

	"villarent/internal/app/commands"
	"villarent/internal/app/outbox"
)

// OutboxFlush nudges the relay after a command committed successfully. A
// failed nudge is not the caller's problem: the relay also polls.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			_ = box.Flush(ctx)
			return res, nil
		})
	}
}
