package middleware

import (
	"context"

	"villarent/internal/app/commands"
	"villarent/internal/app/uow"
)

// SelfTransacted is implemented by commands whose handlers open and retry
// their own units of work.
type SelfTransacted interface {
	OwnsTransaction() bool
}

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if st, ok := cmd.(SelfTransacted); ok && st.OwnsTransaction() {
				return nextFn(ctx, cmd)
			}
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			unit, err := factory.Begin(ctx, opts)
			if err != nil {
				return nil, err
			}
			execCtx := uow.Bind(ctx, unit)
			committed := false
			defer func() {
				if !committed {
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err := nextFn(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				return nil, err
			}
			committed = true
			return res, nil
		})
	}
}
