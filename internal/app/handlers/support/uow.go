package support

import (
	"context"

	"villarent/internal/app/uow"
)

// BeginReadOnlyUnit reuses the unit already bound to ctx or opens a read-only
// one. The returned cleanup is nil when the unit was reused.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.Bind(ctx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// UnitFromContext returns the unit bound by the transaction middleware.
func UnitFromContext(ctx context.Context) (uow.UnitOfWork, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	return unit, nil
}
