package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

// ContextWithUnitOfWork stores the provided unit of work in context.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

// FromContext retrieves a unit of work from context if present.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	val := ctx.Value(ctxKey{})
	if val == nil {
		return nil, false
	}
	unit, ok := val.(UnitOfWork)
	return unit, ok
}

// Bind returns ctx prepared for repository calls of unit: backends that carry
// session state in the context (Mongo sessions, gorm transactions) inject it,
// then the unit itself is attached.
func Bind(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}
