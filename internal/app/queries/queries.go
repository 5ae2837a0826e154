package queries

import (
	"context"
	"errors"
	"fmt"
)

// Query is a read request.
type Query interface {
	Key() string
}

type Handler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

type HandlerFunc[Q Query, R any] func(ctx context.Context, query Q) (R, error)

func (f HandlerFunc[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	return f(ctx, query)
}

// Bus routes queries to registered handlers.
type Bus interface {
	Ask(ctx context.Context, query Query) (any, error)
}

var (
	ErrHandlerNotFound = errors.New("queries: handler not found")
	ErrInvalidQuery    = errors.New("queries: invalid query for handler")
	ErrResultType      = errors.New("queries: result type mismatch")
	ErrNilBus          = errors.New("queries: nil bus")
)

// Ask runs the query through the bus, returning a typed result.
func Ask[Q Query, R any](ctx context.Context, bus Bus, query Q) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Ask(ctx, query)
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	value, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %T for %s", ErrResultType, res, query.Key())
	}
	return value, nil
}

type rawHandler func(ctx context.Context, q Query) (any, error)

type InMemoryBus struct {
	handlers map[string]rawHandler
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string]rawHandler)}
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	h, ok := b.handlers[query.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, query.Key())
	}
	return h(ctx, query)
}

func RegisterHandler[Q Query, R any](bus *InMemoryBus, handler Handler[Q, R]) {
	if bus == nil {
		panic("queries: nil bus")
	}
	var probe Q
	key := probe.Key()
	if key == "" {
		panic("queries: empty key registration")
	}
	if _, exists := bus.handlers[key]; exists {
		panic("queries: duplicate registration for " + key)
	}
	bus.handlers[key] = func(ctx context.Context, raw Query) (any, error) {
		q, ok := raw.(Q)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, key)
		}
		return handler.Handle(ctx, q)
	}
}
