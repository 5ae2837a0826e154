package commands

import (
	"context"
	"errors"
	"fmt"
)

// Command represents a write intent routed through the application bus.
type Command interface {
	Key() string
}

// Handler processes a command and returns a value (if any).
type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// HandlerFunc adapts ordinary functions to Handler.
type HandlerFunc[C Command, R any] func(ctx context.Context, cmd C) (R, error)

func (f HandlerFunc[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	return f(ctx, cmd)
}

// Bus dispatches commands through an optional middleware pipeline.
type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

var (
	ErrHandlerNotFound = errors.New("commands: handler not found")
	ErrInvalidCommand  = errors.New("commands: invalid command for handler")
	ErrResultType      = errors.New("commands: result type mismatch")
	ErrNilBus          = errors.New("commands: nil bus")
)

// Dispatch performs type-safe command invocation against a bus.
func Dispatch[C Command, R any](ctx context.Context, bus Bus, cmd C) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Dispatch(ctx, cmd)
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	value, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %T for %s", ErrResultType, res, cmd.Key())
	}
	return value, nil
}

type rawHandler func(ctx context.Context, cmd Command) (any, error)

// InMemoryBus keeps handlers in a key registry.
type InMemoryBus struct {
	handlers map[string]rawHandler
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string]rawHandler)}
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	h, ok := b.handlers[cmd.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, cmd.Key())
	}
	return h(ctx, cmd)
}

// RegisterHandler attaches a typed handler. Registering a key twice panics.
func RegisterHandler[C Command, R any](bus *InMemoryBus, handler Handler[C, R]) {
	if bus == nil {
		panic("commands: nil bus")
	}
	var probe C
	key := probe.Key()
	if key == "" {
		panic("commands: empty key registration")
	}
	if _, exists := bus.handlers[key]; exists {
		panic("commands: duplicate registration for " + key)
	}
	bus.handlers[key] = func(ctx context.Context, raw Command) (any, error) {
		cmd, ok := raw.(C)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCommand, key)
		}
		return handler.Handle(ctx, cmd)
	}
}
