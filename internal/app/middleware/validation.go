package middleware

import (
	"context"
	"reflect"

	"github.com/go-playground/validator/v10"

	"villarent/internal/app/apperr"
	"villarent/internal/app/commands"
	"villarent/internal/app/queries"
)

type Validator interface {
	Validate(ctx context.Context, message any) error
}

// StructValidator checks `validate` struct tags on commands and queries.
type StructValidator struct {
	v *validator.Validate
}

func NewStructValidator() *StructValidator {
	return &StructValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (s *StructValidator) Validate(ctx context.Context, message any) error {
	rv := reflect.ValueOf(message)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	if err := s.v.StructCtx(ctx, message); err != nil {
		return apperr.Validation(err)
	}
	return nil
}

func Validation(v Validator) CommandMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := v.Validate(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := v.Validate(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
