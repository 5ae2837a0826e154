package middleware

import (
	"context"

	"villarent/internal/app/apperr"
	"villarent/internal/app/commands"
	"villarent/internal/app/identity"
	"villarent/internal/app/queries"
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// AdminOnly marks messages reserved for administrators.
type AdminOnly interface {
	AdminOnly()
}

// RoleAuthorizer lets everything through except AdminOnly messages, which
// need an admin principal in the context.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(ctx context.Context, message any) error {
	if _, ok := message.(AdminOnly); !ok {
		return nil
	}
	p, ok := identity.FromContext(ctx)
	if !ok {
		return apperr.ErrUnauthorized
	}
	if !identity.IsAdmin(p) {
		return apperr.ErrForbidden
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
