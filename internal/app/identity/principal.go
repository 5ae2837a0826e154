package identity

import (
	"context"

	"villarent/internal/domain/user"
)

// Principal is the authenticated caller resolved at the HTTP boundary.
type Principal struct {
	UserID string
	Email  string
	Name   string
	Role   user.Role
	Token  string
}

func IsAdmin(p Principal) bool {
	return p.UserID != "" && p.Role == user.RoleAdmin
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok && p.UserID != ""
}
