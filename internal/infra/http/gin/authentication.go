package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	gin "github.com/gin-gonic/gin"

	"villarent/internal/app/apperr"
	"villarent/internal/app/identity"
	domainauth "villarent/internal/domain/auth"
)

// TokenResolver turns a bearer token into the caller's principal.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (identity.Principal, error)
}

// AuthMiddleware attaches the principal to the request context when a valid
// bearer token is present. Anonymous requests pass through; the routes that
// need a principal reject them later.
type AuthMiddleware struct {
	Resolver TokenResolver
	Logger   *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Resolver == nil {
		c.Next()
		return
	}
	p, err := m.Resolver.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if apperr.Retryable(err) {
			respondError(c, m.Logger, err)
			return
		}
		if !errors.Is(err, domainauth.ErrSessionNotFound) && m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	c.Request = c.Request.WithContext(identity.WithPrincipal(c.Request.Context(), p))
	c.Next()
}

func currentPrincipal(c *gin.Context) (identity.Principal, bool) {
	return identity.FromContext(c.Request.Context())
}

func requireAuth(c *gin.Context) (identity.Principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		respondError(c, nil, apperr.ErrUnauthorized)
		return identity.Principal{}, false
	}
	return p, true
}

// requireAdmin guards the back-office group. Admin-only commands are checked
// again on the bus.
func requireAdmin(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	if !identity.IsAdmin(p) {
		respondError(c, nil, apperr.ErrForbidden)
		return
	}
	c.Next()
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
