package ginserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"villarent/internal/app/dto"
	authsvc "villarent/internal/app/services/auth"
)

type AuthHTTP interface {
	Login(c *gin.Context)
	Logout(c *gin.Context)
	Me(c *gin.Context)
}

// Authenticator is the slice of the auth service the HTTP layer needs.
type Authenticator interface {
	Login(ctx context.Context, params authsvc.LoginParams) (*authsvc.AuthResult, error)
	Logout(ctx context.Context, token string) error
}

type AuthHandler struct {
	Service Authenticator
	Logger  *slog.Logger
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email dan password diperlukan")
		return
	}
	result, err := h.Service.Login(c.Request.Context(), authsvc.LoginParams{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.Session{
		Token:     string(result.Session.Token),
		ExpiresAt: result.Session.ExpiresAt,
		User:      dto.MapUser(result.User),
	})
}

func (h AuthHandler) Logout(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if p, ok := currentPrincipal(c); ok && p.Token != "" {
		token = p.Token
	}
	if token == "" {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.Service.Logout(c.Request.Context(), token); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AuthHandler) Me(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.User{
		ID:    p.UserID,
		Email: p.Email,
		Name:  p.Name,
		Role:  string(p.Role),
	})
}

var _ AuthHTTP = AuthHandler{}
