package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired          = errors.New("user: id is required")
	ErrEmailRequired       = errors.New("user: email is required")
	ErrPasswordHashMissing = errors.New("user: password hash is required")
	ErrNameRequired        = errors.New("user: name is required")
	ErrInvalidRole         = errors.New("user: invalid role")
	ErrEmailAlreadyUsed    = errors.New("user: email already used")
	ErrNotFound            = errors.New("user: not found")
)

type ID string

type Role string

const (
	RoleGuest Role = "guest"
	RoleAdmin Role = "admin"
)

func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleGuest, "":
		return RoleGuest, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

type User struct {
	ID           ID
	Email        string
	Name         string
	Phone        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	// Save fails with ErrEmailAlreadyUsed when another user owns the email.
	Save(ctx context.Context, user *User) error
}

type CreateParams struct {
	ID           ID
	Email        string
	Name         string
	Phone        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

func NewUser(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := NormalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	role, err := ParseRole(string(params.Role))
	if err != nil {
		return nil, err
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &User{
		ID:           ID(id),
		Email:        email,
		Name:         name,
		Phone:        strings.TrimSpace(params.Phone),
		PasswordHash: params.PasswordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

func (u *User) Promote(now time.Time) {
	u.Role = RoleAdmin
	u.UpdatedAt = now.UTC()
}

func (u *User) SetPasswordHash(hash string, now time.Time) error {
	if strings.TrimSpace(hash) == "" {
		return ErrPasswordHashMissing
	}
	u.PasswordHash = hash
	u.UpdatedAt = now.UTC()
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
