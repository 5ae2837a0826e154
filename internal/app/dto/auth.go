package dto

import (
	"time"

	domainuser "villarent/internal/domain/user"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role"`
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

func MapUser(u *domainuser.User) User {
	return User{
		ID:    string(u.ID),
		Email: u.Email,
		Name:  u.Name,
		Phone: u.Phone,
		Role:  string(u.Role),
	}
}
