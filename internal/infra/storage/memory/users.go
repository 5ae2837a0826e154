package memory

import (
	"context"
	"sync"

	"villarent/internal/domain/user"
)

type UserRepository struct {
	mu    sync.RWMutex
	byID  map[user.ID]user.User
	email map[string]user.ID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{byID: make(map[user.ID]user.User), email: make(map[string]user.ID)}
}

func (r *UserRepository) ByID(ctx context.Context, id user.ID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.email[user.NormalizeEmail(email)]
	if !ok {
		return nil, user.ErrNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := user.NormalizeEmail(u.Email)
	if owner, ok := r.email[email]; ok && owner != u.ID {
		return user.ErrEmailAlreadyUsed
	}
	if prev, ok := r.byID[u.ID]; ok && prev.Email != email {
		delete(r.email, prev.Email)
	}
	stored := *u
	stored.Email = email
	r.byID[u.ID] = stored
	r.email[email] = u.ID
	return nil
}

var _ user.Repository = (*UserRepository)(nil)
