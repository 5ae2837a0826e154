package mysql

import (
	"context"

	"gorm.io/gorm"

	"villarent/internal/domain/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return UserRepository{db: db}
}

func (r UserRepository) ByID(ctx context.Context, id user.ID) (*user.User, error) {
	return r.first(ctx, "id = ?", string(id))
}

func (r UserRepository) ByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.first(ctx, "email = ?", user.NormalizeEmail(email))
}

func (r UserRepository) first(ctx context.Context, query string, arg any) (*user.User, error) {
	var m userModel
	if err := conn(ctx, r.db).Where(query, arg).First(&m).Error; err != nil {
		if notFound(err) {
			return nil, user.ErrNotFound
		}
		return nil, storeErr(err)
	}
	return m.toUser(), nil
}

func (r UserRepository) Save(ctx context.Context, u *user.User) error {
	m := userModel{
		ID:           string(u.ID),
		Email:        user.NormalizeEmail(u.Email),
		Name:         u.Name,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if err := conn(ctx, r.db).Save(&m).Error; err != nil {
		if lostRace(err) {
			return user.ErrEmailAlreadyUsed
		}
		return storeErr(err)
	}
	return nil
}

var _ user.Repository = UserRepository{}
