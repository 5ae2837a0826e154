package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"villarent/internal/domain/user"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(usersCollection)}
}

func (r *UserRepository) ByID(ctx context.Context, id user.ID) (*user.User, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, bson.M{"email": user.NormalizeEmail(email)})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*user.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, user.ErrNotFound
		}
		return nil, storeErr(err)
	}
	return &user.User{
		ID:           user.ID(doc.ID),
		Email:        doc.Email,
		Name:         doc.Name,
		Phone:        doc.Phone,
		PasswordHash: doc.PasswordHash,
		Role:         user.Role(doc.Role),
		CreatedAt:    timestampToTime(doc.CreatedAt),
		UpdatedAt:    timestampToTime(doc.UpdatedAt),
	}, nil
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	doc := userDocument{
		ID:           string(u.ID),
		Email:        user.NormalizeEmail(u.Email),
		Name:         u.Name,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt.UnixMilli(),
		UpdatedAt:    u.UpdatedAt.UnixMilli(),
	}
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return user.ErrEmailAlreadyUsed
	}
	return storeErr(err)
}

type userDocument struct {
	ID           string `bson:"_id"`
	Email        string `bson:"email"`
	Name         string `bson:"name"`
	Phone        string `bson:"phone"`
	PasswordHash string `bson:"password_hash"`
	Role         string `bson:"role"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
}
