package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prithvirajx-max/Driftyy-sub001/internal/db"
	"github.com/prithvirajx-max/Driftyy-sub001/internal/model"

	"go.mongodb.org/mongo-driver/mongo"
)

var ErrInvalidUserID = errors.New("invalid user ID: cannot be empty")

type UserRepository interface {
	FindUserByID(ctx context.Context, id string) (*model.User, error)
}

type userRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.User]
}

func NewUserRepository(con *mongo.Database, repo *db.Repository[model.User]) UserRepository {
	return &userRepository{
		con:       con,
		mongoRepo: repo,
	}
}

// FindUserByID looks a user up by its application-level user_id. A missing
// user is returned as (nil, nil) so callers can distinguish absence from
// storage failure.
func (r *userRepository) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	result, err := r.mongoRepo.FindOne(ctx, db.NewFilter().Eq("user_id", id).Build())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return result, nil
}
