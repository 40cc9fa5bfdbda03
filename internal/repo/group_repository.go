package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prithvirajx-max/Driftyy-sub001/internal/db"
	"github.com/prithvirajx-max/Driftyy-sub001/internal/model"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var ErrInvalidGroupID = errors.New("invalid group ID: cannot be empty")

type GroupRepository interface {
	FindGroupByID(ctx context.Context, id string) (*model.Group, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

type groupRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.Group]
	logger    *zap.Logger
}

func NewGroupRepository(con *mongo.Database, repo *db.Repository[model.Group], logger *zap.Logger) GroupRepository {
	return &groupRepository{
		con:       con,
		mongoRepo: repo,
		logger:    logger,
	}
}

// FindGroupByID fetches a group with its membership snapshot. A missing or
// inactive group is returned as (nil, nil).
func (r *groupRepository) FindGroupByID(ctx context.Context, id string) (*model.Group, error) {
	if id == "" {
		return nil, ErrInvalidGroupID
	}

	ctx, cancel := r.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	group, err := r.mongoRepo.FindOne(ctx, db.NewFilter().Eq("group_id", id).Eq("is_active", true).Build())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("group not found", zap.String("group_id", id))
			return nil, nil
		}
		r.logger.Error("failed to fetch group", zap.String("group_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch group: %w", err)
	}

	return group, nil
}

// IsMember checks membership without loading the whole group document.
func (r *groupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	if groupID == "" {
		return false, ErrInvalidGroupID
	}
	if userID == "" {
		return false, ErrInvalidUserID
	}

	ctx, cancel := r.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("group_id", groupID).Eq("is_active", true).Eq("member_ids", userID).Build()

	exists, err := r.mongoRepo.Exists(ctx, filter)
	if err != nil {
		r.logger.Error("membership check failed",
			zap.String("group_id", groupID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return false, fmt.Errorf("membership check failed: %w", err)
	}

	return exists, nil
}

func (r *groupRepository) ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
