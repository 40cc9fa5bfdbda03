package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prithvirajx-max/Driftyy-sub001/internal/db"
	"github.com/prithvirajx-max/Driftyy-sub001/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrMaxRetriesExceeded = errors.New("maximum retry attempts exceeded")
	ErrInvalidMessageID   = errors.New("invalid message ID: cannot be empty")
	ErrOperationTimeout   = errors.New("operation timeout exceeded")
)

const (
	// Timeouts
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second

	// Retry configuration
	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second
)

type messageRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

type MessageRepository interface {
	MarkMessageDelivered(ctx context.Context, messageID string) error
	MarkMessageRead(ctx context.Context, messageID string) error
	ListPrivateMessages(ctx context.Context, userA, userB string, page int64) (*db.PaginatedResult[model.Message], error)
	ListGroupMessages(ctx context.Context, groupID string, page int64) (*db.PaginatedResult[model.Message], error)
}

func NewMessageRepository(mongo *mongo.Database, repo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		con:       mongo,
		mongoRepo: repo,
		logger:    logger,
	}
}

// -----------------------------------------------------------------------------
// Delivery / read flag updates
// -----------------------------------------------------------------------------

// MarkMessageDelivered sets the delivered flag. The update only ever sets the
// flag to true, so a repeated or late ack can never undo a delivery.
func (m *messageRepository) MarkMessageDelivered(ctx context.Context, messageID string) error {
	return m.setFlags(ctx, messageID, bson.M{
		"is_delivered": true,
		"delivered_at": time.Now().UTC(),
	})
}

// MarkMessageRead sets the read flag, and the delivered flag with it: a read
// message has necessarily been delivered.
func (m *messageRepository) MarkMessageRead(ctx context.Context, messageID string) error {
	return m.setFlags(ctx, messageID, bson.M{
		"is_delivered": true,
		"is_read":      true,
		"read_at":      time.Now().UTC(),
	})
}

func (m *messageRepository) setFlags(ctx context.Context, messageID string, update bson.M) error {
	if messageID == "" {
		return ErrInvalidMessageID
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("message_id", messageID).Build()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return err
			}
		}

		result, err := m.mongoRepo.Update(ctx, filter, update)
		if err == nil {
			if result.MatchedCount == 0 {
				m.logger.Warn("status update matched no message",
					zap.String("message_id", messageID),
				)
			} else {
				m.logger.Debug("message status updated",
					zap.String("message_id", messageID),
					zap.Int("attempt", attempt+1),
				)
			}
			return nil
		}

		lastErr = err

		if !m.isRetryableError(err) {
			break
		}

		m.logger.Warn("status update failed, retrying",
			zap.Error(err),
			zap.String("message_id", messageID),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
		)
	}

	m.logger.Error("failed to update message status after all retries",
		zap.Error(lastErr),
		zap.String("message_id", messageID),
	)

	return fmt.Errorf("update message status failed: %w", lastErr)
}

// -----------------------------------------------------------------------------
// History queries
// -----------------------------------------------------------------------------

// ListPrivateMessages pages through the conversation between two users, in
// either direction.
func (m *messageRepository) ListPrivateMessages(ctx context.Context, userA, userB string, page int64) (*db.PaginatedResult[model.Message], error) {
	if userA == "" || userB == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Or(
		db.NewFilter().Eq("sender_id", userA).Eq("recipient_id", userB).Build(),
		db.NewFilter().Eq("sender_id", userB).Eq("recipient_id", userA).Build(),
	).Build()

	return m.listMessages(ctx, filter, page)
}

// ListGroupMessages pages through a group's messages.
func (m *messageRepository) ListGroupMessages(ctx context.Context, groupID string, page int64) (*db.PaginatedResult[model.Message], error) {
	if groupID == "" {
		return nil, ErrInvalidGroupID
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("group_id", groupID).Build()

	return m.listMessages(ctx, filter, page)
}

func (m *messageRepository) listMessages(ctx context.Context, filter bson.M, page int64) (*db.PaginatedResult[model.Message], error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
		}

		result, err := m.mongoRepo.FindWithPagination(ctx, filter, db.PaginationParams{
			Page:     page,
			PageSize: 15,
			SortBy:   "created_at",
			SortDesc: true,
		})

		if err == nil {
			m.logger.Debug("messages listed",
				zap.Int("count", len(result.Data)),
				zap.Int64("total", result.Total),
				zap.Int64("page", result.Page),
			)
			return result, nil
		}

		lastErr = err

		if !m.isRetryableError(err) {
			break
		}
	}

	return nil, m.handleReadError(lastErr)
}

// -----------------------------------------------------------------------------
// Private Helper Methods
// -----------------------------------------------------------------------------

func (m *messageRepository) ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

func (m *messageRepository) waitForRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (m *messageRepository) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}

	return false
}

func (m *messageRepository) handleReadError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		m.logger.Error("read timeout")
		return ErrOperationTimeout
	}

	if errors.Is(err, context.Canceled) {
		m.logger.Debug("read cancelled")
		return err
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil // Not an error, just empty result
	}

	m.logger.Error("read failed", zap.Error(err))
	return fmt.Errorf("list messages failed: %w", err)
}
