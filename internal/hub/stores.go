package hub

import (
	"context"

	"github.com/prithvirajx-max/Driftyy-sub001/internal/model"
)

// Narrow storage-collaborator interfaces. The hub never touches concrete
// storage types during event handling; implementations are injected at
// construction time by the container.

type GroupStore interface {
	FindGroupByID(ctx context.Context, id string) (*model.Group, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

type MessageStore interface {
	MarkMessageDelivered(ctx context.Context, messageID string) error
	MarkMessageRead(ctx context.Context, messageID string) error
}
